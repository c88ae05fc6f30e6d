package request

import (
	"time"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
)

// RecipientRow is one entry of the operator-supplied recipient list.
type RecipientRow struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// CreateCampaignRequest is the JSON body for campaign admission. The config
// accepts both camelCase and snake_case key spellings.
type CreateCampaignRequest struct {
	OwnerID     string                `json:"ownerId"`
	Name        string                `json:"name"`
	ScheduledAt *time.Time            `json:"scheduledAt,omitempty"`
	Config      campaign.PolicyConfig `json:"config"`
	Recipients  []RecipientRow        `json:"recipients"`
}

// PreviewRequest asks for the expected send schedule of a candidate policy.
type PreviewRequest struct {
	Config  campaign.PolicyConfig `json:"config"`
	StartAt *time.Time            `json:"startAt,omitempty"`
	Count   int                   `json:"count"`
}

// DispatchRequest optionally targets a single campaign; an empty body runs
// a full eligibility scan.
type DispatchRequest struct {
	CampaignID string `json:"campaign_id"`
}

// SchedulerRequest represents the JSON body for scheduler control.
type SchedulerRequest struct {
	// Action controls the scheduler. Allowed values:
	// - "start": start triggering dispatch sweeps
	// - "stop":  stop triggering dispatch sweeps
	Action string `json:"action"`
}
