package response

import (
	"time"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
)

type WelcomePayload struct {
	Message string `json:"message"`
}

type HealthPayload struct {
	Status string `json:"status"`
}

type WelcomeResponse struct {
	Success   bool           `json:"success"`
	Data      WelcomePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type HealthResponse struct {
	Success   bool          `json:"success"`
	Data      HealthPayload `json:"data"`
	Timestamp string        `json:"timestamp"`
}

type SchedulerControlPayload struct {
	Message string `json:"message"`
}

type SchedulerControlResponse struct {
	Success   bool                    `json:"success"`
	Data      SchedulerControlPayload `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

// CampaignDTO is the public-facing representation of a campaign used in
// API responses. It decouples the wire format from the domain entity and
// plays nicely with Swagger.
type CampaignDTO struct {
	ID            string                `json:"id"`
	OwnerID       string                `json:"ownerId"`
	Name          string                `json:"name"`
	Status        string                `json:"status"`
	TotalMessages int                   `json:"totalMessages"`
	SentMessages  int                   `json:"sentMessages"`
	ExecutionTime int64                 `json:"executionTime"`
	ScheduledAt   time.Time             `json:"scheduledAt"`
	StartedAt     *time.Time            `json:"startedAt,omitempty"`
	FinishedAt    *time.Time            `json:"finishedAt,omitempty"`
	Config        campaign.PolicyConfig `json:"config"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// FromDomainCampaign converts a domain campaign into its DTO.
func FromDomainCampaign(c *campaign.Campaign) CampaignDTO {
	return CampaignDTO{
		ID:            c.ID.String(),
		OwnerID:       c.OwnerID.String(),
		Name:          c.Name,
		Status:        string(c.Status),
		TotalMessages: c.TotalMessages,
		SentMessages:  c.SentMessages,
		ExecutionTime: c.ExecutionTime,
		ScheduledAt:   c.ScheduledAt,
		StartedAt:     c.StartedAt,
		FinishedAt:    c.FinishedAt,
		Config:        c.Config,
		CreatedAt:     c.CreatedAt,
	}
}

type CampaignResponse struct {
	Success   bool        `json:"success"`
	Data      CampaignDTO `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ConflictPayload reports an admission-time calendar collision together
// with the earliest conflict-free start.
type ConflictPayload struct {
	CampaignID    string    `json:"campaignId"`
	CampaignName  string    `json:"campaignName"`
	SuggestedTime time.Time `json:"suggestedTime"`
}

type ConflictResponse struct {
	Success   bool            `json:"success"`
	Data      ConflictPayload `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// MessageDTO is the public-facing representation of a message row.
type MessageDTO struct {
	ID           string     `json:"id"`
	CampaignID   string     `json:"campaignId"`
	RecipientID  string     `json:"recipientId"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// FromDomainMessages converts domain messages into DTOs for HTTP responses.
func FromDomainMessages(msgs []*message.Message) []MessageDTO {
	out := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = MessageDTO{
			ID:           m.ID.String(),
			CampaignID:   m.CampaignID.String(),
			RecipientID:  m.RecipientID.String(),
			Status:       string(m.Status),
			ErrorMessage: m.ErrorMessage,
			SentAt:       m.SentAt,
			CreatedAt:    m.CreatedAt,
		}
	}
	return out
}

type MessagesPayload struct {
	Items []MessageDTO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

type MessagesResponse struct {
	Success   bool            `json:"success"`
	Data      MessagesPayload `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// PreviewPayload is the expected-value schedule for a candidate policy.
type PreviewPayload struct {
	PlannedAt []time.Time `json:"plannedAt"`
}

type PreviewResponse struct {
	Success   bool           `json:"success"`
	Data      PreviewPayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// RetryPayload reports whether a retry command actually reset the message.
type RetryPayload struct {
	Reset bool `json:"reset"`
}

type RetryResponse struct {
	Success   bool         `json:"success"`
	Data      RetryPayload `json:"data"`
	Timestamp string       `json:"timestamp"`
}
