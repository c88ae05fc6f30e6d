package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/pacing"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/planner"
)

var (
	// ErrNoRecipients is returned when a campaign is created without rows.
	// A zero-recipient campaign is still admitted; this error is reserved
	// for a nil recipient list (malformed request).
	ErrNoRecipients = errors.New("recipient list is required")
	// ErrTerminalCampaign is returned when a command targets a campaign
	// that already reached an end state.
	ErrTerminalCampaign = errors.New("campaign is in a terminal state")
)

// RecipientInput is one row of the operator-supplied recipient list.
type RecipientInput struct {
	Name  string
	Phone string
	Body  string
}

// CreateInput carries everything needed to admit a new campaign.
type CreateInput struct {
	OwnerID     uuid.UUID
	Name        string
	Config      campaign.PolicyConfig
	ScheduledAt time.Time
	Recipients  []RecipientInput
}

// CampaignService is the operator command surface. All state it mutates is
// re-read by the dispatcher between sends, so commands take effect within
// one message in the worst case.
type CampaignService interface {
	Create(ctx context.Context, in CreateInput) (*campaign.Campaign, *planner.Conflict, error)
	Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
	Messages(ctx context.Context, id uuid.UUID, status message.Status, page, limit int) ([]*message.Message, int64, error)
	Preview(cfg campaign.PolicyConfig, startAt time.Time, n int) []time.Time
	Pause(ctx context.Context, id uuid.UUID) error
	Resume(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	RetryMessage(ctx context.Context, id uuid.UUID) (bool, error)
}

// Kicker schedules an immediate dispatcher run for a freshly created
// campaign. Wired to the dispatcher in main; nil disables the kick.
type Kicker func(campaignID uuid.UUID)

type campaignService struct {
	campaigns campaign.Repository
	messages  message.Repository
	planner   *planner.Planner
	loc       *time.Location
	kick      Kicker
	now       func() time.Time
}

// NewCampaignService creates the command service with its dependencies.
func NewCampaignService(
	campaigns campaign.Repository,
	messages message.Repository,
	pln *planner.Planner,
	loc *time.Location,
	kick Kicker,
) CampaignService {
	return &campaignService{
		campaigns: campaigns,
		messages:  messages,
		planner:   pln,
		loc:       loc,
		kick:      kick,
		now:       time.Now,
	}
}

// Create validates the policy, checks the owner's calendar for overlaps and
// persists the campaign with its recipient and message rows. On a calendar
// conflict nothing is persisted and the conflict is returned instead.
func (s *campaignService) Create(ctx context.Context, in CreateInput) (*campaign.Campaign, *planner.Conflict, error) {
	if in.Recipients == nil {
		return nil, nil, ErrNoRecipients
	}

	now := s.now()
	c, err := campaign.New(in.OwnerID, in.Name, in.Config, in.ScheduledAt, now, len(in.Recipients))
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.campaigns.ListByOwnerOpen(ctx, in.OwnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load owner campaigns: %w", err)
	}

	if conflict := s.planner.Check(planner.Candidate{
		Config:  c.Config,
		StartAt: c.ScheduledAt,
		Count:   c.TotalMessages,
	}, existing); conflict != nil {
		return nil, conflict, nil
	}

	recipients := make([]*message.Recipient, 0, len(in.Recipients))
	msgs := make([]*message.Message, 0, len(in.Recipients))
	for _, r := range in.Recipients {
		rec, err := message.NewRecipient(c.ID, r.Name, r.Phone, r.Body)
		if err != nil {
			return nil, nil, err
		}
		recipients = append(recipients, rec)
		msgs = append(msgs, message.NewMessage(c.ID, rec.ID, now))
	}

	if err := s.campaigns.Save(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("failed to save campaign: %w", err)
	}
	if err := s.messages.SaveBatch(ctx, recipients, msgs); err != nil {
		return nil, nil, fmt.Errorf("failed to save campaign rows: %w", err)
	}

	log.Printf("[Service] Campaign %s created (%d recipients, starts %s)",
		c.ID, c.TotalMessages, c.ScheduledAt.Format(time.RFC3339))

	if s.kick != nil {
		s.kick(c.ID)
	}

	return c, nil, nil
}

func (s *campaignService) Get(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

func (s *campaignService) Messages(ctx context.Context, id uuid.UUID, status message.Status, page, limit int) ([]*message.Message, int64, error) {
	return s.messages.ListByCampaign(ctx, id, status, page, limit)
}

// Preview returns the expected-value schedule for a candidate policy. It is
// the same calculation the admission planner and the dispatcher agree on.
func (s *campaignService) Preview(cfg campaign.PolicyConfig, startAt time.Time, n int) []time.Time {
	return pacing.Plan(cfg, startAt, n, s.loc)
}

// Pause holds the campaign. Idempotent: pausing a paused campaign succeeds.
func (s *campaignService) Pause(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, campaign.StatusPaused, campaign.StatusPaused)
}

// Resume reactivates a paused campaign. Idempotent on running campaigns.
func (s *campaignService) Resume(ctx context.Context, id uuid.UUID) error {
	status, err := s.campaigns.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	// Already running (or never paused): nothing to do.
	if status.Running() || status.NotStarted() {
		return nil
	}
	if !campaign.CanTransition(status, campaign.StatusActive) {
		return campaign.ErrIllegalTransition
	}
	return s.campaigns.UpdateStatus(ctx, id, campaign.StatusActive)
}

// Cancel terminates the campaign. Idempotent: cancelling twice succeeds.
func (s *campaignService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, campaign.StatusCanceled, campaign.StatusCanceled)
}

// transition applies a status change, treating alreadyAt as idempotent
// success and terminal states as errors.
func (s *campaignService) transition(ctx context.Context, id uuid.UUID, to, alreadyAt campaign.Status) error {
	status, err := s.campaigns.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if status == alreadyAt {
		return nil
	}
	if status.Terminal() {
		return ErrTerminalCampaign
	}
	if !campaign.CanTransition(status, to) {
		return campaign.ErrIllegalTransition
	}
	return s.campaigns.UpdateStatus(ctx, id, to)
}

// RetryMessage resets a failed message to waiting. Reports false when the
// message was not in "failed" (the command is then a no-op).
func (s *campaignService) RetryMessage(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.messages.Retry(ctx, id)
}
