// Package campaign holds the domain model and invariants for message campaigns.
package campaign

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxNameLength is the maximum allowed length for a campaign name.
	MaxNameLength = 120
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusFinished   Status = "finished"
	StatusCanceled   Status = "canceled"
	StatusFailed     Status = "failed"
)

var (
	// ErrEmptyName is returned when no campaign name is provided.
	ErrEmptyName = errors.New("campaign name is required")
	// ErrNameTooLong is returned when the campaign name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("campaign name exceeds maximum length")
	// ErrNoOwner is returned when the owner id is missing.
	ErrNoOwner = errors.New("campaign owner is required")
	// ErrIllegalTransition is returned for a status change the state machine forbids.
	ErrIllegalTransition = errors.New("illegal campaign status transition")
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCanceled || s == StatusFailed
}

// Running reports whether a dispatcher is (or may be) advancing the campaign.
// "active" is accepted as an alias for "processing".
func (s Status) Running() bool {
	return s == StatusProcessing || s == StatusActive
}

// NotStarted reports whether the campaign has never been picked up by a dispatcher.
func (s Status) NotStarted() bool {
	return s == StatusScheduled || s == StatusPending
}

// CanTransition is the single authority on legal campaign status changes.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusScheduled, StatusPending:
		return to == StatusProcessing || to == StatusCanceled || to == StatusPaused
	case StatusProcessing, StatusActive:
		return to == StatusPaused || to == StatusCanceled || to == StatusFinished || to == StatusFailed
	case StatusPaused:
		return to == StatusActive || to == StatusCanceled
	default:
		// finished, canceled, failed are terminal.
		return false
	}
}

// Campaign is the aggregate root for one outbound send run.
//
// SentMessages is maintained by the store's atomic counter and reconciled
// against the actual sent-row count at finalization. ExecutionTime is the
// number of seconds from StartedAt to the dispatcher's latest progress
// update or finalization; time spent paused is included.
type Campaign struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Name          string
	Status        Status
	TotalMessages int
	SentMessages  int
	ExecutionTime int64
	ScheduledAt   time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Config        PolicyConfig
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New constructs a campaign and enforces the admission-time domain rules.
// A future scheduledAt yields "scheduled", otherwise the campaign is
// immediately eligible as "pending".
func New(owner uuid.UUID, name string, cfg PolicyConfig, scheduledAt, now time.Time, total int) (*Campaign, error) {
	name = strings.TrimSpace(name)

	if owner == uuid.Nil {
		return nil, ErrNoOwner
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	status := StatusPending
	if scheduledAt.After(now) {
		status = StatusScheduled
	} else {
		scheduledAt = now
	}

	return &Campaign{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          name,
		Status:        status,
		TotalMessages: total,
		ScheduledAt:   scheduledAt,
		Config:        cfg,
		CreatedAt:     now,
	}, nil
}

// StartInstant is the reference instant for pacing and day-boundary checks:
// the first dispatcher entry when known, the scheduled start otherwise.
func (c *Campaign) StartInstant() time.Time {
	if c.StartedAt != nil {
		return *c.StartedAt
	}
	return c.ScheduledAt
}
