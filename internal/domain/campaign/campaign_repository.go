package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for Campaign aggregates.
//
// It is implemented by infrastructure layers (e.g. GORM) while the service,
// planner and dispatcher layers depend only on this interface.
type Repository interface {
	// Save persists a new campaign.
	Save(ctx context.Context, c *Campaign) error

	// GetByID loads a full campaign row.
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)

	// GetStatus atomically reads the current status. The dispatcher calls
	// this between sends so operator commands take effect promptly.
	GetStatus(ctx context.Context, id uuid.UUID) (Status, error)

	// ListEligible returns campaigns a dispatcher may advance: status in
	// {scheduled, pending, processing, active} with scheduledAt <= now.
	ListEligible(ctx context.Context, now time.Time) ([]*Campaign, error)

	// ListByOwnerOpen returns the owner's non-terminal campaigns, used by
	// the admission planner for overlap checks.
	ListByOwnerOpen(ctx context.Context, owner uuid.UUID) ([]*Campaign, error)

	// UpdateStatus unconditionally writes the campaign status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// MarkStarted coerces the campaign to processing and sets startedAt
	// if it has not been set before.
	MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error

	// Finalize writes the terminal bookkeeping in one update: the
	// reconciled sent counter, finishedAt, executionTime and status.
	Finalize(ctx context.Context, id uuid.UUID, status Status, sent int, finishedAt time.Time, executionSecs int64) error

	// UpdateProgress records accumulated execution time for a campaign
	// that is still in flight.
	UpdateProgress(ctx context.Context, id uuid.UUID, executionSecs int64) error

	// IncrementSent adds one to sentMessages, atomic with respect to
	// concurrent increments.
	IncrementSent(ctx context.Context, id uuid.UUID) error
}
