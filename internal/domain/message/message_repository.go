package message

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for message rows.
//
// Claim and Retry are compare-and-swap updates on (id, status): under
// concurrent workers exactly one caller wins each transition.
type Repository interface {
	// SaveBatch persists the recipient rows and their waiting messages
	// created at campaign admission.
	SaveBatch(ctx context.Context, recipients []*Recipient, msgs []*Message) error

	// Claim atomically moves one waiting message of the campaign to
	// "sending", stamping a provisional sentAt, and returns it joined
	// with its recipient. Returns (nil, nil) when no waiting row exists.
	Claim(ctx context.Context, campaignID uuid.UUID, at time.Time) (*Claimed, error)

	// MarkSent commits a successful send: status=sent, sentAt overwritten
	// with the commit instant, errorMessage cleared.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkFailed commits a failed send: status=failed, the claim-time
	// sentAt is kept, errorMessage recorded.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Retry moves a failed message back to waiting, clearing errorMessage
	// and sentAt. Reports false when the message was not in "failed".
	Retry(ctx context.Context, id uuid.UUID) (bool, error)

	// CountByStatus counts the campaign's messages in any of the given states.
	CountByStatus(ctx context.Context, campaignID uuid.UUID, statuses ...Status) (int64, error)

	// LastSentAt returns the campaign's most recent non-null sentAt, or
	// nil when nothing has been claimed or sent yet.
	LastSentAt(ctx context.Context, campaignID uuid.UUID) (*time.Time, error)

	// ReleaseStale sweeps "sending" rows whose claim is older than the
	// given instant back to "waiting", so a crashed worker's claims are
	// eventually re-dispatched. Returns the number of rows released.
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)

	// ListByCampaign returns a page of the campaign's messages, optionally
	// filtered by status, oldest first, with the total row count.
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, status Status, page, limit int) ([]*Message, int64, error)
}
