package messagegorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/db"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
)

// claimAttempts bounds how often a single Claim call retries after losing
// the compare-and-swap race to another worker.
const claimAttempts = 3

// Repository is a GORM-backed implementation of the message.Repository interface.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a message repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{
		db: d.Conn().(*gorm.DB),
	}
}

// SaveBatch persists the recipients and waiting messages of a new campaign
// in a single transaction, in chunks.
func (r *Repository) SaveBatch(ctx context.Context, recipients []*message.Recipient, msgs []*message.Message) error {
	recipientModels := make([]RecipientModel, len(recipients))
	for i, rec := range recipients {
		recipientModels[i] = *recipientFromDomain(rec)
	}

	messageModels := make([]MessageModel, len(msgs))
	for i, m := range msgs {
		messageModels[i] = *fromDomain(m)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(recipientModels) > 0 {
			if err := tx.CreateInBatches(recipientModels, 500).Error; err != nil {
				return err
			}
		}
		if len(messageModels) > 0 {
			if err := tx.CreateInBatches(messageModels, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Claim reserves one waiting message of the campaign for this worker.
//
// The reservation is a conditional UPDATE on (id, status): the row is first
// located, then flipped waiting -> sending only if its status is still
// "waiting". RowsAffected == 0 means another worker won the race, in which
// case the next waiting row is tried.
func (r *Repository) Claim(ctx context.Context, campaignID uuid.UUID, at time.Time) (*message.Claimed, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		var model MessageModel

		err := r.db.WithContext(ctx).
			Where("campaign_id = ? AND status = ?", campaignID, message.StatusWaiting).
			Order("created_at ASC").
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		res := r.db.WithContext(ctx).
			Model(&MessageModel{}).
			Where("id = ? AND status = ?", model.ID, message.StatusWaiting).
			Updates(map[string]interface{}{
				"status":  string(message.StatusSending),
				"sent_at": at,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; poll for another waiting row.
			continue
		}

		var recipient RecipientModel
		if err := r.db.WithContext(ctx).
			Where("id = ?", model.RecipientID).
			First(&recipient).Error; err != nil {
			return nil, err
		}

		model.Status = string(message.StatusSending)
		model.SentAt = &at

		return &message.Claimed{
			Message:   *toDomain(&model),
			Recipient: *recipientToDomain(&recipient),
		}, nil
	}

	return nil, nil
}

// MarkSent commits a successful send.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(message.StatusSent),
			"sent_at":       at,
			"error_message": "",
		}).Error
}

// MarkFailed commits a failed send, keeping the claim-time sent_at.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(message.StatusFailed),
			"error_message": message.TruncateError(errMsg),
		}).Error
}

// Retry moves a failed message back to waiting via compare-and-swap.
func (r *Repository) Retry(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ? AND status = ?", id, message.StatusFailed).
		Updates(map[string]interface{}{
			"status":        string(message.StatusWaiting),
			"error_message": "",
			"sent_at":       nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByStatus counts the campaign's messages in any of the given states.
func (r *Repository) CountByStatus(ctx context.Context, campaignID uuid.UUID, statuses ...message.Status) (int64, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("campaign_id = ? AND status IN ?", campaignID, raw).
		Count(&count).Error

	return count, err
}

// LastSentAt returns the campaign's most recent non-null sent_at.
func (r *Repository) LastSentAt(ctx context.Context, campaignID uuid.UUID) (*time.Time, error) {
	var model MessageModel

	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND sent_at IS NOT NULL", campaignID).
		Order("sent_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return model.SentAt, nil
}

// ReleaseStale sweeps sending rows claimed before the given instant back to
// waiting so a crashed worker's claims are re-dispatched.
func (r *Repository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("status = ? AND sent_at < ?", message.StatusSending, before).
		Updates(map[string]interface{}{
			"status":  string(message.StatusWaiting),
			"sent_at": nil,
		})

	return res.RowsAffected, res.Error
}

// ListByCampaign returns a page of the campaign's messages and the total count.
func (r *Repository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, status message.Status, page, limit int) ([]*message.Message, int64, error) {
	var models []MessageModel
	var total int64

	query := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("campaign_id = ?", campaignID)

	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	return toDomainMany(models), total, nil
}

// compile-time interface check
var _ message.Repository = (*Repository)(nil)
