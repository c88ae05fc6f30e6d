package campaigngorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/db"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
)

// Repository is a GORM-backed implementation of the campaign.Repository interface.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a campaign repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{
		db: d.Conn().(*gorm.DB),
	}
}

// eligibleStatuses are the states a dispatcher may pick up.
var eligibleStatuses = []string{
	string(campaign.StatusScheduled),
	string(campaign.StatusPending),
	string(campaign.StatusProcessing),
	string(campaign.StatusActive),
}

// Save inserts a new campaign record into the database.
func (r *Repository) Save(ctx context.Context, c *campaign.Campaign) error {
	model, err := fromDomain(c)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// GetByID loads a single campaign row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var model CampaignModel

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, err
	}

	return toDomain(&model)
}

// GetStatus reads only the status column for a campaign.
func (r *Repository) GetStatus(ctx context.Context, id uuid.UUID) (campaign.Status, error) {
	var status string

	err := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Select("status").
		Where("id = ?", id).
		Scan(&status).Error
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", gorm.ErrRecordNotFound
	}

	return campaign.Status(status), nil
}

// ListEligible returns campaigns a dispatcher may advance, oldest schedule first.
func (r *Repository) ListEligible(ctx context.Context, now time.Time) ([]*campaign.Campaign, error) {
	var models []CampaignModel

	err := r.db.WithContext(ctx).
		Where("status IN ? AND scheduled_at <= ?", eligibleStatuses, now).
		Order("scheduled_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return toDomainMany(models)
}

// ListByOwnerOpen returns the owner's non-terminal campaigns for the
// admission planner's overlap check.
func (r *Repository) ListByOwnerOpen(ctx context.Context, owner uuid.UUID) ([]*campaign.Campaign, error) {
	var models []CampaignModel

	open := append(append([]string{}, eligibleStatuses...), string(campaign.StatusPaused))

	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status IN ?", owner, open).
		Order("scheduled_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return toDomainMany(models)
}

// UpdateStatus unconditionally writes the campaign status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status campaign.Status) error {
	return r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

// MarkStarted coerces the campaign to processing, stamping startedAt only
// on the first dispatcher entry.
func (r *Repository) MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Update("status", string(campaign.StatusProcessing)).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND started_at IS NULL", id).
		Update("started_at", startedAt).Error
}

// Finalize writes the terminal bookkeeping for a campaign in one update.
func (r *Repository) Finalize(ctx context.Context, id uuid.UUID, status campaign.Status, sent int, finishedAt time.Time, executionSecs int64) error {
	updates := map[string]interface{}{
		"status":         string(status),
		"sent_messages":  sent,
		"finished_at":    finishedAt,
		"execution_time": executionSecs,
	}

	return r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateProgress records accumulated execution time for an in-flight campaign.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, executionSecs int64) error {
	return r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Update("execution_time", executionSecs).Error
}

// IncrementSent bumps sentMessages by one, atomic under concurrent workers.
func (r *Repository) IncrementSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		UpdateColumn("sent_messages", gorm.Expr("sent_messages + ?", 1)).Error
}

// compile-time interface check
var _ campaign.Repository = (*Repository)(nil)
