package campaigngorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignModel is the GORM persistence model for campaigns.
// It maps directly to the "campaigns" table in Postgres.
type CampaignModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name          string     `gorm:"size:120;not null"`
	Status        string     `gorm:"size:20;not null;index"`
	TotalMessages int        `gorm:"not null"`
	SentMessages  int        `gorm:"not null;default:0"`
	ExecutionTime int64      `gorm:"not null;default:0"`
	ScheduledAt   time.Time  `gorm:"not null;index"`
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Config        string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

// TableName overrides the default table name used by GORM.
func (CampaignModel) TableName() string {
	return "campaigns"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *CampaignModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
