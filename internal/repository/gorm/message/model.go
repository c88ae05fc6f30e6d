package messagegorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageModel is the GORM persistence model for message rows.
// It maps directly to the "messages" table in Postgres.
type MessageModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CampaignID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	RecipientID  uuid.UUID  `gorm:"type:uuid;not null"`
	Status       string     `gorm:"size:20;not null;index"`
	ErrorMessage string     `gorm:"size:500"`
	SentAt       *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"not null;index"`
	UpdatedAt    time.Time
}

// TableName overrides the default table name used by GORM.
func (MessageModel) TableName() string {
	return "messages"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *MessageModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecipientModel is the GORM persistence model for recipients. Rows are
// read-only after admission.
type RecipientModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:100"`
	Phone      string    `gorm:"size:20;not null"`
	Body       string    `gorm:"type:text;not null"`
}

// TableName overrides the default table name used by GORM.
func (RecipientModel) TableName() string {
	return "recipients"
}
