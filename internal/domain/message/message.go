// Package message holds the per-recipient unit of work for a campaign.
package message

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxErrorLength caps the persisted error text for a failed send.
	MaxErrorLength = 500
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

var (
	// ErrEmptyPhone is returned when a recipient has no phone number.
	ErrEmptyPhone = errors.New("recipient phone number is required")
	// ErrEmptyBody is returned when the message body is empty.
	ErrEmptyBody = errors.New("message body is required")
)

// Recipient is the read-only target of one message.
type Recipient struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	Name       string
	Phone      string
	Body       string
}

// NewRecipient validates and constructs a recipient row.
func NewRecipient(campaignID uuid.UUID, name, phone, body string) (*Recipient, error) {
	phone = strings.TrimSpace(phone)
	body = strings.TrimSpace(body)

	if phone == "" {
		return nil, ErrEmptyPhone
	}
	if body == "" {
		return nil, ErrEmptyBody
	}

	return &Recipient{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       strings.TrimSpace(name),
		Phone:      phone,
		Body:       body,
	}, nil
}

// Message is the smallest claim/commit unit. It is created in "waiting" and
// ends in "sent" or "failed"; a retry command may move "failed" back to
// "waiting".
type Message struct {
	ID           uuid.UUID
	CampaignID   uuid.UUID
	RecipientID  uuid.UUID
	Status       Status
	ErrorMessage string
	SentAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMessage constructs a waiting message for the given recipient.
func NewMessage(campaignID, recipientID uuid.UUID, now time.Time) *Message {
	return &Message{
		ID:          uuid.New(),
		CampaignID:  campaignID,
		RecipientID: recipientID,
		Status:      StatusWaiting,
		CreatedAt:   now,
	}
}

// TruncateError trims provider error text to the persistable length.
func TruncateError(s string) string {
	if len(s) > MaxErrorLength {
		return s[:MaxErrorLength]
	}
	return s
}

// Claimed is a claimed message joined with its recipient, as returned by
// the store's compare-and-swap claim.
type Claimed struct {
	Message   Message
	Recipient Recipient
}
