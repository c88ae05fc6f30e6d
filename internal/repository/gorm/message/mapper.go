package messagegorm

import (
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
)

// toDomain maps a GORM MessageModel to a domain-level Message.
func toDomain(m *MessageModel) *message.Message {
	return &message.Message{
		ID:           m.ID,
		CampaignID:   m.CampaignID,
		RecipientID:  m.RecipientID,
		Status:       message.Status(m.Status),
		ErrorMessage: m.ErrorMessage,
		SentAt:       m.SentAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// toDomainMany maps a slice of MessageModel to a slice of domain Messages.
func toDomainMany(models []MessageModel) []*message.Message {
	out := make([]*message.Message, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out
}

// fromDomain maps a domain-level Message to a GORM MessageModel.
func fromDomain(d *message.Message) *MessageModel {
	return &MessageModel{
		ID:           d.ID,
		CampaignID:   d.CampaignID,
		RecipientID:  d.RecipientID,
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		SentAt:       d.SentAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// recipientToDomain maps a GORM RecipientModel to a domain Recipient.
func recipientToDomain(m *RecipientModel) *message.Recipient {
	return &message.Recipient{
		ID:         m.ID,
		CampaignID: m.CampaignID,
		Name:       m.Name,
		Phone:      m.Phone,
		Body:       m.Body,
	}
}

// recipientFromDomain maps a domain Recipient to a GORM RecipientModel.
func recipientFromDomain(d *message.Recipient) *RecipientModel {
	return &RecipientModel{
		ID:         d.ID,
		CampaignID: d.CampaignID,
		Name:       d.Name,
		Phone:      d.Phone,
		Body:       d.Body,
	}
}
