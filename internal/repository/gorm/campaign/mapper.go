package campaigngorm

import (
	"encoding/json"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
)

// toDomain maps a GORM CampaignModel to a domain-level Campaign. The config
// column holds the loose JSON blob; the domain type's unmarshaller
// normalizes key spellings and backfills defaults.
func toDomain(m *CampaignModel) (*campaign.Campaign, error) {
	var cfg campaign.PolicyConfig
	if err := json.Unmarshal([]byte(m.Config), &cfg); err != nil {
		return nil, err
	}

	return &campaign.Campaign{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Name:          m.Name,
		Status:        campaign.Status(m.Status),
		TotalMessages: m.TotalMessages,
		SentMessages:  m.SentMessages,
		ExecutionTime: m.ExecutionTime,
		ScheduledAt:   m.ScheduledAt,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		Config:        cfg,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

// toDomainMany maps a slice of CampaignModel to domain Campaigns.
func toDomainMany(models []CampaignModel) ([]*campaign.Campaign, error) {
	out := make([]*campaign.Campaign, 0, len(models))
	for i := range models {
		c, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// fromDomain maps a domain-level Campaign to a GORM CampaignModel, storing
// the config in its canonical serialized form.
func fromDomain(d *campaign.Campaign) (*CampaignModel, error) {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return nil, err
	}

	return &CampaignModel{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		Name:          d.Name,
		Status:        string(d.Status),
		TotalMessages: d.TotalMessages,
		SentMessages:  d.SentMessages,
		ExecutionTime: d.ExecutionTime,
		ScheduledAt:   d.ScheduledAt,
		StartedAt:     d.StartedAt,
		FinishedAt:    d.FinishedAt,
		Config:        string(cfg),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}
