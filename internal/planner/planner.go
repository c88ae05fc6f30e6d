// Package planner decides at admission time whether a candidate campaign's
// planned window collides with the owner's existing campaigns.
package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/pacing"
)

const (
	// DefaultBuffer is the separation kept between two campaign windows.
	DefaultBuffer = time.Hour
	// SuggestionSlack is added on top of the buffer when proposing a
	// replacement start after the conflicting campaign ends.
	SuggestionSlack = 5 * time.Minute
)

// Candidate is the campaign being admitted.
type Candidate struct {
	Config  campaign.PolicyConfig
	StartAt time.Time
	Count   int
}

// Conflict names the first colliding campaign and proposes the earliest
// conflict-free start.
type Conflict struct {
	CampaignID  uuid.UUID
	Name        string
	SuggestedAt time.Time
}

// Planner checks candidate windows against existing ones using the shared
// pacing calculator, so the window it reasons about is the same schedule
// the dispatcher will realize.
type Planner struct {
	buffer time.Duration
	loc    *time.Location
}

// New creates a planner. A non-positive buffer falls back to DefaultBuffer.
func New(buffer time.Duration, loc *time.Location) *Planner {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Planner{buffer: buffer, loc: loc}
}

// Check returns the first conflict between the candidate and the owner's
// existing campaigns, or nil when the candidate window is clear.
func (p *Planner) Check(cand Candidate, existing []*campaign.Campaign) *Conflict {
	candStart := cand.StartAt
	candEnd := pacing.End(cand.Config, cand.StartAt, cand.Count, p.loc)

	for _, c := range existing {
		exStart := c.StartInstant()
		exEnd := pacing.End(c.Config, exStart, c.TotalMessages, p.loc)

		if candEnd.After(exStart.Add(-p.buffer)) && candStart.Before(exEnd.Add(p.buffer)) {
			return &Conflict{
				CampaignID:  c.ID,
				Name:        c.Name,
				SuggestedAt: exEnd.Add(p.buffer + SuggestionSlack),
			}
		}
	}

	return nil
}
