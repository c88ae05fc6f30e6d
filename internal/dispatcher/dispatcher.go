// Package dispatcher implements the time-bounded campaign worker. Each
// invocation scans eligible campaigns (or a single targeted one), enforces
// pacing, claims one message at a time via the store's compare-and-swap,
// calls the send endpoint and commits the outcome. The worker is stateless
// across invocations: progress lives entirely in the store, so a run cut
// short by the budget resumes where the rows say it left off.
package dispatcher

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/cache"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/pacing"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/sender"
)

const (
	// DefaultBudget is the wall-clock limit of one invocation. It sits
	// below the external trigger cadence so overlapping runs stay rare.
	DefaultBudget = 55 * time.Second

	// DefaultStaleClaimAfter is how old a "sending" claim must be before
	// the janitor sweep releases it back to "waiting".
	DefaultStaleClaimAfter = 10 * time.Minute
)

// Invocation result statuses reported back to the trigger.
const (
	ResultContinued         = "continued"
	ResultFinished          = "finished"
	ResultPausedTemporarily = "paused_temporarily"
)

// Result summarizes what one invocation did to one campaign.
type Result struct {
	ID           string `json:"id"`
	MessagesSent int    `json:"messagesSent"`
	Status       string `json:"status"`
}

// Dispatcher is the worker entry point.
type Dispatcher struct {
	campaigns campaign.Repository
	messages  message.Repository
	client    sender.Client
	cache     cache.Cache
	loc       *time.Location

	budget     time.Duration
	staleAfter time.Duration

	// Seams for tests; production uses the real clock and math/rand.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	intn  func(n int) int
}

// New wires a dispatcher. cache may be nil; the per-campaign lease is then
// skipped and correctness rests on the claim CAS alone.
func New(
	campaigns campaign.Repository,
	messages message.Repository,
	client sender.Client,
	c cache.Cache,
	loc *time.Location,
	budget time.Duration,
	staleAfter time.Duration,
) *Dispatcher {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleClaimAfter
	}

	return &Dispatcher{
		campaigns:  campaigns,
		messages:   messages,
		client:     client,
		cache:      c,
		loc:        loc,
		budget:     budget,
		staleAfter: staleAfter,
		now:        time.Now,
		sleep:      sleepCtx,
		intn:       pacing.RandIntn,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep runs a full scan. It satisfies the scheduler's Runner interface.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	d.Run(ctx, uuid.Nil)
	return nil
}

// Run executes one invocation. A non-nil targetID restricts the run to that
// campaign and skips the scheduledAt eligibility filter.
func (d *Dispatcher) Run(ctx context.Context, targetID uuid.UUID) []Result {
	invStart := d.now()
	deadline := invStart.Add(d.budget)

	// Janitor: claims abandoned by a dead worker become dispatchable again.
	if released, err := d.messages.ReleaseStale(ctx, invStart.Add(-d.staleAfter)); err != nil {
		log.Printf("[Dispatcher] Stale claim sweep failed: %v", err)
	} else if released > 0 {
		log.Printf("[Dispatcher] Released %d stale claims back to waiting", released)
	}

	campaigns, err := d.loadCampaigns(ctx, targetID, invStart)
	if err != nil {
		log.Printf("[Dispatcher] Failed to load campaigns: %v", err)
		return nil
	}

	results := make([]Result, 0, len(campaigns))

	for _, c := range campaigns {
		if d.now().After(deadline) {
			break
		}

		res := d.runCampaign(ctx, c, invStart, deadline)
		results = append(results, res)
	}

	return results
}

func (d *Dispatcher) loadCampaigns(ctx context.Context, targetID uuid.UUID, now time.Time) ([]*campaign.Campaign, error) {
	if targetID == uuid.Nil {
		return d.campaigns.ListEligible(ctx, now)
	}

	c, err := d.campaigns.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() || c.Status == campaign.StatusPaused {
		return nil, nil
	}

	return []*campaign.Campaign{c}, nil
}

// runCampaign advances one campaign until it finishes, a pause gate holds,
// an operator command lands, or the budget runs out. Store read failures
// abandon the campaign for this invocation only.
func (d *Dispatcher) runCampaign(ctx context.Context, c *campaign.Campaign, invStart, deadline time.Time) Result {
	res := Result{ID: c.ID.String(), Status: ResultContinued}

	// One worker per campaign at a time keeps pacing strict. The lease is
	// best-effort: without redis the claim CAS still rules out duplicates.
	unlock, ok := d.acquireLease(ctx, c.ID)
	if !ok {
		return res
	}
	defer unlock()

	now := d.now()

	if c.Status.NotStarted() || c.Status == campaign.StatusActive {
		if err := d.campaigns.MarkStarted(ctx, c.ID, now); err != nil {
			log.Printf("[Dispatcher] Failed to start campaign %s: %v", c.ID, err)
			return res
		}
		if c.StartedAt == nil {
			c.StartedAt = &now
		}
		c.Status = campaign.StatusProcessing
	}

	// Pause gates, in order: the one-shot automatic pause, then business
	// hours. Neither persists a status change; both are re-evaluated on
	// the next invocation.
	if pacing.OneShotHolds(c.Config, now, c.StartInstant(), d.loc) {
		log.Printf("[Dispatcher] Campaign %s held by automatic pause until %s",
			c.ID, c.Config.AutoPause.ResumeAt.Format(time.RFC3339))
		res.Status = ResultPausedTemporarily
		return res
	}
	if !pacing.InBusinessWindow(c.Config, now, d.loc) {
		log.Printf("[Dispatcher] Campaign %s outside business hours", c.ID)
		res.Status = ResultPausedTemporarily
		return res
	}

	if finished, err := d.finalizeIfComplete(ctx, c); err != nil {
		log.Printf("[Dispatcher] Completion check failed for %s: %v", c.ID, err)
		return res
	} else if finished {
		res.Status = ResultFinished
		return res
	}

	res = d.sendLoop(ctx, c, invStart, deadline, res)

	if res.Status != ResultFinished {
		d.recordProgress(ctx, c)
	}

	return res
}

// sendLoop is the serial claim-send-commit loop for one campaign.
func (d *Dispatcher) sendLoop(ctx context.Context, c *campaign.Campaign, invStart, deadline time.Time, res Result) Result {
	sentSoFar := c.SentMessages

	for {
		if d.now().After(deadline) || ctx.Err() != nil {
			return res
		}

		// Operator commands take effect no later than the next claim.
		status, err := d.campaigns.GetStatus(ctx, c.ID)
		if err != nil {
			log.Printf("[Dispatcher] Status re-read failed for %s: %v", c.ID, err)
			return res
		}
		if status == campaign.StatusPaused {
			log.Printf("[Dispatcher] Campaign %s paused by operator", c.ID)
			res.Status = ResultPausedTemporarily
			return res
		}
		if status.Terminal() {
			log.Printf("[Dispatcher] Campaign %s is %s, stopping", c.ID, status)
			return res
		}

		lastSentAt, err := d.messages.LastSentAt(ctx, c.ID)
		if err != nil {
			log.Printf("[Dispatcher] Last-sent read failed for %s: %v", c.ID, err)
			return res
		}

		// The first message goes out immediately; after that the pacing
		// delay is measured from the previous sentAt, so time already
		// spent in earlier invocations counts.
		var waitFor time.Duration
		if lastSentAt != nil {
			required := pacing.SampleDelay(c.Config, sentSoFar, d.intn)
			waitFor = required - d.now().Sub(*lastSentAt)
		}

		if waitFor > 0 {
			if d.now().Add(waitFor).After(deadline) {
				// The next slot falls past the budget; the next
				// invocation picks it up.
				return res
			}
			if err := d.sleep(ctx, waitFor); err != nil {
				return res
			}
		}

		claimed, err := d.messages.Claim(ctx, c.ID, d.now())
		if err != nil {
			log.Printf("[Dispatcher] Claim failed for %s: %v", c.ID, err)
			return res
		}
		if claimed == nil {
			finished, err := d.finalizeIfComplete(ctx, c)
			if err != nil {
				log.Printf("[Dispatcher] Completion check failed for %s: %v", c.ID, err)
				return res
			}
			if finished {
				res.Status = ResultFinished
			}
			return res
		}

		if d.deliver(ctx, c, claimed) {
			sentSoFar++
			res.MessagesSent++
		}
	}
}

// deliver sends one claimed message and commits the outcome. Reports
// whether the send was confirmed.
func (d *Dispatcher) deliver(ctx context.Context, c *campaign.Campaign, claimed *message.Claimed) bool {
	rec := claimed.Recipient
	id := claimed.Message.ID

	err := d.client.Send(ctx, rec.Name, rec.Phone, rec.Body)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, sender.ErrTimeout) {
			reason = "timeout"
		}
		log.Printf("[Dispatcher] Send failed for message %s: %v", id, err)

		// Best-effort: a failed terminal write leaves the row in
		// "sending"; the janitor releases it on a later invocation.
		if uErr := d.messages.MarkFailed(ctx, id, reason); uErr != nil {
			log.Printf("[Dispatcher] Failed to persist FAILED status for %s: %v", id, uErr)
		}
		return false
	}

	sentAt := d.now()
	if err := d.messages.MarkSent(ctx, id, sentAt); err != nil {
		log.Printf("[Dispatcher] Failed to persist SENT status for %s: %v", id, err)
		return false
	}
	if err := d.campaigns.IncrementSent(ctx, c.ID); err != nil {
		log.Printf("[Dispatcher] Failed to increment counter for %s: %v", c.ID, err)
	}

	if d.cache != nil {
		key := cache.SentReceipt.Key(id.String())
		if err := d.cache.Set(ctx, key, sentAt.Format(time.RFC3339), 24*time.Hour); err != nil {
			log.Printf("[Dispatcher] Failed to cache receipt for %s: %v", id, err)
		}
	}

	return true
}

// finalizeIfComplete finishes the campaign when no work remains, reconciling
// the sent counter against the actual row count.
func (d *Dispatcher) finalizeIfComplete(ctx context.Context, c *campaign.Campaign) (bool, error) {
	remaining, err := d.messages.CountByStatus(ctx, c.ID,
		message.StatusWaiting, message.StatusSending)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	sent, err := d.messages.CountByStatus(ctx, c.ID, message.StatusSent)
	if err != nil {
		return false, err
	}

	now := d.now()
	execSecs := int64(0)
	if c.StartedAt != nil {
		execSecs = int64(now.Sub(*c.StartedAt).Seconds())
	}

	if err := d.campaigns.Finalize(ctx, c.ID, campaign.StatusFinished, int(sent), now, execSecs); err != nil {
		return false, err
	}

	log.Printf("[Dispatcher] Campaign %s finished (%d sent of %d)", c.ID, sent, c.TotalMessages)
	return true, nil
}

func (d *Dispatcher) recordProgress(ctx context.Context, c *campaign.Campaign) {
	if c.StartedAt == nil {
		return
	}
	execSecs := int64(d.now().Sub(*c.StartedAt).Seconds())
	if err := d.campaigns.UpdateProgress(ctx, c.ID, execSecs); err != nil {
		log.Printf("[Dispatcher] Failed to record progress for %s: %v", c.ID, err)
	}
}

// acquireLease takes the per-campaign dispatch lease. The returned unlock
// is a no-op when no cache is configured or the lease write failed.
func (d *Dispatcher) acquireLease(ctx context.Context, id uuid.UUID) (func(), bool) {
	noop := func() {}

	if d.cache == nil {
		return noop, true
	}

	key := cache.DispatchLock.Key(id.String())
	ok, err := d.cache.SetNX(ctx, key, "1", d.budget+5*time.Second)
	if err != nil {
		// Redis being down must not stop dispatching.
		log.Printf("[Dispatcher] Lease acquire failed for %s: %v", id, err)
		return noop, true
	}
	if !ok {
		log.Printf("[Dispatcher] Campaign %s already leased by another worker", id)
		return noop, false
	}

	return func() {
		if err := d.cache.Del(context.WithoutCancel(ctx), key); err != nil {
			log.Printf("[Dispatcher] Lease release failed for %s: %v", id, err)
		}
	}, true
}
