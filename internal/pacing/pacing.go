// Package pacing is the single implementation of campaign send timing.
//
// Plan produces the expected-value schedule shown to operators at admission
// time; the dispatcher applies the same skeleton live, with each average
// replaced by a uniform sample from the same inclusive range. All
// arithmetic is in integer seconds.
package pacing

import (
	"math/rand"
	"time"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
)

// Plan computes the n planned send instants for a policy starting at start.
// Clock fields of the policy are interpreted in loc.
func Plan(cfg campaign.PolicyConfig, start time.Time, n int, loc *time.Location) []time.Time {
	if n <= 0 {
		return nil
	}

	cursor := start.In(loc)
	startDay := dayOrdinal(cursor)
	out := make([]time.Time, 0, n)

	for i := 0; i < n; i++ {
		if i > 0 {
			cursor = cursor.Add(time.Duration(cfg.AvgInterval()) * time.Second)

			if cfg.UseBatching && cfg.BatchSize > 0 && i%cfg.BatchSize == 0 {
				cursor = cursor.Add(time.Duration(cfg.AvgBatchPause()) * time.Second)
			}
		}

		// One-shot pause first, then the business-hours re-check. The
		// order matters near midnight.
		if cfg.AutoPause != nil && cursor.Before(cfg.AutoPause.ResumeAt) {
			pT, _ := campaign.MinuteOfDay(cfg.AutoPause.PauseAt)
			if minuteOf(cursor) >= pT || dayOrdinal(cursor) > startDay {
				cursor = cfg.AutoPause.ResumeAt.In(loc)
			}
		}
		cursor = applyBusinessHours(cfg, cursor)

		out = append(out, cursor)
	}

	return out
}

// End returns the planned instant of the last send, or start when the
// campaign has no messages. Used by the admission planner to bound a
// campaign's occupancy window.
func End(cfg campaign.PolicyConfig, start time.Time, n int, loc *time.Location) time.Time {
	plan := Plan(cfg, start, n, loc)
	if len(plan) == 0 {
		return start.In(loc)
	}
	return plan[len(plan)-1]
}

// applyBusinessHours rolls an instant that falls outside the daily sending
// window forward to the next resume time. Inclusive at pauseAt, exclusive
// at resumeAt.
func applyBusinessHours(cfg campaign.PolicyConfig, cursor time.Time) time.Time {
	if cfg.BusinessHours != campaign.StrategyPause {
		return cursor
	}

	pT, err := campaign.MinuteOfDay(cfg.PauseAt)
	if err != nil {
		return cursor
	}
	rT, err := campaign.MinuteOfDay(cfg.ResumeAt)
	if err != nil {
		return cursor
	}

	tod := minuteOf(cursor)
	if tod >= pT {
		cursor = cursor.AddDate(0, 0, 1)
		return atMinute(cursor, rT)
	}
	if tod < rT {
		return atMinute(cursor, rT)
	}
	return cursor
}

// InBusinessWindow reports whether now falls inside [resumeAt, pauseAt) by
// time of day. Called by the dispatcher's business-hours gate.
func InBusinessWindow(cfg campaign.PolicyConfig, now time.Time, loc *time.Location) bool {
	if cfg.BusinessHours != campaign.StrategyPause {
		return true
	}

	pT, err := campaign.MinuteOfDay(cfg.PauseAt)
	if err != nil {
		return true
	}
	rT, err := campaign.MinuteOfDay(cfg.ResumeAt)
	if err != nil {
		return true
	}

	tod := minuteOf(now.In(loc))
	return tod >= rT && tod < pT
}

// OneShotHolds reports whether the one-shot automatic pause currently
// blocks sending: before the resume instant, and either past the daily
// pause time or on a day strictly after the campaign start day.
func OneShotHolds(cfg campaign.PolicyConfig, now, startInstant time.Time, loc *time.Location) bool {
	if cfg.AutoPause == nil {
		return false
	}
	if !now.Before(cfg.AutoPause.ResumeAt) {
		return false
	}

	pT, err := campaign.MinuteOfDay(cfg.AutoPause.PauseAt)
	if err != nil {
		return false
	}

	local := now.In(loc)
	return minuteOf(local) >= pT || dayOrdinal(local) > dayOrdinal(startInstant.In(loc))
}

// SampleDelay draws the live pacing delay before the next send: a uniform
// interval sample, plus a uniform batch pause when the send counter sits on
// a batch boundary. sentSoFar is the campaign's confirmed send count.
func SampleDelay(cfg campaign.PolicyConfig, sentSoFar int, intn func(n int) int) time.Duration {
	delay := uniform(cfg.MinInterval, cfg.MaxInterval, intn)

	if cfg.UseBatching && cfg.BatchSize > 0 && sentSoFar > 0 && sentSoFar%cfg.BatchSize == 0 {
		delay += uniform(cfg.BatchPauseMin, cfg.BatchPauseMax, intn)
	}

	return time.Duration(delay) * time.Second
}

// RandIntn adapts math/rand for SampleDelay.
func RandIntn(n int) int {
	return rand.Intn(n)
}

func uniform(min, max int, intn func(n int) int) int {
	if max <= min {
		return min
	}
	return min + intn(max-min+1)
}

func minuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func atMinute(t time.Time, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), minute/60, minute%60, 0, 0, t.Location())
}

func dayOrdinal(t time.Time) int {
	return t.Year()*1000 + t.YearDay()
}
