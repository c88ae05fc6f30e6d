package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type BusinessHoursStrategy string

const (
	// StrategyIgnore sends around the clock.
	StrategyIgnore BusinessHoursStrategy = "ignore"
	// StrategyPause holds sends outside the daily [resumeAt, pauseAt) window.
	StrategyPause BusinessHoursStrategy = "pause"
)

// Defaults applied when a stored config blob is missing required fields.
const (
	DefaultMinInterval = 30
	DefaultMaxInterval = 40
)

var (
	ErrIntervalRange   = errors.New("interval must satisfy 5 <= min <= max")
	ErrBatchConfig     = errors.New("batching requires batchSize >= 1 and 1 <= batchPauseMin <= batchPauseMax")
	ErrBusinessWindow  = errors.New("business hours require resumeAt earlier than pauseAt on the same day")
	ErrBadClockTime    = errors.New("clock time must be HH:MM")
	ErrUnknownStrategy = errors.New("businessHoursStrategy must be ignore or pause")
)

// AutoPause is a one-shot interruption: sending stops daily-clock-wise at
// PauseAt and stays stopped until the absolute ResumeAt instant.
type AutoPause struct {
	PauseAt  string    `json:"pauseAt"`
	ResumeAt time.Time `json:"resumeAt"`
}

// PolicyConfig is the canonical pacing policy for a campaign. All interval
// fields are integer seconds; clock fields are HH:MM in the campaign timezone.
type PolicyConfig struct {
	MinInterval   int                   `json:"minInterval"`
	MaxInterval   int                   `json:"maxInterval"`
	UseBatching   bool                  `json:"useBatching"`
	BatchSize     int                   `json:"batchSize,omitempty"`
	BatchPauseMin int                   `json:"batchPauseMin,omitempty"`
	BatchPauseMax int                   `json:"batchPauseMax,omitempty"`
	BusinessHours BusinessHoursStrategy `json:"businessHoursStrategy"`
	PauseAt       string                `json:"pauseAt,omitempty"`
	ResumeAt      string                `json:"resumeAt,omitempty"`
	AutoPause     *AutoPause            `json:"automaticPause,omitempty"`
}

// MinuteOfDay parses an HH:MM string into minutes since midnight.
func MinuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClockTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClockTime, s)
	}
	return h*60 + m, nil
}

// Validate enforces the admission-time policy rules. Invalid policies are
// rejected before anything is persisted.
func (c PolicyConfig) Validate() error {
	if c.MinInterval < 5 || c.MinInterval > c.MaxInterval {
		return ErrIntervalRange
	}

	if c.UseBatching {
		if c.BatchSize < 1 || c.BatchPauseMin < 1 || c.BatchPauseMin > c.BatchPauseMax {
			return ErrBatchConfig
		}
	}

	switch c.BusinessHours {
	case StrategyIgnore:
	case StrategyPause:
		pT, err := MinuteOfDay(c.PauseAt)
		if err != nil {
			return err
		}
		rT, err := MinuteOfDay(c.ResumeAt)
		if err != nil {
			return err
		}
		// Windows spanning midnight are not supported.
		if rT >= pT {
			return ErrBusinessWindow
		}
	default:
		return ErrUnknownStrategy
	}

	if c.AutoPause != nil {
		if _, err := MinuteOfDay(c.AutoPause.PauseAt); err != nil {
			return err
		}
	}

	return nil
}

// AvgInterval is the expected per-send delay in seconds, used by the
// schedule preview. Integer arithmetic, matching the live sampler's range.
func (c PolicyConfig) AvgInterval() int {
	return (c.MinInterval + c.MaxInterval) / 2
}

// AvgBatchPause is the expected batch pause in seconds.
func (c PolicyConfig) AvgBatchPause() int {
	return (c.BatchPauseMin + c.BatchPauseMax) / 2
}

// rawConfig accepts the loose persisted blob, which historically mixes
// snake_case and camelCase key spellings. Unknown keys are ignored.
type rawConfig struct {
	fields map[string]json.RawMessage
}

func (r rawConfig) pick(v any, keys ...string) bool {
	for _, k := range keys {
		raw, ok := r.fields[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, v); err == nil {
			return true
		}
	}
	return false
}

// UnmarshalJSON normalizes either key spelling into the canonical shape and
// backfills defaults for missing required fields.
func (c *PolicyConfig) UnmarshalJSON(data []byte) error {
	raw := rawConfig{fields: map[string]json.RawMessage{}}
	if err := json.Unmarshal(data, &raw.fields); err != nil {
		return err
	}

	c.MinInterval = DefaultMinInterval
	c.MaxInterval = DefaultMaxInterval
	c.BusinessHours = StrategyIgnore

	raw.pick(&c.MinInterval, "minInterval", "min_interval")
	raw.pick(&c.MaxInterval, "maxInterval", "max_interval")
	raw.pick(&c.UseBatching, "useBatching", "use_batching")
	raw.pick(&c.BatchSize, "batchSize", "batch_size")
	raw.pick(&c.BatchPauseMin, "batchPauseMin", "batch_pause_min")
	raw.pick(&c.BatchPauseMax, "batchPauseMax", "batch_pause_max")

	var strategy string
	if raw.pick(&strategy, "businessHoursStrategy", "business_hours_strategy") && strategy != "" {
		c.BusinessHours = BusinessHoursStrategy(strategy)
	}
	raw.pick(&c.PauseAt, "pauseAt", "pause_at")
	raw.pick(&c.ResumeAt, "resumeAt", "resume_at")

	var ap struct {
		PauseAt  string    `json:"pauseAt"`
		ResumeAt time.Time `json:"resumeAt"`
	}
	var apSnake struct {
		PauseAt  string    `json:"pause_at"`
		ResumeAt time.Time `json:"resume_at"`
	}
	if rawAP, ok := raw.fields["automaticPause"]; ok {
		_ = json.Unmarshal(rawAP, &ap)
	} else if rawAP, ok := raw.fields["automatic_pause"]; ok {
		if json.Unmarshal(rawAP, &apSnake) == nil {
			ap.PauseAt, ap.ResumeAt = apSnake.PauseAt, apSnake.ResumeAt
		}
		_ = json.Unmarshal(rawAP, &ap)
	}
	if ap.PauseAt != "" && !ap.ResumeAt.IsZero() {
		c.AutoPause = &AutoPause{PauseAt: ap.PauseAt, ResumeAt: ap.ResumeAt}
	}

	return nil
}
