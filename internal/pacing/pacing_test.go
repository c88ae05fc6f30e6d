package pacing

import (
	"testing"
	"time"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
)

var testLoc = time.FixedZone("UTC-3", -3*3600)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, testLoc)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

func assertPlan(t *testing.T, got []time.Time, want ...time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d instants, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("instant %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPlan_FixedInterval(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   5,
		MaxInterval:   5,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	plan := Plan(cfg, start, 3, testLoc)

	assertPlan(t, plan,
		start,
		start.Add(5*time.Second),
		start.Add(10*time.Second),
	)
}

func TestPlan_AveragesAsymmetricInterval(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   10,
		MaxInterval:   20,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	plan := Plan(cfg, start, 2, testLoc)

	// Preview is the expected value: (10+20)/2.
	assertPlan(t, plan, start, start.Add(15*time.Second))
}

func TestPlan_BatchPause(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   1,
		MaxInterval:   1,
		UseBatching:   true,
		BatchSize:     2,
		BatchPauseMin: 10,
		BatchPauseMax: 10,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	plan := Plan(cfg, start, 4, testLoc)

	assertPlan(t, plan,
		start,
		start.Add(1*time.Second),
		start.Add(12*time.Second),
		start.Add(13*time.Second),
	)
}

func TestPlan_NoBatchPauseAfterLastMessage(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   1,
		MaxInterval:   1,
		UseBatching:   true,
		BatchSize:     4,
		BatchPauseMin: 30,
		BatchPauseMax: 30,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	plan := Plan(cfg, start, 4, testLoc)

	// n == batchSize: the boundary at i == 0 does not count, so no pause
	// appears anywhere in the schedule.
	assertPlan(t, plan,
		start,
		start.Add(1*time.Second),
		start.Add(2*time.Second),
		start.Add(3*time.Second),
	)
}

func TestPlan_BusinessHoursRollForward(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   1,
		MaxInterval:   1,
		BusinessHours: campaign.StrategyPause,
		PauseAt:       "18:00",
		ResumeAt:      "08:00",
	}
	start := at(t, "2025-06-02 17:59:59")

	plan := Plan(cfg, start, 2, testLoc)

	assertPlan(t, plan,
		start,
		at(t, "2025-06-03 08:00:00"),
	)
}

func TestPlan_BusinessHoursEarlyMorning(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   60,
		MaxInterval:   60,
		BusinessHours: campaign.StrategyPause,
		PauseAt:       "18:00",
		ResumeAt:      "08:00",
	}
	// Before the window opens: everything shifts to 08:00 the same day.
	start := at(t, "2025-06-02 05:30:00")

	plan := Plan(cfg, start, 1, testLoc)

	assertPlan(t, plan, at(t, "2025-06-02 08:00:00"))
}

func TestPlan_OneShotPauseJumpsToResume(t *testing.T) {
	resume := at(t, "2025-06-02 15:00:00")
	cfg := campaign.PolicyConfig{
		MinInterval:   3600,
		MaxInterval:   3600,
		BusinessHours: campaign.StrategyIgnore,
		AutoPause: &campaign.AutoPause{
			PauseAt:  "12:00",
			ResumeAt: resume,
		},
	}
	start := at(t, "2025-06-02 10:00:00")

	plan := Plan(cfg, start, 4, testLoc)

	assertPlan(t, plan,
		start,
		at(t, "2025-06-02 11:00:00"),
		// 12:00 hits the one-shot pause and jumps to the resume instant.
		resume,
		at(t, "2025-06-02 16:00:00"),
	)
}

func TestPlan_OneShotThenBusinessHoursRecheck(t *testing.T) {
	// The one-shot resume lands outside business hours; the instant must
	// then roll forward to the next business window.
	resume := at(t, "2025-06-02 19:00:00")
	cfg := campaign.PolicyConfig{
		MinInterval:   3600,
		MaxInterval:   3600,
		BusinessHours: campaign.StrategyPause,
		PauseAt:       "18:00",
		ResumeAt:      "08:00",
		AutoPause: &campaign.AutoPause{
			PauseAt:  "12:00",
			ResumeAt: resume,
		},
	}
	start := at(t, "2025-06-02 11:30:00")

	plan := Plan(cfg, start, 2, testLoc)

	assertPlan(t, plan,
		start,
		// 12:30 -> one-shot jump to 19:00 -> business hours push to next 08:00.
		at(t, "2025-06-03 08:00:00"),
	)
}

func TestPlan_ZeroAndSingle(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   5,
		MaxInterval:   5,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	if plan := Plan(cfg, start, 0, testLoc); plan != nil {
		t.Fatalf("expected nil plan for n=0, got %v", plan)
	}

	assertPlan(t, Plan(cfg, start, 1, testLoc), start)
}

func TestEnd_EmptyCampaignIsStart(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   5,
		MaxInterval:   5,
		BusinessHours: campaign.StrategyIgnore,
	}
	start := at(t, "2025-06-02 10:00:00")

	if end := End(cfg, start, 0, testLoc); !end.Equal(start) {
		t.Fatalf("expected end == start for n=0, got %s", end)
	}
}

func TestInBusinessWindow(t *testing.T) {
	cfg := campaign.PolicyConfig{
		BusinessHours: campaign.StrategyPause,
		PauseAt:       "18:00",
		ResumeAt:      "08:00",
	}

	cases := []struct {
		name string
		now  string
		want bool
	}{
		{"inside", "2025-06-02 12:00:00", true},
		{"at resume boundary", "2025-06-02 08:00:00", true},
		{"just before pause", "2025-06-02 17:59:59", true},
		{"at pause boundary", "2025-06-02 18:00:00", false},
		{"late night", "2025-06-02 23:30:00", false},
		{"early morning", "2025-06-02 07:59:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InBusinessWindow(cfg, at(t, tc.now), testLoc); got != tc.want {
				t.Errorf("InBusinessWindow(%s) = %v, expected %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestInBusinessWindow_IgnoreStrategyAlwaysOpen(t *testing.T) {
	cfg := campaign.PolicyConfig{BusinessHours: campaign.StrategyIgnore}

	if !InBusinessWindow(cfg, at(t, "2025-06-02 03:00:00"), testLoc) {
		t.Fatal("ignore strategy must never gate sending")
	}
}

func TestOneShotHolds(t *testing.T) {
	resume := at(t, "2025-06-03 09:00:00")
	cfg := campaign.PolicyConfig{
		AutoPause: &campaign.AutoPause{PauseAt: "22:00", ResumeAt: resume},
	}
	started := at(t, "2025-06-02 10:00:00")

	cases := []struct {
		name string
		now  string
		want bool
	}{
		{"before daily pause, same day", "2025-06-02 21:00:00", false},
		{"past daily pause", "2025-06-02 22:00:00", true},
		{"next day before resume", "2025-06-03 06:00:00", true},
		{"after resume instant", "2025-06-03 09:00:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OneShotHolds(cfg, at(t, tc.now), started, testLoc); got != tc.want {
				t.Errorf("OneShotHolds(%s) = %v, expected %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestSampleDelay_DegenerateRangesMatchPlan(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   5,
		MaxInterval:   5,
		UseBatching:   true,
		BatchSize:     2,
		BatchPauseMin: 10,
		BatchPauseMax: 10,
	}

	// With min == max the sampler must reproduce the preview exactly.
	if got := SampleDelay(cfg, 1, RandIntn); got != 5*time.Second {
		t.Errorf("expected 5s mid-batch, got %s", got)
	}
	if got := SampleDelay(cfg, 2, RandIntn); got != 15*time.Second {
		t.Errorf("expected 15s at batch boundary, got %s", got)
	}
	if got := SampleDelay(cfg, 0, RandIntn); got != 5*time.Second {
		t.Errorf("expected no batch pause before any send, got %s", got)
	}
}

func TestSampleDelay_StaysInRange(t *testing.T) {
	cfg := campaign.PolicyConfig{MinInterval: 5, MaxInterval: 8}

	for i := 0; i < 200; i++ {
		d := SampleDelay(cfg, 1, RandIntn)
		if d < 5*time.Second || d > 8*time.Second {
			t.Fatalf("sample %s outside [5s, 8s]", d)
		}
	}
}
