package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/campaign"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/domain/message"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/sender"
)

var testLoc = time.FixedZone("UTC-3", -3*3600)

// fakeCampaignRepo is an in-memory campaign.Repository.
type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*campaign.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[uuid.UUID]*campaign.Campaign{}}
}

func (r *fakeCampaignRepo) Save(ctx context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, errors.New("campaign not found")
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) GetStatus(ctx context.Context, id uuid.UUID) (campaign.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return "", errors.New("campaign not found")
	}
	return c.Status, nil
}

func (r *fakeCampaignRepo) ListEligible(ctx context.Context, now time.Time) ([]*campaign.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*campaign.Campaign
	for _, c := range r.campaigns {
		if (c.Status.NotStarted() || c.Status.Running()) && !c.ScheduledAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) ListByOwnerOpen(ctx context.Context, owner uuid.UUID) ([]*campaign.Campaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status campaign.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[id].Status = status
	return nil
}

func (r *fakeCampaignRepo) MarkStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = campaign.StatusProcessing
	if c.StartedAt == nil {
		c.StartedAt = &startedAt
	}
	return nil
}

func (r *fakeCampaignRepo) Finalize(ctx context.Context, id uuid.UUID, status campaign.Status, sent int, finishedAt time.Time, executionSecs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = status
	c.SentMessages = sent
	c.FinishedAt = &finishedAt
	c.ExecutionTime = executionSecs
	return nil
}

func (r *fakeCampaignRepo) UpdateProgress(ctx context.Context, id uuid.UUID, executionSecs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[id].ExecutionTime = executionSecs
	return nil
}

func (r *fakeCampaignRepo) IncrementSent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[id].SentMessages++
	return nil
}

var _ campaign.Repository = (*fakeCampaignRepo)(nil)

// fakeMessageRepo is an in-memory message.Repository whose Claim is guarded
// by a mutex, mirroring the store's compare-and-swap guarantee.
type fakeMessageRepo struct {
	mu     sync.Mutex
	order  []uuid.UUID
	msgs   map[uuid.UUID]*message.Message
	recips map[uuid.UUID]*message.Recipient
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		msgs:   map[uuid.UUID]*message.Message{},
		recips: map[uuid.UUID]*message.Recipient{},
	}
}

func (r *fakeMessageRepo) SaveBatch(ctx context.Context, recipients []*message.Recipient, msgs []*message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recipients {
		cp := *rec
		r.recips[rec.ID] = &cp
	}
	for _, m := range msgs {
		cp := *m
		r.msgs[m.ID] = &cp
		r.order = append(r.order, m.ID)
	}
	return nil
}

func (r *fakeMessageRepo) Claim(ctx context.Context, campaignID uuid.UUID, at time.Time) (*message.Claimed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		m := r.msgs[id]
		if m.CampaignID != campaignID || m.Status != message.StatusWaiting {
			continue
		}
		m.Status = message.StatusSending
		sentAt := at
		m.SentAt = &sentAt
		return &message.Claimed{
			Message:   *m,
			Recipient: *r.recips[m.RecipientID],
		}, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.msgs[id]
	m.Status = message.StatusSent
	sentAt := at
	m.SentAt = &sentAt
	m.ErrorMessage = ""
	return nil
}

func (r *fakeMessageRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.msgs[id]
	m.Status = message.StatusFailed
	m.ErrorMessage = message.TruncateError(errMsg)
	return nil
}

func (r *fakeMessageRepo) Retry(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok || m.Status != message.StatusFailed {
		return false, nil
	}
	m.Status = message.StatusWaiting
	m.ErrorMessage = ""
	m.SentAt = nil
	return true, nil
}

func (r *fakeMessageRepo) CountByStatus(ctx context.Context, campaignID uuid.UUID, statuses ...message.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.msgs {
		if m.CampaignID != campaignID {
			continue
		}
		for _, s := range statuses {
			if m.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) LastSentAt(ctx context.Context, campaignID uuid.UUID) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *time.Time
	for _, m := range r.msgs {
		if m.CampaignID != campaignID || m.SentAt == nil {
			continue
		}
		if last == nil || m.SentAt.After(*last) {
			sentAt := *m.SentAt
			last = &sentAt
		}
	}
	return last, nil
}

func (r *fakeMessageRepo) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released int64
	for _, m := range r.msgs {
		if m.Status == message.StatusSending && m.SentAt != nil && m.SentAt.Before(before) {
			m.Status = message.StatusWaiting
			m.SentAt = nil
			released++
		}
	}
	return released, nil
}

func (r *fakeMessageRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, status message.Status, page, limit int) ([]*message.Message, int64, error) {
	return nil, 0, nil
}

func (r *fakeMessageRepo) statusCounts(campaignID uuid.UUID) map[message.Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[message.Status]int{}
	for _, m := range r.msgs {
		if m.CampaignID == campaignID {
			out[m.Status]++
		}
	}
	return out
}

var _ message.Repository = (*fakeMessageRepo)(nil)

// fakeSender counts sends, can fail specific calls and can run a hook
// after each send (e.g. to issue an operator command mid-run).
type fakeSender struct {
	mu     sync.Mutex
	calls  int
	phones []string
	failAt map[int]error // 1-based call index
	onSend func(call int)
}

func newFakeSender() *fakeSender {
	return &fakeSender{failAt: map[int]error{}}
}

func (s *fakeSender) Send(ctx context.Context, name, phone, body string) error {
	s.mu.Lock()
	s.calls++
	call := s.calls
	err := s.failAt[call]
	if err == nil {
		s.phones = append(s.phones, phone)
	}
	hook := s.onSend
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return err
}

func (s *fakeSender) Health(ctx context.Context) error { return nil }

func (s *fakeSender) sendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.phones)
}

var _ sender.Client = (*fakeSender)(nil)

// newTestWorld seeds one campaign with n waiting messages and returns the
// wired dispatcher and fakes.
func newTestWorld(t *testing.T, cfg campaign.PolicyConfig, n int) (*Dispatcher, *fakeCampaignRepo, *fakeMessageRepo, *fakeSender, *campaign.Campaign) {
	t.Helper()

	campaigns := newFakeCampaignRepo()
	messages := newFakeMessageRepo()
	client := newFakeSender()

	now := time.Now()
	c := &campaign.Campaign{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Name:          "test campaign",
		Status:        campaign.StatusPending,
		TotalMessages: n,
		ScheduledAt:   now.Add(-time.Second),
		Config:        cfg,
		CreatedAt:     now,
	}
	if err := campaigns.Save(context.Background(), c); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}

	recipients := make([]*message.Recipient, 0, n)
	msgs := make([]*message.Message, 0, n)
	for i := 0; i < n; i++ {
		rec, err := message.NewRecipient(c.ID, fmt.Sprintf("r%d", i), fmt.Sprintf("+55119%08d", i), "hello")
		if err != nil {
			t.Fatalf("seed recipient: %v", err)
		}
		recipients = append(recipients, rec)
		msgs = append(msgs, message.NewMessage(c.ID, rec.ID, now))
	}
	if err := messages.SaveBatch(context.Background(), recipients, msgs); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	d := New(campaigns, messages, client, nil, testLoc, 55*time.Second, 10*time.Minute)
	return d, campaigns, messages, client, c
}

// zeroDelay paces with no waiting so tests run instantly. The dispatcher
// does not re-validate the policy, so a zero interval is fine here.
func zeroDelay() campaign.PolicyConfig {
	return campaign.PolicyConfig{BusinessHours: campaign.StrategyIgnore}
}

func TestRun_SendsEverythingAndFinishes(t *testing.T) {
	d, campaigns, messages, client, c := newTestWorld(t, zeroDelay(), 3)

	results := d.Run(context.Background(), uuid.Nil)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != ResultFinished {
		t.Errorf("expected finished, got %s", results[0].Status)
	}
	if results[0].MessagesSent != 3 {
		t.Errorf("expected 3 sends, got %d", results[0].MessagesSent)
	}
	if client.sendCount() != 3 {
		t.Errorf("endpoint saw %d sends, expected 3", client.sendCount())
	}

	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.Status != campaign.StatusFinished {
		t.Errorf("expected campaign finished, got %s", final.Status)
	}
	if final.SentMessages != 3 {
		t.Errorf("expected sentMessages reconciled to 3, got %d", final.SentMessages)
	}
	if final.StartedAt == nil || final.FinishedAt == nil {
		t.Error("expected startedAt and finishedAt to be set")
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusSent] != 3 || counts[message.StatusSending] != 0 || counts[message.StatusWaiting] != 0 {
		t.Errorf("unexpected terminal message states: %v", counts)
	}
}

func TestRun_ZeroRecipientsFinishesImmediately(t *testing.T) {
	d, campaigns, _, client, c := newTestWorld(t, zeroDelay(), 0)

	results := d.Run(context.Background(), uuid.Nil)

	if len(results) != 1 || results[0].Status != ResultFinished {
		t.Fatalf("expected immediate finish, got %+v", results)
	}
	if client.sendCount() != 0 {
		t.Errorf("no sends expected, got %d", client.sendCount())
	}

	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.Status != campaign.StatusFinished || final.SentMessages != 0 {
		t.Errorf("unexpected final state: %s / %d", final.Status, final.SentMessages)
	}
}

func TestRun_FailedSendIsRecordedAndOthersContinue(t *testing.T) {
	d, campaigns, messages, client, c := newTestWorld(t, zeroDelay(), 3)
	client.failAt[2] = errors.New("gateway said no")

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultFinished {
		t.Fatalf("expected finished, got %s", results[0].Status)
	}
	if results[0].MessagesSent != 2 {
		t.Errorf("expected 2 confirmed sends, got %d", results[0].MessagesSent)
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusSent] != 2 || counts[message.StatusFailed] != 1 {
		t.Errorf("unexpected states: %v", counts)
	}

	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.SentMessages != 2 {
		t.Errorf("counter must only count confirmed sends, got %d", final.SentMessages)
	}

	messages.mu.Lock()
	defer messages.mu.Unlock()
	for _, m := range messages.msgs {
		if m.Status == message.StatusFailed {
			if m.ErrorMessage != "gateway said no" {
				t.Errorf("unexpected error message %q", m.ErrorMessage)
			}
			if m.SentAt == nil {
				t.Error("failed message must keep its claim-time sentAt")
			}
		}
	}
}

func TestRun_TimeoutIsRecordedAsTimeout(t *testing.T) {
	d, _, messages, client, c := newTestWorld(t, zeroDelay(), 1)
	client.failAt[1] = sender.ErrTimeout

	d.Run(context.Background(), uuid.Nil)

	messages.mu.Lock()
	defer messages.mu.Unlock()
	for _, m := range messages.msgs {
		if m.CampaignID != c.ID {
			continue
		}
		if m.Status != message.StatusFailed || m.ErrorMessage != "timeout" {
			t.Errorf("expected failed/timeout, got %s/%q", m.Status, m.ErrorMessage)
		}
	}
}

func TestRun_PauseTakesEffectWithinOneMessage(t *testing.T) {
	d, campaigns, messages, client, c := newTestWorld(t, zeroDelay(), 10)

	// Operator pauses right after the first send lands.
	client.onSend = func(call int) {
		if call == 1 {
			_ = campaigns.UpdateStatus(context.Background(), c.ID, campaign.StatusPaused)
		}
	}

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultPausedTemporarily {
		t.Fatalf("expected paused_temporarily, got %s", results[0].Status)
	}
	// The in-flight send still commits; nothing new is claimed after it.
	if client.sendCount() != 1 {
		t.Errorf("expected exactly 1 send before the pause landed, got %d", client.sendCount())
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusSending] != 0 {
		t.Errorf("no message may be stuck in sending: %v", counts)
	}
	if counts[message.StatusWaiting] != 9 {
		t.Errorf("expected 9 waiting, got %v", counts)
	}

	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.Status != campaign.StatusPaused {
		t.Errorf("pause must not be overwritten, got %s", final.Status)
	}
}

func TestRun_CancelStopsDispatching(t *testing.T) {
	d, campaigns, messages, client, c := newTestWorld(t, zeroDelay(), 5)

	client.onSend = func(call int) {
		if call == 1 {
			_ = campaigns.UpdateStatus(context.Background(), c.ID, campaign.StatusCanceled)
		}
	}

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultContinued {
		t.Fatalf("expected continued, got %s", results[0].Status)
	}
	if client.sendCount() != 1 {
		t.Errorf("expected 1 send, got %d", client.sendCount())
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusSending] != 0 {
		t.Errorf("canceled campaign may not keep claims: %v", counts)
	}
}

func TestRun_BudgetDefersWaitToNextInvocation(t *testing.T) {
	cfg := campaign.PolicyConfig{
		MinInterval:   3600,
		MaxInterval:   3600,
		BusinessHours: campaign.StrategyIgnore,
	}
	d, _, messages, client, c := newTestWorld(t, cfg, 2)

	// A previous invocation already sent one message moments ago, so the
	// next slot is an hour away -- far past this invocation's budget.
	recent := time.Now().Add(-time.Second)
	rec, _ := message.NewRecipient(c.ID, "prev", "+5511900000000", "hello")
	prev := message.NewMessage(c.ID, rec.ID, recent)
	_ = messages.SaveBatch(context.Background(), []*message.Recipient{rec}, []*message.Message{prev})
	_ = messages.MarkSent(context.Background(), prev.ID, recent)

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultContinued {
		t.Fatalf("expected continued, got %s", results[0].Status)
	}
	if client.sendCount() != 0 {
		t.Errorf("expected no sends inside the budget, got %d", client.sendCount())
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusWaiting] != 2 {
		t.Errorf("expected both messages still waiting, got %v", counts)
	}
}

func TestRun_OneShotPauseGateSkipsWithoutStatusChange(t *testing.T) {
	cfg := zeroDelay()
	cfg.AutoPause = &campaign.AutoPause{
		PauseAt:  "00:00", // any time of day is past the pause mark
		ResumeAt: time.Now().Add(2 * time.Hour),
	}
	d, campaigns, _, client, c := newTestWorld(t, cfg, 3)

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultPausedTemporarily {
		t.Fatalf("expected paused_temporarily, got %s", results[0].Status)
	}
	if client.sendCount() != 0 {
		t.Errorf("expected no sends, got %d", client.sendCount())
	}

	// The gate must not persist a paused status; the campaign stays
	// eligible for the next invocation.
	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.Status != campaign.StatusProcessing {
		t.Errorf("expected processing, got %s", final.Status)
	}
}

func TestRun_BusinessHoursGateSkips(t *testing.T) {
	// A window that now is guaranteed to be outside of: resume and pause
	// one minute apart.
	now := time.Now().In(testLoc)
	resume := now.Add(2 * time.Minute)
	pause := now.Add(3 * time.Minute)

	cfg := zeroDelay()
	cfg.BusinessHours = campaign.StrategyPause
	cfg.ResumeAt = fmt.Sprintf("%02d:%02d", resume.Hour(), resume.Minute())
	cfg.PauseAt = fmt.Sprintf("%02d:%02d", pause.Hour(), pause.Minute())

	d, _, _, client, _ := newTestWorld(t, cfg, 2)

	results := d.Run(context.Background(), uuid.Nil)

	if len(results) != 1 || results[0].Status != ResultPausedTemporarily {
		t.Fatalf("expected paused_temporarily, got %+v", results)
	}
	if client.sendCount() != 0 {
		t.Errorf("expected no sends outside business hours, got %d", client.sendCount())
	}
}

func TestRun_ReleasesStaleClaims(t *testing.T) {
	d, _, messages, client, _ := newTestWorld(t, zeroDelay(), 1)

	// Simulate a claim from a worker that died 20 minutes ago.
	messages.mu.Lock()
	for _, m := range messages.msgs {
		old := time.Now().Add(-20 * time.Minute)
		m.Status = message.StatusSending
		m.SentAt = &old
	}
	messages.mu.Unlock()

	results := d.Run(context.Background(), uuid.Nil)

	if results[0].Status != ResultFinished {
		t.Fatalf("expected finished, got %s", results[0].Status)
	}
	if client.sendCount() != 1 {
		t.Errorf("released claim must be re-dispatched, got %d sends", client.sendCount())
	}
}

func TestRun_TargetedRunIgnoresSchedule(t *testing.T) {
	d, campaigns, _, client, c := newTestWorld(t, zeroDelay(), 1)

	// Push the schedule into the future; a plain scan must skip it.
	campaigns.mu.Lock()
	campaigns.campaigns[c.ID].ScheduledAt = time.Now().Add(time.Hour)
	campaigns.campaigns[c.ID].Status = campaign.StatusScheduled
	campaigns.mu.Unlock()

	if results := d.Run(context.Background(), uuid.Nil); len(results) != 0 {
		t.Fatalf("scan must not pick up future campaigns, got %+v", results)
	}

	// A targeted run processes it regardless.
	results := d.Run(context.Background(), c.ID)
	if len(results) != 1 || results[0].Status != ResultFinished {
		t.Fatalf("targeted run must process the campaign, got %+v", results)
	}
	if client.sendCount() != 1 {
		t.Errorf("expected 1 send, got %d", client.sendCount())
	}
}

func TestRun_TargetedRunSkipsPausedCampaign(t *testing.T) {
	d, campaigns, _, client, c := newTestWorld(t, zeroDelay(), 1)
	_ = campaigns.UpdateStatus(context.Background(), c.ID, campaign.StatusPaused)

	if results := d.Run(context.Background(), c.ID); len(results) != 0 {
		t.Fatalf("paused campaign must not be advanced, got %+v", results)
	}
	if client.sendCount() != 0 {
		t.Errorf("expected no sends, got %d", client.sendCount())
	}
}

func TestRun_ConcurrentWorkersSendEachMessageOnce(t *testing.T) {
	const n = 30
	d, campaigns, messages, client, c := newTestWorld(t, zeroDelay(), n)

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Run(context.Background(), uuid.Nil)
		}()
	}
	wg.Wait()

	if client.sendCount() != n {
		t.Errorf("expected exactly %d sends across both workers, got %d", n, client.sendCount())
	}

	counts := messages.statusCounts(c.ID)
	if counts[message.StatusSent] != n || counts[message.StatusSending] != 0 {
		t.Errorf("unexpected terminal states: %v", counts)
	}

	final, _ := campaigns.GetByID(context.Background(), c.ID)
	if final.Status != campaign.StatusFinished {
		t.Errorf("expected finished, got %s", final.Status)
	}
	if final.SentMessages != n {
		t.Errorf("expected sentMessages %d, got %d", n, final.SentMessages)
	}
}
