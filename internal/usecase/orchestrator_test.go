package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
)

// manualScheduler replaces the real timer so ticks fire only when the
// test says so. It also tracks how many timers are armed at once.
type manualScheduler struct {
	mu             sync.Mutex
	pending        []*manualTimer
	maxOutstanding int
}

type manualTimer struct {
	fn        func()
	cancelled bool
	fired     bool
}

func (s *manualScheduler) schedule(_ time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{fn: fn}
	s.pending = append(s.pending, timer)
	if n := s.outstandingLocked(); n > s.maxOutstanding {
		s.maxOutstanding = n
	}
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if timer.fired || timer.cancelled {
			return false
		}
		timer.cancelled = true
		return true
	}
}

func (s *manualScheduler) outstandingLocked() int {
	n := 0
	for _, timer := range s.pending {
		if !timer.fired && !timer.cancelled {
			n++
		}
	}
	return n
}

func (s *manualScheduler) outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstandingLocked()
}

// fire runs the oldest live timer synchronously.
func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	var timer *manualTimer
	for _, candidate := range s.pending {
		if !candidate.fired && !candidate.cancelled {
			timer = candidate
			break
		}
	}
	if timer == nil {
		s.mu.Unlock()
		t.Fatalf("no timer armed")
	}
	timer.fired = true
	s.mu.Unlock()
	timer.fn()
}

type fakeRunService struct {
	mu          sync.Mutex
	createGate  chan struct{}
	createErr   error
	runID       string
	createCalls int
	statusErr   error
	snaps       []*models.RunSnapshot
	statusCalls int
}

func (f *fakeRunService) CreateRun(_ context.Context, _ models.RunRequest) (*models.RunHandle, error) {
	f.mu.Lock()
	gate := f.createGate
	f.createCalls++
	err := f.createErr
	id := f.runID
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = "run-1"
	}
	return &models.RunHandle{RunID: id, CreatedAt: time.Now()}, nil
}

func (f *fakeRunService) GetRunStatus(_ context.Context, runID string) (*models.RunSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.snaps) == 0 {
		return &models.RunSnapshot{RunID: runID, Status: models.RunPending}, nil
	}
	snap := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	return snap.Clone(), nil
}

func (f *fakeRunService) pushSnapshot(snap *models.RunSnapshot) {
	f.mu.Lock()
	f.snaps = append(f.snaps, snap)
	f.mu.Unlock()
}

func newTestOrchestrator(svc *fakeRunService, maxAttempts int) (*Orchestrator, *manualScheduler) {
	sched := &manualScheduler{}
	o := NewOrchestrator(svc, nil, nil, time.Second, maxAttempts)
	o.schedule = sched.schedule
	return o, sched
}

func waitFor(t *testing.T, o *Orchestrator, cond func(StateView) bool) StateView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		view := o.State()
		if cond(view) {
			return view
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached, state %+v", o.State())
	return StateView{}
}

func testRequest() models.RunRequest {
	return models.RunRequest{
		Ticker:   "AAPL",
		Template: models.TemplateCustom,
		Providers: []models.ProviderRef{
			{Provider: "openai", Model: "gpt-4o"},
			{Provider: "anthropic", Model: "claude-3"},
		},
	}
}

func TestOrchestratorHappyPath(t *testing.T) {
	svc := &fakeRunService{runID: "run-42"}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	view := waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	if view.Phase != PhasePending {
		t.Fatalf("expected pending after submission, got %s", view.Phase)
	}
	if view.RunID != "run-42" {
		t.Fatalf("unexpected run id %q", view.RunID)
	}

	// first check comes back pending, so polling continues
	sched.fire(t)
	view = o.State()
	if view.Phase != PhasePolling || view.Attempts != 1 {
		t.Fatalf("expected polling after first check, got %s attempts=%d", view.Phase, view.Attempts)
	}
	if sched.outstanding() != 1 {
		t.Fatalf("expected one armed timer, got %d", sched.outstanding())
	}

	svc.pushSnapshot(&models.RunSnapshot{
		RunID:  "run-42",
		Status: models.RunComplete,
		Results: []models.ProviderResult{
			okRated("openai", "gpt-4o", models.RatingBuy),
			okRated("anthropic", "claude-3", models.RatingHold),
		},
	})
	sched.fire(t)
	view = o.State()
	if view.Phase != PhaseComplete {
		t.Fatalf("expected complete, got %s", view.Phase)
	}
	if sched.outstanding() != 0 {
		t.Fatalf("terminal state must leave no timer armed")
	}

	verdict := Aggregate(view.Snapshot.Results)
	if verdict == nil || verdict.Verdict != models.VerdictSplit {
		t.Fatalf("expected SPLIT from BUY+HOLD, got %v", verdict)
	}
}

func TestOrchestratorFailedRun(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })

	svc.pushSnapshot(&models.RunSnapshot{
		RunID:  "run-1",
		Status: models.RunFailed,
		Results: []models.ProviderResult{
			models.ErrResult(models.ProviderRef{Provider: "openai", Model: "gpt-4o"}, "provider quota exceeded"),
		},
	})
	sched.fire(t)

	view := o.State()
	if view.Phase != PhaseFailed {
		t.Fatalf("expected failed, got %s", view.Phase)
	}
	if len(view.Snapshot.Results) != 1 || !view.Snapshot.Results[0].Failed() {
		t.Fatalf("expected failed result preserved, got %+v", view.Snapshot)
	}
}

func TestOrchestratorAttemptBudget(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 0) // default budget of 30

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })

	for i := 0; i < 29; i++ {
		sched.fire(t)
	}
	view := o.State()
	if view.Phase != PhasePolling || view.Attempts != 29 {
		t.Fatalf("expected still polling at attempt 29, got %s attempts=%d", view.Phase, view.Attempts)
	}

	// the 30th pending answer exhausts the budget
	sched.fire(t)
	view = o.State()
	if view.Phase != PhaseTimedOut {
		t.Fatalf("expected timedOut, got %s", view.Phase)
	}
	if view.Attempts != 30 {
		t.Fatalf("expected exactly 30 attempts, got %d", view.Attempts)
	}
	if view.Err != TimeoutMessage {
		t.Fatalf("unexpected timeout message %q", view.Err)
	}
	if sched.outstanding() != 0 {
		t.Fatalf("timed-out run must not re-arm the timer")
	}
}

func TestOrchestratorSingleTimer(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	for i := 0; i < 5; i++ {
		sched.fire(t)
	}

	// replace the active run mid-flight
	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.Phase == PhasePending && v.Attempts == 0 && v.RunID != "" })
	sched.fire(t)

	sched.mu.Lock()
	max := sched.maxOutstanding
	sched.mu.Unlock()
	if max > 1 {
		t.Fatalf("more than one timer armed at once: %d", max)
	}
}

func TestOrchestratorSubmissionError(t *testing.T) {
	svc := &fakeRunService{createErr: errors.New("invalid provider selection")}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	view := waitFor(t, o, func(v StateView) bool { return v.Phase == PhaseError })
	if view.Err != "invalid provider selection" {
		t.Fatalf("expected server message preserved, got %q", view.Err)
	}
	if sched.outstanding() != 0 {
		t.Fatalf("failed submission must not arm a timer")
	}
}

func TestOrchestratorPollErrorTerminal(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	sched.fire(t)

	svc.mu.Lock()
	svc.statusErr = errors.New("connection refused")
	svc.mu.Unlock()
	sched.fire(t)

	view := o.State()
	if view.Phase != PhaseError {
		t.Fatalf("expected error after failed poll, got %s", view.Phase)
	}
	if sched.outstanding() != 0 {
		t.Fatalf("poll errors must not schedule retries")
	}
}

func TestOrchestratorResetDiscardsStalePoll(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })

	o.mu.Lock()
	staleEpoch := o.epoch
	o.mu.Unlock()

	o.Reset()
	if view := o.State(); view.Phase != PhaseIdle || view.RunID != "" {
		t.Fatalf("expected idle after reset, got %+v", view)
	}
	if sched.outstanding() != 0 {
		t.Fatalf("reset must cancel the armed timer")
	}

	// a response from the replaced run must not resurrect it
	svc.pushSnapshot(&models.RunSnapshot{RunID: "run-1", Status: models.RunComplete})
	o.tick(context.Background(), staleEpoch)
	if view := o.State(); view.Phase != PhaseIdle {
		t.Fatalf("stale poll mutated state: %+v", view)
	}
}

func TestOrchestratorResetDiscardsStaleSubmission(t *testing.T) {
	gate := make(chan struct{})
	svc := &fakeRunService{createGate: gate}
	o, _ := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	o.Reset()
	close(gate)

	// give the abandoned goroutine a moment to resolve
	time.Sleep(20 * time.Millisecond)
	if view := o.State(); view.Phase != PhaseIdle || view.RunID != "" {
		t.Fatalf("stale submission mutated state: %+v", view)
	}
}

func TestOrchestratorSubmitReplacesActiveRun(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	sched.fire(t)
	sched.fire(t)
	if view := o.State(); view.Attempts != 2 {
		t.Fatalf("expected 2 attempts before replacement, got %d", view.Attempts)
	}

	o.Submit(context.Background(), testRequest())
	view := waitFor(t, o, func(v StateView) bool { return v.Phase == PhasePending && v.RunID != "" })
	if view.Attempts != 0 {
		t.Fatalf("replacement must reset the attempt counter, got %d", view.Attempts)
	}
	sched.fire(t)
	if view := o.State(); view.Attempts != 1 {
		t.Fatalf("expected fresh attempt count, got %d", view.Attempts)
	}
}

func TestOrchestratorWatch(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	ch, unwatch := o.Watch()
	defer unwatch()

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	svc.pushSnapshot(&models.RunSnapshot{
		RunID:   "run-1",
		Status:  models.RunComplete,
		Results: []models.ProviderResult{okRated("openai", "gpt-4o", models.RatingBuy)},
	})
	sched.fire(t)

	var phases []Phase
	deadline := time.After(2 * time.Second)
	for {
		var done bool
		select {
		case view := <-ch:
			phases = append(phases, view.Phase)
			done = view.Phase.Terminal()
		case <-deadline:
			t.Fatalf("no terminal update received, saw %v", phases)
		}
		if done {
			break
		}
	}
	if phases[len(phases)-1] != PhaseComplete {
		t.Fatalf("expected complete as final update, got %v", phases)
	}
}

func TestOrchestratorStateIsolation(t *testing.T) {
	svc := &fakeRunService{}
	o, sched := newTestOrchestrator(svc, 30)

	o.Submit(context.Background(), testRequest())
	waitFor(t, o, func(v StateView) bool { return v.RunID != "" })
	svc.pushSnapshot(&models.RunSnapshot{
		RunID:   "run-1",
		Status:  models.RunComplete,
		Results: []models.ProviderResult{okRated("openai", "gpt-4o", models.RatingBuy)},
	})
	sched.fire(t)

	view := o.State()
	view.Snapshot.Results[0].Answer.Rating = models.RatingSell
	view.Request.Providers[0] = models.ProviderRef{Provider: "tampered", Model: "x"}

	fresh := o.State()
	if fresh.Snapshot.Results[0].Answer.Rating != models.RatingBuy {
		t.Fatalf("snapshot copy leaked mutation")
	}
	if fresh.Request.Providers[0].Provider != "openai" {
		t.Fatalf("request copy leaked mutation")
	}
}
