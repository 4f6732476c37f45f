package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"
)

// Phase is the externally observable state of the run lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePending  Phase = "pending"
	PhasePolling  Phase = "polling"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
	PhaseTimedOut Phase = "timedOut"
	PhaseError    Phase = "error"
)

// Terminal reports whether no further automatic transition occurs.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseFailed, PhaseTimedOut, PhaseError:
		return true
	}
	return false
}

// Active reports whether a run is currently in flight.
func (p Phase) Active() bool {
	return p == PhasePending || p == PhasePolling
}

// TimeoutMessage is the fixed user-facing message when the attempt budget
// is exhausted. Deliberately distinct from transport errors so users can
// tell "never responded" apart from "explicitly rejected".
const TimeoutMessage = "request timed out: the run service did not finish in time"

// StateView is a read-only copy of the orchestrator state handed to
// observers. The snapshot is cloned; mutating it has no effect.
type StateView struct {
	Phase     Phase
	RunID     string
	Attempts  int
	Err       string
	Snapshot  *models.RunSnapshot
	Request   *models.RunRequest
	StartedAt time.Time
}

// scheduleFunc arms a one-shot callback after d and returns its cancel.
// Swapped for a manual scheduler in tests.
type scheduleFunc func(d time.Duration, fn func()) (cancel func() bool)

func timerSchedule(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// Orchestrator owns the run lifecycle state machine. At most one timer is
// outstanding at any instant: every (re)schedule first cancels the
// previous one, and every submit/reset bumps the run epoch so responses
// belonging to a replaced run are discarded on arrival.
type Orchestrator struct {
	svc     repository.RunService
	metrics repository.Metrics
	logger  *logger.Logger

	interval    time.Duration
	maxAttempts int
	schedule    scheduleFunc

	mu        sync.Mutex
	epoch     uint64
	phase     Phase
	request   *models.RunRequest
	handle    *models.RunHandle
	snapshot  *models.RunSnapshot
	errMsg    string
	attempts  int
	cancel    func() bool
	startedAt time.Time

	watchMu  sync.Mutex
	watchers map[uint64]chan StateView
	nextID   uint64
}

// NewOrchestrator creates the orchestrator. Zero interval and attempts
// fall back to the reference behavior (2 s, 30 attempts).
func NewOrchestrator(svc repository.RunService, metrics repository.Metrics, l *logger.Logger, interval time.Duration, maxAttempts int) *Orchestrator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Orchestrator{
		svc:         svc,
		metrics:     metrics,
		logger:      l,
		interval:    interval,
		maxAttempts: maxAttempts,
		schedule:    timerSchedule,
		phase:       PhaseIdle,
		watchers:    make(map[uint64]chan StateView),
	}
}

// Submit replaces any active run with a new one. The outstanding timer is
// cancelled before the new run is adopted, and the epoch bump invalidates
// every in-flight response of the previous run.
func (o *Orchestrator) Submit(ctx context.Context, req models.RunRequest) {
	o.mu.Lock()
	o.cancelTimerLocked()
	o.epoch++
	e := o.epoch
	o.phase = PhasePending
	r := req
	o.request = &r
	o.handle = nil
	o.snapshot = nil
	o.errMsg = ""
	o.attempts = 0
	o.startedAt = time.Now()
	o.mu.Unlock()
	o.notify()

	go o.createRun(ctx, e, req)
}

// Reset cancels the outstanding timer and returns to idle. A poll already
// in flight resolves into a dead epoch and is discarded.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.cancelTimerLocked()
	o.epoch++
	o.phase = PhaseIdle
	o.request = nil
	o.handle = nil
	o.snapshot = nil
	o.errMsg = ""
	o.attempts = 0
	o.startedAt = time.Time{}
	o.mu.Unlock()
	o.notify()
}

// State returns a read-only copy of the current state.
func (o *Orchestrator) State() StateView {
	o.mu.Lock()
	defer o.mu.Unlock()
	view := StateView{
		Phase:     o.phase,
		Attempts:  o.attempts,
		Err:       o.errMsg,
		Snapshot:  o.snapshot.Clone(),
		StartedAt: o.startedAt,
	}
	if o.handle != nil {
		view.RunID = o.handle.RunID
	}
	if o.request != nil {
		r := *o.request
		r.Providers = append([]models.ProviderRef(nil), o.request.Providers...)
		view.Request = &r
	}
	return view
}

// Watch registers an observer. The returned channel receives state copies
// on every transition; slow observers miss updates rather than block the
// orchestrator. The second return value unsubscribes.
func (o *Orchestrator) Watch() (<-chan StateView, func()) {
	ch := make(chan StateView, 16)
	o.watchMu.Lock()
	o.nextID++
	id := o.nextID
	o.watchers[id] = ch
	o.watchMu.Unlock()

	cancel := func() {
		o.watchMu.Lock()
		if c, ok := o.watchers[id]; ok {
			delete(o.watchers, id)
			close(c)
		}
		o.watchMu.Unlock()
	}
	return ch, cancel
}

func (o *Orchestrator) createRun(ctx context.Context, e uint64, req models.RunRequest) {
	handle, err := o.svc.CreateRun(ctx, req)

	o.mu.Lock()
	if o.epoch != e {
		// run was reset or replaced while the submission was in flight
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.phase = PhaseError
		o.errMsg = err.Error()
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.RecordError("submission")
		}
		if o.logger != nil {
			o.logger.Error("run submission failed", logger.Error(err))
		}
		o.notify()
		return
	}
	o.handle = handle
	o.armTimerLocked(ctx, e)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RecordRunSubmitted(string(req.Template))
	}
	if o.logger != nil {
		o.logger.Info("run created",
			logger.String("run_id", handle.RunID),
			logger.Int("providers", len(req.Providers)),
		)
	}
	o.notify()
}

// tick performs one status check. Ticks are strictly sequential: the next
// timer is armed only after this response has been applied, so status
// calls never overlap.
func (o *Orchestrator) tick(ctx context.Context, e uint64) {
	o.mu.Lock()
	if o.epoch != e || o.handle == nil {
		o.mu.Unlock()
		return
	}
	o.cancel = nil // this tick consumed its timer
	runID := o.handle.RunID
	o.attempts++
	attempt := o.attempts
	o.mu.Unlock()

	start := time.Now()
	snap, err := o.svc.GetRunStatus(ctx, runID)
	if o.metrics != nil {
		o.metrics.RecordPoll(time.Since(start).Seconds(), err == nil)
	}

	o.mu.Lock()
	if o.epoch != e {
		// stale response for a reset or replaced run
		o.mu.Unlock()
		return
	}

	switch {
	case err != nil:
		// transport failure is terminal: the run is broken, not slow
		o.phase = PhaseError
		o.errMsg = err.Error()
	case snap.Status == models.RunComplete:
		o.phase = PhaseComplete
		o.snapshot = snap
	case snap.Status == models.RunFailed:
		o.phase = PhaseFailed
		o.snapshot = snap
	default:
		o.snapshot = snap
		if attempt >= o.maxAttempts {
			o.phase = PhaseTimedOut
			o.errMsg = TimeoutMessage
		} else {
			o.phase = PhasePolling
			o.armTimerLocked(ctx, e)
		}
	}
	phase := o.phase
	o.mu.Unlock()

	if err != nil && o.logger != nil {
		o.logger.Error("status check failed", logger.String("run_id", runID), logger.Error(err))
	}
	if phase == PhaseTimedOut && o.logger != nil {
		o.logger.Warn("run timed out",
			logger.String("run_id", runID),
			logger.Int("attempts", attempt),
		)
	}
	o.notify()
}

// armTimerLocked schedules the next tick. Callers hold o.mu. Cancelling
// any previous timer first is what keeps the single-timer invariant.
func (o *Orchestrator) armTimerLocked(ctx context.Context, e uint64) {
	o.cancelTimerLocked()
	o.cancel = o.schedule(o.interval, func() { o.tick(ctx, e) })
}

func (o *Orchestrator) cancelTimerLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) notify() {
	view := o.State()
	o.watchMu.Lock()
	for _, ch := range o.watchers {
		select {
		case ch <- view:
		default:
			// drop on backpressure
		}
	}
	o.watchMu.Unlock()
}
