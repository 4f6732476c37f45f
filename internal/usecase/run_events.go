package usecase

import (
	"context"
	"time"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"
)

// RunEventRelay watches the orchestrator and, on every terminal
// transition, records outcome metrics, publishes a completion event and
// refreshes the last-run slot. Publisher and store are optional.
type RunEventRelay struct {
	orch    *Orchestrator
	pub     repository.EventPublisher
	store   repository.LastRunStore
	metrics repository.Metrics
	logger  *logger.Logger

	unwatch func()
	done    chan struct{}
}

func NewRunEventRelay(orch *Orchestrator, pub repository.EventPublisher, store repository.LastRunStore, metrics repository.Metrics, l *logger.Logger) *RunEventRelay {
	return &RunEventRelay{orch: orch, pub: pub, store: store, metrics: metrics, logger: l}
}

// Start begins consuming orchestrator transitions until Shutdown.
func (r *RunEventRelay) Start(ctx context.Context) error {
	ch, cancel := r.orch.Watch()
	r.unwatch = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case view, ok := <-ch:
				if !ok {
					return
				}
				if view.Phase.Terminal() {
					r.handleTerminal(ctx, view)
				}
			}
		}
	}()
	return nil
}

// Shutdown unsubscribes and waits for the relay goroutine to drain.
func (r *RunEventRelay) Shutdown(ctx context.Context) error {
	if r.unwatch != nil {
		r.unwatch()
	}
	if r.done != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *RunEventRelay) handleTerminal(ctx context.Context, view StateView) {
	if r.metrics != nil {
		r.metrics.RecordRunFinished(string(view.Phase))
	}

	var verdict *models.ConsensusVerdict
	providers, failures := 0, 0
	if view.Snapshot != nil {
		providers = len(view.Snapshot.Results)
		for _, res := range view.Snapshot.Results {
			if res.Failed() {
				failures++
				if r.metrics != nil {
					r.metrics.RecordProviderFailure(res.Provider)
				}
			}
		}
	}
	if view.Phase == PhaseComplete && view.Snapshot != nil {
		verdict = Aggregate(view.Snapshot.Results)
		if r.metrics != nil {
			if verdict != nil {
				r.metrics.RecordVerdict(string(verdict.Verdict))
			} else {
				r.metrics.RecordVerdict("none")
			}
		}
	}

	var durationMs int64
	if !view.StartedAt.IsZero() {
		durationMs = time.Since(view.StartedAt).Milliseconds()
	}

	if r.pub != nil {
		ev := &models.RunCompletedEvent{
			RunID:      view.RunID,
			Phase:      string(view.Phase),
			Providers:  providers,
			Failures:   failures,
			DurationMs: durationMs,
			At:         time.Now().UTC(),
		}
		if verdict != nil {
			ev.Verdict = verdict.Verdict
			ev.Counts = verdict.Counts
		}
		if err := r.pub.PublishRunCompleted(ctx, ev); err != nil && r.logger != nil {
			r.logger.Warn("publish run event failed",
				logger.String("run_id", view.RunID),
				logger.Error(err),
			)
		}
	}

	if r.store != nil {
		lr := &models.LastRun{
			Phase:    string(view.Phase),
			Snapshot: view.Snapshot,
			Verdict:  verdict,
			Error:    view.Err,
			At:       time.Now().UTC(),
		}
		if err := r.store.Put(ctx, lr); err != nil && r.logger != nil {
			r.logger.Warn("store last run failed", logger.Error(err))
		}
	}
}
