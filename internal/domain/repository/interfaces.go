package repository

import (
	"context"
	"errors"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
)

// ErrNoLastRun is returned by LastRunStore.Get when no terminal run has
// been recorded yet.
var ErrNoLastRun = errors.New("no last run recorded")

// RunService is the external comparison-run collaborator. It is the only
// non-deterministic boundary in the system; no retries happen inside it.
type RunService interface {
	CreateRun(ctx context.Context, req models.RunRequest) (*models.RunHandle, error)
	GetRunStatus(ctx context.Context, runID string) (*models.RunSnapshot, error)
}

// EventPublisher emits terminal-run events for downstream consumers.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, ev *models.RunCompletedEvent) error
	Close() error
}

// LastRunStore keeps the single most recent terminal run for quick reads.
type LastRunStore interface {
	Put(ctx context.Context, lr *models.LastRun) error
	Get(ctx context.Context) (*models.LastRun, error)
}

type Metrics interface {
	RecordRunSubmitted(template string)
	RecordRunFinished(phase string)
	RecordPoll(seconds float64, ok bool)
	RecordVerdict(verdict string)
	RecordProviderFailure(provider string)
	RecordError(kind string)
}
