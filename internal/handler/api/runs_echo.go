package api

import (
	"context"
	"errors"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	domrepo "github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/service/ratelimit"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/usecase"
	xhttp "github.com/amitpatole/tickerpulse-ai-sub003/pkg/http"
	xlogger "github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RunsEchoHandler exposes the run lifecycle over HTTP. It is a thin
// presentation adapter: all state lives in the orchestrator.
type RunsEchoHandler struct {
	logger   *xlogger.Logger
	builder  *usecase.RequestBuilder
	orch     *usecase.Orchestrator
	lastRuns domrepo.LastRunStore
	limiter  *ratelimit.Limiter
	rlCap    float64
	rlRefill float64
}

func NewRunsEchoHandler(logger *xlogger.Logger, builder *usecase.RequestBuilder, orch *usecase.Orchestrator, lastRuns domrepo.LastRunStore) *RunsEchoHandler {
	return &RunsEchoHandler{logger: logger, builder: builder, orch: orch, lastRuns: lastRuns}
}

// EnableRateLimit throttles submissions per client IP.
func (h *RunsEchoHandler) EnableRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) {
	h.limiter = l
	h.rlCap = capacity
	h.rlRefill = refillPerSec
}

func (h *RunsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/runs", h.Submit)
	g.GET("/runs/current", h.Current)
	g.DELETE("/runs/current", h.Reset)
	g.GET("/runs/last", h.Last)
	g.GET("/runs/stream", h.Stream)
	g.GET("/providers", h.Providers)
}

// runStateResponse is the read model handed to the rendering layer.
type runStateResponse struct {
	Phase    string                   `json:"phase"`
	RunID    string                   `json:"run_id,omitempty"`
	Attempts int                      `json:"attempts"`
	Error    string                   `json:"error,omitempty"`
	Snapshot *models.RunSnapshot      `json:"snapshot,omitempty"`
	Verdict  *models.ConsensusVerdict `json:"verdict,omitempty"`
}

func toRunStateResponse(view usecase.StateView) runStateResponse {
	out := runStateResponse{
		Phase:    string(view.Phase),
		RunID:    view.RunID,
		Attempts: view.Attempts,
		Error:    view.Err,
		Snapshot: view.Snapshot,
	}
	if view.Phase == usecase.PhaseComplete && view.Snapshot != nil {
		out.Verdict = usecase.Aggregate(view.Snapshot.Results)
	}
	return out
}

func (h *RunsEchoHandler) Submit(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP(), h.rlCap, h.rlRefill) {
		return xhttp.TooManyRequestsResponse(c, "too many submissions, slow down")
	}

	req := &models.SubmitRunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	raw := usecase.RawRunInput{
		Mode:     req.Mode,
		Prompt:   req.Prompt,
		Ticker:   req.Ticker,
		Template: req.Template,
	}
	for _, p := range req.Providers {
		raw.Providers = append(raw.Providers, models.ProviderRef{Provider: p.Provider, Model: p.Model})
	}

	runReq, err := h.builder.Build(raw)
	if err != nil {
		if berr, ok := err.(*usecase.BuildError); ok {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_INVALID",
				Field:   berr.Field,
				Message: berr.Message,
			}})
		}
		h.logger.Error("build run request", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	if h.orch.State().Phase.Active() {
		return xhttp.ConflictResponse(c, "a run is already in progress; reset it first")
	}

	// The run outlives this HTTP request; polls must not inherit its
	// cancellation.
	h.orch.Submit(context.Background(), runReq)

	return xhttp.CreatedResponse(c, toRunStateResponse(h.orch.State()))
}

func (h *RunsEchoHandler) Current(c echo.Context) error {
	return xhttp.SuccessResponse(c, toRunStateResponse(h.orch.State()))
}

func (h *RunsEchoHandler) Reset(c echo.Context) error {
	h.orch.Reset()
	return xhttp.NoContentResponse(c)
}

func (h *RunsEchoHandler) Last(c echo.Context) error {
	if h.lastRuns == nil {
		return xhttp.NotFoundResponse(c, "last run tracking is disabled")
	}
	lr, err := h.lastRuns.Get(c.Request().Context())
	if err != nil {
		if errors.Is(err, domrepo.ErrNoLastRun) {
			return xhttp.NotFoundResponse(c, "no terminal run recorded yet")
		}
		h.logger.Error("read last run", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, lr)
}

func (h *RunsEchoHandler) Providers(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"providers": h.builder.Catalog(),
		"templates": models.Templates,
	})
}
