package runservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/models"
	drepo "github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
	xhttp "github.com/amitpatole/tickerpulse-ai-sub003/pkg/http"
)

// Client talks to the external run service over HTTP. It performs no
// retries; retry policy lives entirely in the orchestrator.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

// New creates a run service client from config.
func New(cfg *config.Config) drepo.RunService {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.RunService.Timeout)}
	if cfg.RunService.APIKey != "" {
		opts = append(opts, xhttp.WithHeader("Authorization", "Bearer "+cfg.RunService.APIKey))
	}
	return &Client{
		baseURL: cfg.RunService.BaseURL,
		client:  xhttp.NewClient(opts...),
	}
}

// Wire shapes. Result fields are flat; presence of `error` encodes failure.

type createRunBody struct {
	Prompt    string               `json:"prompt,omitempty"`
	Ticker    string               `json:"ticker,omitempty"`
	Providers []models.ProviderRef `json:"providers"`
	Template  string               `json:"template"`
}

type createRunReply struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

type wireResult struct {
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Rating     string  `json:"rating,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Summary    string  `json:"summary,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type statusReply struct {
	RunID   string       `json:"run_id"`
	Status  string       `json:"status"`
	Results []wireResult `json:"results"`
}

type errorReply struct {
	Error string `json:"error"`
}

// CreateRun submits a comparison run. A non-2xx reply with an error body
// propagates the server message verbatim inside a SubmissionError.
func (c *Client) CreateRun(ctx context.Context, req models.RunRequest) (*models.RunHandle, error) {
	body := createRunBody{
		Prompt:    req.Prompt,
		Ticker:    req.Ticker,
		Providers: req.Providers,
		Template:  string(req.Template),
	}

	resp, err := c.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/v1/runs",
		Body:   body,
	})
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{Message: readServerMessage(resp)}
	}

	var reply createRunReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("decode reply: %w", err)}
	}
	if reply.RunID == "" {
		return nil, &SubmissionError{Err: fmt.Errorf("run service returned empty run_id")}
	}

	return &models.RunHandle{RunID: reply.RunID, CreatedAt: time.Now()}, nil
}

// GetRunStatus fetches the latest snapshot for a run. Idempotent: two
// calls with no far-side change return structurally equal snapshots.
func (c *Client) GetRunStatus(ctx context.Context, runID string) (*models.RunSnapshot, error) {
	var reply statusReply
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/runs/" + runID,
	}, &reply)
	if err != nil {
		return nil, &PollError{RunID: runID, Err: err}
	}

	snap := &models.RunSnapshot{
		RunID:   reply.RunID,
		Status:  models.RunStatus(reply.Status),
		Results: make([]models.ProviderResult, 0, len(reply.Results)),
	}
	for _, w := range reply.Results {
		snap.Results = append(snap.Results, decodeResult(w))
	}
	return snap, nil
}

// decodeResult maps the flat wire shape onto the tagged domain result.
// A populated error field always wins: success fields on an errored
// entry are discarded rather than trusted.
func decodeResult(w wireResult) models.ProviderResult {
	ref := models.ProviderRef{Provider: w.Provider, Model: w.Model}
	if w.Error != "" {
		return models.ErrResult(ref, w.Error)
	}
	return models.OkResult(ref, models.ProviderAnswer{
		Rating:     models.Rating(w.Rating),
		Score:      w.Score,
		Confidence: w.Confidence,
		Summary:    w.Summary,
		LatencyMs:  w.DurationMs,
	})
}

func readServerMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er errorReply
	if err := json.Unmarshal(b, &er); err == nil && er.Error != "" {
		return er.Error
	}
	if len(b) > 0 {
		return string(b)
	}
	return fmt.Sprintf("run service rejected the request (status %d)", resp.StatusCode)
}
