package models

import "time"

// Rating is a provider's directional call on the queried instrument.
type Rating string

const (
	RatingBuy  Rating = "BUY"
	RatingHold Rating = "HOLD"
	RatingSell Rating = "SELL"
)

// Ratings lists all valid ratings in tally order.
var Ratings = []Rating{RatingBuy, RatingHold, RatingSell}

// Valid reports whether r is a known rating.
func (r Rating) Valid() bool {
	return r == RatingBuy || r == RatingHold || r == RatingSell
}

// RunStatus is the far-side status of a comparison run.
type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// Terminal reports whether the run service will not change this status again.
func (s RunStatus) Terminal() bool {
	return s == RunComplete || s == RunFailed
}

// Template selects the prompt template applied by the run service.
type Template string

const (
	TemplateCustom      Template = "custom"
	TemplatePriceTarget Template = "price_target"
	TemplateSentiment   Template = "sentiment"
	TemplateRisk        Template = "risk"
)

// Templates lists the closed template enum.
var Templates = []Template{TemplateCustom, TemplatePriceTarget, TemplateSentiment, TemplateRisk}

// Valid reports whether t is a known template.
func (t Template) Valid() bool {
	for _, known := range Templates {
		if t == known {
			return true
		}
	}
	return false
}

// ProviderRef identifies one answer source as a vendor/model pair.
type ProviderRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// RunRequest is a validated, normalized create-run request.
// Exactly one of Prompt/Ticker is set, depending on the input mode.
type RunRequest struct {
	Prompt    string
	Ticker    string
	Providers []ProviderRef
	Template  Template
}

// RunHandle identifies a run accepted by the run service.
// Created once on submission and owned by the orchestrator thereafter.
type RunHandle struct {
	RunID     string
	CreatedAt time.Time
}

// ProviderAnswer is a successful provider response.
type ProviderAnswer struct {
	Rating     Rating  `json:"rating"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
	LatencyMs  int64   `json:"latency_ms"`
}

// ProviderResult is one provider's contribution to a run. Exactly one of
// Answer/Err is set; use OkResult/ErrResult to construct.
type ProviderResult struct {
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
	Answer   *ProviderAnswer `json:"answer,omitempty"`
	Err      string          `json:"error,omitempty"`
}

// OkResult builds a successful provider result.
func OkResult(ref ProviderRef, a ProviderAnswer) ProviderResult {
	return ProviderResult{Provider: ref.Provider, Model: ref.Model, Answer: &a}
}

// ErrResult builds a failed provider result.
func ErrResult(ref ProviderRef, msg string) ProviderResult {
	return ProviderResult{Provider: ref.Provider, Model: ref.Model, Err: msg}
}

// Failed reports whether the provider errored for this run.
func (r ProviderResult) Failed() bool { return r.Err != "" }

// RunSnapshot is the polled state of a run. Snapshots are replaced whole
// on each successful poll, never patched in place.
type RunSnapshot struct {
	RunID   string           `json:"run_id"`
	Status  RunStatus        `json:"status"`
	Results []ProviderResult `json:"results"`
}

// Clone returns a deep copy safe to hand to observers.
func (s *RunSnapshot) Clone() *RunSnapshot {
	if s == nil {
		return nil
	}
	out := &RunSnapshot{RunID: s.RunID, Status: s.Status}
	if s.Results != nil {
		out.Results = make([]ProviderResult, len(s.Results))
		for i, r := range s.Results {
			out.Results[i] = r
			if r.Answer != nil {
				a := *r.Answer
				out.Results[i].Answer = &a
			}
		}
	}
	return out
}
