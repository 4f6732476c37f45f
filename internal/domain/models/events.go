package models

import "time"

// RunCompletedEvent is emitted once per terminal run for downstream consumers.
type RunCompletedEvent struct {
	RunID      string         `json:"run_id"`
	Phase      string         `json:"phase"`
	Verdict    Verdict        `json:"verdict,omitempty"`
	Counts     map[Rating]int `json:"counts,omitempty"`
	Providers  int            `json:"providers"`
	Failures   int            `json:"failures"`
	DurationMs int64          `json:"duration_ms"`
	At         time.Time      `json:"at"`
}

// LastRun is the single most recent terminal run kept for quick reads.
// It is an ephemeral convenience slot, not run history.
type LastRun struct {
	Phase    string            `json:"phase"`
	Snapshot *RunSnapshot      `json:"snapshot,omitempty"`
	Verdict  *ConsensusVerdict `json:"verdict,omitempty"`
	Error    string            `json:"error,omitempty"`
	At       time.Time         `json:"at"`
}
