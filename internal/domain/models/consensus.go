package models

// Verdict is the aggregated outcome over non-errored provider ratings.
type Verdict string

const (
	VerdictBuy   Verdict = "BUY"
	VerdictHold  Verdict = "HOLD"
	VerdictSell  Verdict = "SELL"
	VerdictSplit Verdict = "SPLIT"
)

// ConsensusVerdict is derived fresh from a RunSnapshot when needed.
// It has no lifecycle of its own and is never persisted.
type ConsensusVerdict struct {
	Verdict Verdict        `json:"verdict"`
	Counts  map[Rating]int `json:"counts"`
}
