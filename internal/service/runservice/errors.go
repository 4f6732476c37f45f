package runservice

import "fmt"

// SubmissionError is a terminal create-run failure. Message carries the
// server-provided rejection verbatim when one was returned.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("run submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError is a transport failure on a status check. It is terminal for
// the run; the orchestrator never silently retries it.
type PollError struct {
	RunID string
	Err   error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("run %s status check failed: %v", e.RunID, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }
