package domain

import (
	"fmt"
	"strings"
	"time"
)

// BackendUnavailableError reports a failed availability probe or connection.
// Recovered by the orchestrator via fallback; not surfaced to callers.
type BackendUnavailableError struct {
	Backend string
	Reason  string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("backend %s unavailable: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// GenerationTimeoutError reports that a generation stage exceeded its budget.
type GenerationTimeoutError struct {
	Backend string
	Budget  time.Duration
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("backend %s timed out after %s", e.Backend, e.Budget)
}

// MalformedResponseError reports that both the strict and tolerant response
// parsers failed on a remote backend's payload.
type MalformedResponseError struct {
	Backend string
	Detail  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("backend %s returned a malformed response: %s", e.Backend, e.Detail)
}

// BackendFailure records one failed fallback-chain entry for reporting.
type BackendFailure struct {
	Backend string
	Err     error
}

// NoBackendsAvailableError means every backend in the fallback chain failed,
// embedded included. One of the two hard failures surfaced to callers.
type NoBackendsAvailableError struct {
	Attempts []BackendFailure
}

func (e *NoBackendsAvailableError) Error() string {
	if len(e.Attempts) == 0 {
		return "no generation backends available"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%v)", a.Backend, a.Err))
	}
	return "no generation backends available; tried " + strings.Join(parts, ", ")
}

// InvalidPatternError reports a malformed custom danger pattern at startup.
// Fatal at initialization; never recoverable mid-run.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid danger pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }
