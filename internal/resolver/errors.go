package resolver

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports that the external resolver exceeded the
// caller-supplied bound. A resolver bug under investigation can loop or
// stall, so the wrapper never waits indefinitely; the timeout is a
// scenario-level failure, not a harness crash.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resolution timed out after %s: %s", e.Timeout, e.Command)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// InvokeError reports a resolver process failure that is neither a
// timeout nor a recognized version conflict. The exit code is always
// surfaced; a non-zero exit is never silently treated as "no
// dependencies".
type InvokeError struct {
	Command  string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited %d", e.Command, e.ExitCode)
}

// Conflict describes a resolution conflict reported by the resolver:
// no single version satisfied all constraints on some dependency. It is
// a valid outcome compared against the scenario's expectation, not a
// harness error.
type Conflict struct {
	// Description is the resolver's own diagnostic line.
	Description string

	// Stderr is the trailing resolver stderr around the diagnostic,
	// kept for the run trace and report.
	Stderr string
}
