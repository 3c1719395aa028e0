// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import "fmt"

// InputError reports a malformed batch request (wrong sub-objective
// count, empty strings, unknown objective). It is raised before any
// completion call is made and is never retried.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "input: " + e.Reason
}

// inputErrorf builds an *InputError with a formatted reason.
func inputErrorf(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// TransientError marks an underlying failure as retryable: a timeout,
// rate limit, or 5xx-class service failure. The retry loop keeps going
// while the attempt budget lasts.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FatalError marks an underlying failure as non-retryable: an
// authentication failure or a request the service rejected outright.
// The retry loop aborts immediately without consuming the budget.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	if e == nil || e.Err == nil {
		return "fatal error"
	}
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// GenerationError is the completion client's final failure signal for
// one sub-objective: the retry policy is exhausted or a fatal error was
// hit. It carries the sub-objective, the number of attempts made, and
// the last underlying error.
type GenerationError struct {
	SubObjective string
	Attempts     int
	Err          error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating links for %q after %d attempt(s): %v", e.SubObjective, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
