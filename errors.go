package retry

import "fmt"

// RetryError is the error the engine itself returns when it has no
// failure of the operation to report (for example when the retry policy
// permitted no attempt at all), and the struct embedded by
// ExhaustedRetryError, TerminatedRetryError and BackOffInterruptedError.
// CacheCapacityExceededError and InconsistentCacheStateError are separate
// types that do not embed it. errors.As with a *RetryError target matches
// only a *RetryError itself, not the types that embed it.
type RetryError struct {
	Message string
	Cause   error
}

// Error implements error.
func (e *RetryError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *RetryError) Unwrap() error { return e.Cause }

// ExhaustedRetryError is returned when a stateful retry's attempts are
// exhausted and throwLastExceptionOnExhausted is false, so the caller
// gets a dedicated "gave up" error instead of the raw last failure.
type ExhaustedRetryError struct {
	RetryError
	Attempts int
}

// NewExhaustedRetryError builds an ExhaustedRetryError wrapping the last
// observed failure.
func NewExhaustedRetryError(attempts int, last error) *ExhaustedRetryError {
	return &ExhaustedRetryError{
		RetryError: RetryError{Message: "retry attempts exhausted", Cause: last},
		Attempts:   attempts,
	}
}

// TerminatedRetryError is returned when a Listener's Open vetoes an
// execution, before any attempt is made.
type TerminatedRetryError struct {
	RetryError
}

// NewTerminatedRetryError builds a TerminatedRetryError wrapping the
// terminal cause.
func NewTerminatedRetryError(cause error) *TerminatedRetryError {
	return &TerminatedRetryError{RetryError{Message: "retry terminated", Cause: cause}}
}

// BackOffInterruptedError is returned when a BackOffPolicy's wait is
// interrupted, typically by the operation's context.Context being
// canceled or timing out mid-sleep.
type BackOffInterruptedError struct {
	RetryError
}

// NewBackOffInterruptedError builds a BackOffInterruptedError wrapping
// the interruption cause (usually a context error).
func NewBackOffInterruptedError(cause error) *BackOffInterruptedError {
	return &BackOffInterruptedError{RetryError{Message: "back-off interrupted", Cause: cause}}
}

// CacheCapacityExceededError is returned by a RetryContextCache.Put when
// the cache is full and the key is new. It usually indicates a
// stateful-retry key that is never being completed or recovered, so
// contexts accumulate without bound.
type CacheCapacityExceededError struct {
	Capacity int
}

// Error implements error.
func (e *CacheCapacityExceededError) Error() string {
	return fmt.Sprintf("retry: context cache capacity %d exceeded", e.Capacity)
}

// InconsistentCacheStateError reports a stateful-retry key whose cached
// context is missing when it is expected to be present. Template does not
// return it: a stateful call whose key is absent from the cache opens a
// fresh context, whatever its earlier attempt count was.
type InconsistentCacheStateError struct {
	Key any
}

// Error implements error.
func (e *InconsistentCacheStateError) Error() string {
	return fmt.Sprintf("retry: inconsistent cache state for key %v", e.Key)
}
