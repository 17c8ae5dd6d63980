package retry

import (
	"context"
	"errors"
)

// OperationFunc is a retryable operation with no return value beyond
// error. It receives both the ambient context.Context (for cancellation
// and request-scoped values) and the RetryContext tracking this
// execution, so it can inspect RetryCount, set attributes consulted by
// a later attempt, or call SetExhaustedOnly to cut retries short.
type OperationFunc func(ctx context.Context, rc *RetryContext) error

// RecoveryFunc runs once an operation's retries are exhausted, producing
// a fallback result instead of propagating the last failure.
type RecoveryFunc func(ctx context.Context, rc *RetryContext, lastErr error) error

// OperationFuncT is the generic counterpart of OperationFunc for
// operations that produce a value.
type OperationFuncT[T any] func(ctx context.Context, rc *RetryContext) (T, error)

// RecoveryFuncT is the generic counterpart of RecoveryFunc.
type RecoveryFuncT[T any] func(ctx context.Context, rc *RetryContext, lastErr error) (T, error)

// Template is the full retry engine: a RetryPolicy deciding how many
// attempts are allowed and for which errors, a BackOffPolicy governing
// the wait between them, a set of Listeners observing the lifecycle, and
// a RetryContextCache backing stateful retries. It implements the
// complete attempt/backoff/listener/stateful-retry protocol, including
// recovery callbacks and circuit-breaker style persistent policies.
//
// A Template is safe for concurrent use once constructed; each call to
// Execute/ExecuteStateful opens its own RetryContext (or resumes a
// cached one for a stateful key) and does not share mutable state with
// any other in-flight call except through the configured cache.
type Template struct {
	RetryPolicy   RetryPolicy
	BackOffPolicy BackOffPolicy
	Listeners     []Listener
	Cache         RetryContextCache

	// ThrowLastExceptionOnExhausted, when true and a RetryState is in
	// use, rethrows the operation's own last error on exhaustion instead
	// of wrapping it in an ExhaustedRetryError.
	ThrowLastExceptionOnExhausted bool

	// PropagateContext, when true, stores the active RetryContext under
	// a context.Context value so CurrentContext can retrieve it from
	// deep inside the operation without it being threaded explicitly
	// (the context.WithValue substitute for the thread-local the
	// original design relied on).
	PropagateContext bool
}

// NewTemplate builds a Template with the given policy and back-off,
// defaulting to no listeners and a 4096-entry in-memory context cache.
func NewTemplate(policy RetryPolicy, backOff BackOffPolicy) *Template {
	if backOff == nil {
		backOff = NoBackOffPolicy{}
	}
	return &Template{
		RetryPolicy:   policy,
		BackOffPolicy: backOff,
		Cache:         NewMapRetryContextCache(4096),
	}
}

// Execute runs fn under this template's policy with no recovery
// callback: on exhaustion, the last error propagates to the caller.
func (t *Template) Execute(ctx context.Context, fn OperationFunc) error {
	_, err := runLoop(ctx, t, nil, adaptFunc(fn), nil)
	return err
}

// ExecuteWithRecovery runs fn, falling back to recovery if retries are
// exhausted.
func (t *Template) ExecuteWithRecovery(ctx context.Context, fn OperationFunc, recovery RecoveryFunc) error {
	_, err := runLoop(ctx, t, nil, adaptFunc(fn), adaptRecovery(recovery))
	return err
}

// ExecuteStateful runs fn as one attempt in a stateful retry identified
// by state.Key: separate top-level calls sharing a key resume the same
// RetryContext rather than starting over, letting a caller retry a
// logically single operation across, say, several inbound requests
// after a crash.
func (t *Template) ExecuteStateful(ctx context.Context, fn OperationFunc, recovery RecoveryFunc, state *RetryState) error {
	_, err := runLoop(ctx, t, state, adaptFunc(fn), adaptRecovery(recovery))
	return err
}

func adaptFunc(fn OperationFunc) OperationFuncT[struct{}] {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, rc *RetryContext) (struct{}, error) {
		return struct{}{}, fn(ctx, rc)
	}
}

func adaptRecovery(fn RecoveryFunc) RecoveryFuncT[struct{}] {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, rc *RetryContext, lastErr error) (struct{}, error) {
		return struct{}{}, fn(ctx, rc, lastErr)
	}
}

// DoWithResult runs a value-returning operation under tmpl with no
// recovery callback.
func DoWithResult[T any](ctx context.Context, tmpl *Template, fn OperationFuncT[T]) (T, error) {
	return runLoop(ctx, tmpl, nil, fn, nil)
}

// DoStatefulWithResult runs a value-returning operation as one attempt
// in a stateful retry, with an optional recovery callback.
func DoStatefulWithResult[T any](ctx context.Context, tmpl *Template, fn OperationFuncT[T], recovery RecoveryFuncT[T], state *RetryState) (T, error) {
	return runLoop(ctx, tmpl, state, fn, recovery)
}

// runLoop is the execution engine shared by every Template entry point:
// it opens (or resumes) a RetryContext, notifies listeners, attempts the
// operation under the retry policy and back-off policy, and finally
// hands exhaustion off to recovery or propagates the last failure.
func runLoop[T any](ctx context.Context, t *Template, state *RetryState, fn OperationFuncT[T], recovery RecoveryFuncT[T]) (T, error) {
	var zero T

	rc, cached, err := openContext(t, state)
	if err != nil {
		return zero, err
	}
	if t.PropagateContext {
		ctx = withCurrentContext(ctx, rc)
	}

	listeners := multicastListener{listeners: t.Listeners}
	if !listeners.Open(rc) {
		return zero, &TerminatedRetryError{RetryError{Message: "retry execution vetoed by listener"}}
	}

	boCtx, err := t.BackOffPolicy.Start(rc)
	if err != nil {
		return zero, err
	}

	var result T
	var lastErr error

	// abort marks an infrastructural exit (cancellation, an interrupted
	// back-off, or a stateful rollback-triggered rethrow) that must
	// bypass recovery and ExhaustedRetryError wrapping entirely: the
	// failure propagates raw, and the cached context (for the rollback
	// case) is left exactly as registered for the next invocation.
	abort := false

	for t.RetryPolicy.CanRetry(rc) && !rc.ExhaustedOnly() {
		if err := ctx.Err(); err != nil {
			lastErr = err
			abort = true
			break
		}

		result, lastErr = fn(ctx, rc)
		if lastErr == nil {
			rc.SetAttribute(AttrContextClosed, true)
			listeners.OnSuccess(rc)
			t.RetryPolicy.Close(rc)
			if cached && !rc.BoolAttribute(AttrStateGlobal) {
				t.Cache.Remove(cacheKeyFor(state))
			}
			listeners.Close(rc, nil)
			return result, nil
		}

		t.RetryPolicy.RegisterError(rc, lastErr)
		registerInCache(t, rc, state, cached)
		listeners.OnError(rc, lastErr)

		if nonRetryableStop(lastErr) {
			lastErr = unwrapStop(lastErr)
			break
		}

		stillRetryable := t.RetryPolicy.CanRetry(rc) && !rc.ExhaustedOnly()
		if stillRetryable {
			if err := t.BackOffPolicy.BackOff(ctx, boCtx); err != nil {
				lastErr = err
				abort = true
				break
			}
		}

		// §4.7 (C): only an invocation that still has attempt budget left
		// defers to the rollback classifier's "hand this back to the
		// caller" verdict. Once the policy itself is exhausted, the
		// classifier's verdict is moot — the loop falls through to its
		// own natural exit and (E) decides recovery vs. exhaustion.
		if stillRetryable && shouldRethrow(state, lastErr) {
			abort = true
			break
		}

		if rc.BoolAttribute(AttrStateGlobal) {
			// A circuit-breaker-style policy owns reattempt timing across
			// separate top-level invocations; a single call only ever
			// makes one attempt against it.
			break
		}
	}

	if abort {
		t.RetryPolicy.Close(rc)
		multicastListener{listeners: t.Listeners}.Close(rc, lastErr)
		return zero, lastErr
	}

	return handleExhausted(ctx, t, rc, state, cached, lastErr, recovery)
}

// shouldRethrow implements §4.7 (C): in stateful mode, the rollback
// classifier decides whether a failure must propagate immediately
// (leaving the cached context for the next invocation to resume) or be
// retried further within this call. Stateless calls (state == nil)
// never rethrow mid-loop.
func shouldRethrow(state *RetryState, err error) bool {
	return state != nil && state.rollbackFor(err)
}

func unwrapStop(err error) error {
	var se *stopError
	if errors.As(err, &se) {
		return se.err
	}
	return err
}

// openContext implements §4.7 (A): a stateless call always opens a fresh
// context; a stateful call resumes the cached context for state.Key
// unless it is missing or a refresh was requested.
func openContext(t *Template, state *RetryState) (*RetryContext, bool, error) {
	if state == nil {
		rc, err := t.RetryPolicy.Open(nil)
		return rc, false, err
	}

	key := cacheKeyFor(state)
	if !state.forceRefresh() {
		if rc, ok := t.Cache.Get(key); ok {
			rc.clearInvocationState()
			return rc, true, nil
		}
	} else {
		t.Cache.Remove(key)
	}

	rc, err := t.RetryPolicy.Open(nil)
	if err != nil {
		return nil, false, err
	}
	rc.SetAttribute(AttrContextState, state)
	if err := t.Cache.Put(key, rc); err != nil {
		return nil, false, err
	}
	return rc, true, nil
}

type stateCacheKey struct{ key any }

func cacheKeyFor(state *RetryState) any {
	return stateCacheKey{key: state.Key}
}

func registerInCache(t *Template, rc *RetryContext, state *RetryState, cached bool) {
	if !cached || state == nil {
		return
	}
	_ = t.Cache.Put(cacheKeyFor(state), rc)
}

// handleExhausted implements §4.7 (E): close listeners, decide whether
// recovery runs, and otherwise either raise ExhaustedRetryError (for a
// stateful call that opted out of raw rethrow) or propagate the last
// failure unchanged.
func handleExhausted[T any](ctx context.Context, t *Template, rc *RetryContext, state *RetryState, cached bool, lastErr error, recovery RecoveryFuncT[T]) (T, error) {
	var zero T

	rc.SetAttribute(AttrContextExhausted, true)
	t.RetryPolicy.Close(rc)
	listeners := multicastListener{listeners: t.Listeners}
	listeners.Close(rc, lastErr)

	if cached && !rc.BoolAttribute(AttrStateGlobal) {
		t.Cache.Remove(cacheKeyFor(state))
	}

	if lastErr == nil {
		// The retry policy never permitted a single attempt (e.g. a
		// non-positive maxAttempts): treat this as immediate exhaustion
		// rather than reporting a false success.
		lastErr = &RetryError{Message: "retry policy permitted no attempts"}
	}

	if !rc.BoolAttribute(AttrContextNoRecovery) && recovery != nil {
		rc.SetAttribute(AttrContextRecovered, true)
		return recovery(ctx, rc, lastErr)
	}

	if state != nil && !t.ThrowLastExceptionOnExhausted {
		return zero, NewExhaustedRetryError(rc.RetryCount(), lastErr)
	}
	return zero, lastErr
}
