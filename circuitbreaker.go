package retry

import "time"

// circuitBreakerCacheKey is a private sentinel type so a
// CircuitBreakerRetryPolicy's own persistent context can share a cache
// instance with caller-supplied RetryState keys (of whatever type the
// caller chooses) without ever colliding with one.
type circuitBreakerCacheKey struct{ name string }

// CircuitBreakerRetryPolicy wraps a delegate policy and adds a
// persistent open/closed state that survives across separate top-level
// executions, independent of whether the caller uses RetryState at all.
// It implements the state machine described for circuit-breaker style
// retries: once the delegate can no longer retry, the breaker opens,
// rejecting calls immediately (and counting them in circuit.shortCount).
// A rejection within openTimeout of the breaker's window start restarts
// that window; later rejections leave it alone. Once resetTimeout has
// elapsed since the window start, the breaker closes again and gives the
// delegate a fresh context.
type CircuitBreakerRetryPolicy struct {
	Delegate     RetryPolicy
	OpenTimeout  func() time.Duration
	ResetTimeout func() time.Duration
	Clock        Clock

	cache RetryContextCache
	key   any
}

// NewCircuitBreakerRetryPolicy builds a breaker around delegate with
// fixed open/reset timeouts. The breaker keeps its persistent state in a
// private cache unless WithBreakerCache is used to share one.
func NewCircuitBreakerRetryPolicy(delegate RetryPolicy, openTimeout, resetTimeout time.Duration) *CircuitBreakerRetryPolicy {
	return &CircuitBreakerRetryPolicy{
		Delegate:     delegate,
		OpenTimeout:  func() time.Duration { return openTimeout },
		ResetTimeout: func() time.Duration { return resetTimeout },
		Clock:        RealClock(),
		cache:        NewMapRetryContextCache(1),
		key:          circuitBreakerCacheKey{name: "circuit"},
	}
}

// WithBreakerCache overrides the cache (and optionally the key) used to
// persist the breaker's state, e.g. to share a single cache instance
// across several breakers and the engine's own stateful-retry cache.
func (p *CircuitBreakerRetryPolicy) WithBreakerCache(cache RetryContextCache, key any) *CircuitBreakerRetryPolicy {
	p.cache = cache
	p.key = key
	return p
}

// Open implements RetryPolicy. It returns the single persistent context
// this breaker tracks, creating it on the very first call and reusing it
// thereafter regardless of parent — the breaker's state is process-wide,
// not per-call.
func (p *CircuitBreakerRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	if ctx, ok := p.cache.Get(p.key); ok {
		return ctx, nil
	}
	ctx := NewRetryContext(parent)
	inner, err := p.Delegate.Open(nil)
	if err != nil {
		return nil, err
	}
	ctx.breakerInner = inner
	ctx.breakerStart = p.Clock.Now()
	ctx.SetAttribute(AttrStateGlobal, true)
	if err := p.cache.Put(p.key, ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// CanRetry implements RetryPolicy, running the open/closed/reset state
// machine described on CircuitBreakerRetryPolicy.
func (p *CircuitBreakerRetryPolicy) CanRetry(ctx *RetryContext) bool {
	elapsed := p.Clock.Now().Sub(ctx.breakerStart)
	delegateCanRetry := p.Delegate.CanRetry(ctx.breakerInner)

	if !delegateCanRetry {
		switch {
		case elapsed > p.ResetTimeout():
			// Reset window elapsed with no successful close in between:
			// give the delegate a clean slate.
			inner, err := p.Delegate.Open(nil)
			if err == nil {
				ctx.breakerInner = inner
				ctx.breakerStart = p.Clock.Now()
				delegateCanRetry = p.Delegate.CanRetry(ctx.breakerInner)
			}
		case elapsed < p.OpenTimeout():
			// Freshly opening: start the open window.
			ctx.breakerStart = p.Clock.Now()
		default:
			// openTimeout <= elapsed <= resetTimeout: stay open, let
			// elapsed keep accruing toward resetTimeout untouched.
		}
	} else if elapsed > p.OpenTimeout() {
		// Delegate is healthy and we've been closed longer than
		// openTimeout: roll the window forward so a long-lived breaker
		// doesn't carry an ever-growing elapsed time.
		inner, err := p.Delegate.Open(nil)
		if err == nil {
			ctx.breakerInner = inner
			ctx.breakerStart = p.Clock.Now()
		}
	}

	ctx.SetAttribute(AttrCircuitOpen, !delegateCanRetry)
	if !delegateCanRetry {
		ctx.incCircuitShortCount()
	}
	return delegateCanRetry
}

// RegisterError implements RetryPolicy, forwarding to the delegate's own
// context as well as recording on the breaker's outer context so
// ctx.LastError reflects the most recent failure even while the breaker
// is open and no attempts are occurring.
func (p *CircuitBreakerRetryPolicy) RegisterError(ctx *RetryContext, err error) {
	ctx.registerError(err)
	p.Delegate.RegisterError(ctx.breakerInner, err)
}

// Close implements RetryPolicy. The breaker's own context is
// intentionally not closed with the delegate here: it is state.global
// and persists in the cache across executions; only Reset tears it down.
func (p *CircuitBreakerRetryPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy, deferring to the delegate.
func (p *CircuitBreakerRetryPolicy) MaxAttempts() int { return p.Delegate.MaxAttempts() }

// Reset discards the breaker's persistent context, forcing the next
// Open to start fresh. Useful for tests and for operator-triggered
// manual resets.
func (p *CircuitBreakerRetryPolicy) Reset() {
	p.cache.Remove(p.key)
}
