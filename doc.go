// Package retry provides a pluggable retry execution engine modeled on
// the classic retry-template pattern: a RetryPolicy decides whether
// another attempt is allowed, a BackOffPolicy decides how long to wait
// before it, and a Template ties the two together around the operation
// being retried.
//
// retry provides:
//
//   - Pluggable RetryPolicy: simple, max-attempts-only, classifier-driven,
//     AND/OR composites, timeout-bounded, and circuit-breaker variants
//   - Pluggable BackOffPolicy: none, fixed, uniform-random, exponential,
//     and exponential-with-jitter
//   - Injectable Clock: control time in tests without real sleeps
//   - Listener hooks: Open/OnError/OnSuccess/Close for observability
//   - Stateful retries: resume the same RetryContext across independent
//     top-level calls that share a RetryState key
//
// # Terminal Errors
//
// Use Stop to signal that an error should not be retried:
//
//	func fetchUser(ctx context.Context, id string) (*User, error) {
//	    user, err := db.Get(ctx, id)
//	    if errors.Is(err, sql.ErrNoRows) {
//	        return nil, retry.Stop(ErrNotFound) // don't retry "not found"
//	    }
//	    return user, err // other errors are still eligible for retry
//	}
//
// # Testing
//
// Inject a fake Clock to control time in tests instead of sleeping for
// real:
//
//	type fakeClock struct {
//	    now    time.Time
//	    sleeps []time.Duration
//	}
//
//	func (c *fakeClock) Now() time.Time { return c.now }
//	func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
//	    c.sleeps = append(c.sleeps, d)
//	    c.now = c.now.Add(d)
//	    return ctx.Err()
//	}
//
//	func TestTransfer(t *testing.T) {
//	    clock := &fakeClock{now: time.Now()}
//	    tmpl := retry.NewTemplate(
//	        retry.NewMaxAttemptsPolicy(3),
//	        &retry.FixedBackOffPolicy{Interval: 100 * time.Millisecond, Clock: clock},
//	    )
//
//	    attempts := 0
//	    _ = tmpl.Execute(context.Background(), func(ctx context.Context, rc *retry.RetryContext) error {
//	        attempts++
//	        return errors.New("fail")
//	    })
//
//	    assert.Equal(t, 3, attempts)
//	    assert.Len(t, clock.sleeps, 2) // 2 sleeps between 3 attempts
//	}
//
// # Template: the retry engine
//
// Template drives an operation against a RetryPolicy (how many times,
// and on which errors, to retry) and a BackOffPolicy (how long to wait
// between attempts):
//
//	tmpl := retry.NewTemplate(
//	    retry.NewSimpleRetryPolicy(5, retry.NewBinaryClassifier(true)),
//	    retry.NewExponentialBackOffWithJitterPolicy(100*time.Millisecond, 2.0, 10*time.Second),
//	)
//	err := tmpl.Execute(ctx, func(ctx context.Context, rc *retry.RetryContext) error {
//	    return client.Call(ctx)
//	})
//
// A CircuitBreakerRetryPolicy wraps any other RetryPolicy and remembers
// whether it is open or closed across separate Template calls, so a
// downstream outage trips the breaker for a configured window instead
// of every caller hammering it with its own independent retry budget:
//
//	breaker := retry.NewCircuitBreakerRetryPolicy(
//	    retry.NewMaxAttemptsPolicy(3), 5*time.Second, 20*time.Second,
//	)
//	tmpl := retry.NewTemplate(breaker, retry.NewFixedBackOffPolicy(200*time.Millisecond))
//
// Stateful retries identify "the same" logical operation by its
// arguments rather than by a tight loop, so it can resume across
// independent invocations:
//
//	op := retry.NewStatefulRetryOperation(tmpl)
//	err := op.Execute(ctx, doTransfer, recoverTransfer, nil, false, orderID)
package retry
