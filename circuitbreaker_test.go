package retry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/retry"
)

func TestCircuitBreakerRetryPolicy_OpensAfterDelegateExhausts(t *testing.T) {
	clock := newFakeClock()
	delegate := retry.NewMaxAttemptsPolicy(1)
	breaker := retry.NewCircuitBreakerRetryPolicy(delegate, 50*time.Millisecond, 500*time.Millisecond)
	breaker.Clock = clock

	ctx, err := breaker.Open(nil)
	require.NoError(t, err)

	assert.True(t, breaker.CanRetry(ctx))
	breaker.RegisterError(ctx, errors.New("boom"))
	assert.False(t, breaker.CanRetry(ctx), "delegate exhausted after one attempt, breaker should be open")
	assert.True(t, ctx.BoolAttribute(retry.AttrCircuitOpen))
}

func TestCircuitBreakerRetryPolicy_ClosesAfterResetTimeout(t *testing.T) {
	clock := newFakeClock()
	delegate := retry.NewMaxAttemptsPolicy(1)
	breaker := retry.NewCircuitBreakerRetryPolicy(delegate, 50*time.Millisecond, 200*time.Millisecond)
	breaker.Clock = clock

	ctx, _ := breaker.Open(nil)
	breaker.RegisterError(ctx, errors.New("boom"))
	assert.False(t, breaker.CanRetry(ctx))

	clock.Advance(201 * time.Millisecond)
	assert.True(t, breaker.CanRetry(ctx), "reset timeout elapsed, delegate should get a fresh context")
	assert.False(t, ctx.BoolAttribute(retry.AttrCircuitOpen))
}

func TestCircuitBreakerRetryPolicy_SharesStateAcrossOpenCalls(t *testing.T) {
	delegate := retry.NewMaxAttemptsPolicy(1)
	breaker := retry.NewCircuitBreakerRetryPolicy(delegate, 50*time.Millisecond, 200*time.Millisecond)

	first, err := breaker.Open(nil)
	require.NoError(t, err)
	second, err := breaker.Open(nil)
	require.NoError(t, err)
	assert.Same(t, first, second, "breaker state is process-wide, not per-call")
}

func TestCircuitBreakerRetryPolicy_ShortCountIncrementsWhileOpen(t *testing.T) {
	clock := newFakeClock()
	delegate := retry.NewMaxAttemptsPolicy(1)
	breaker := retry.NewCircuitBreakerRetryPolicy(delegate, 50*time.Millisecond, 500*time.Millisecond)
	breaker.Clock = clock

	ctx, _ := breaker.Open(nil)
	breaker.RegisterError(ctx, errors.New("boom"))
	assert.False(t, breaker.CanRetry(ctx))
	assert.False(t, breaker.CanRetry(ctx))
	assert.False(t, breaker.CanRetry(ctx))

	v, ok := ctx.Attribute(retry.AttrCircuitShortCount)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v.(int), 3)
}

func TestCircuitBreakerRetryPolicy_Reset(t *testing.T) {
	delegate := retry.NewMaxAttemptsPolicy(1)
	breaker := retry.NewCircuitBreakerRetryPolicy(delegate, 50*time.Millisecond, 500*time.Millisecond)

	first, _ := breaker.Open(nil)
	breaker.Reset()
	second, _ := breaker.Open(nil)
	assert.NotSame(t, first, second)
}
