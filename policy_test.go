package retry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/retry"
)

func TestNeverRetryPolicy(t *testing.T) {
	p := retry.NeverRetryPolicy{}
	ctx, err := p.Open(nil)
	require.NoError(t, err)
	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("boom"))
	assert.False(t, p.CanRetry(ctx))
	assert.Equal(t, 1, p.MaxAttempts())
}

func TestAlwaysRetryPolicy(t *testing.T) {
	p := retry.AlwaysRetryPolicy{}
	ctx, _ := p.Open(nil)
	for i := 0; i < 100; i++ {
		assert.True(t, p.CanRetry(ctx))
		p.RegisterError(ctx, errors.New("x"))
	}
	assert.Equal(t, -1, p.MaxAttempts())
}

func TestSimpleRetryPolicy_MaxAttempts(t *testing.T) {
	p := retry.NewMaxAttemptsPolicy(3)
	ctx, err := p.Open(nil)
	require.NoError(t, err)

	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("1"))
	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("2"))
	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("3"))
	assert.False(t, p.CanRetry(ctx))
}

func TestSimpleRetryPolicy_ClassifierStopsEarly(t *testing.T) {
	classifier := retry.NewBinaryClassifier(false).AddType(&fatalError{}, false).AddType(&retryableError{}, true)
	p := retry.NewSimpleRetryPolicy(5, classifier)
	ctx, _ := p.Open(nil)

	p.RegisterError(ctx, &retryableError{msg: "transient"})
	assert.True(t, p.CanRetry(ctx))

	p.RegisterError(ctx, &fatalError{msg: "dead"})
	assert.False(t, p.CanRetry(ctx))
}

func TestSimpleRetryPolicy_NotRecoverableSetsAttribute(t *testing.T) {
	p := &retry.SimpleRetryPolicy{
		MaxAttemptsFunc: func() int { return 1 },
		Classifier:      retry.AlwaysRetryableClassifier,
		NotRecoverable:  retry.AlwaysRetryableClassifier,
	}
	ctx, _ := p.Open(nil)
	p.RegisterError(ctx, errors.New("boom"))
	assert.False(t, p.CanRetry(ctx))
	assert.True(t, ctx.BoolAttribute(retry.AttrContextNoRecovery))
}

func TestBinaryExceptionClassifierPolicy(t *testing.T) {
	classifier := retry.NewBinaryClassifier(false).AddType(&retryableError{}, true)
	p := retry.NewBinaryExceptionClassifierPolicy(classifier)
	ctx, _ := p.Open(nil)

	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, &retryableError{msg: "x"})
	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("unregistered"))
	assert.False(t, p.CanRetry(ctx))
	assert.Equal(t, -1, p.MaxAttempts())
}

func TestCompositeRetryPolicy_AND(t *testing.T) {
	p := retry.NewCompositeRetryPolicy(retry.CompositeAND,
		retry.NewMaxAttemptsPolicy(5),
		retry.NewMaxAttemptsPolicy(2),
	)
	ctx, err := p.Open(nil)
	require.NoError(t, err)

	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("1"))
	assert.True(t, p.CanRetry(ctx))
	p.RegisterError(ctx, errors.New("2"))
	assert.False(t, p.CanRetry(ctx), "second child exhausted at 2 attempts")
}

func TestCompositeRetryPolicy_OR(t *testing.T) {
	p := retry.NewCompositeRetryPolicy(retry.CompositeOR,
		retry.NewMaxAttemptsPolicy(5),
		retry.NewMaxAttemptsPolicy(1),
	)
	ctx, _ := p.Open(nil)

	p.RegisterError(ctx, errors.New("1"))
	assert.True(t, p.CanRetry(ctx), "first child still allows up to 5 attempts")
}

func TestTimeoutRetryPolicy(t *testing.T) {
	clock := newFakeClock()
	p := retry.NewTimeoutRetryPolicy(100*time.Millisecond, clock)
	ctx, err := p.Open(nil)
	require.NoError(t, err)

	assert.True(t, p.CanRetry(ctx))
	clock.Advance(200 * time.Millisecond)
	assert.False(t, p.CanRetry(ctx))
}
