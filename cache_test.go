package retry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/retry"
)

func TestMapRetryContextCache_GetPutRemove(t *testing.T) {
	c := retry.NewMapRetryContextCache(0)
	ctx := retry.NewRetryContext(nil)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("k", ctx))
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Same(t, ctx, got)

	c.Remove("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMapRetryContextCache_CapacityExceeded(t *testing.T) {
	c := retry.NewMapRetryContextCache(2)
	require.NoError(t, c.Put("a", retry.NewRetryContext(nil)))
	require.NoError(t, c.Put("b", retry.NewRetryContext(nil)))

	err := c.Put("c", retry.NewRetryContext(nil))
	require.Error(t, err)
	var capErr *retry.CacheCapacityExceededError
	assert.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Capacity)

	// Overwriting an existing key is always allowed, even at capacity.
	assert.NoError(t, c.Put("a", retry.NewRetryContext(nil)))
	assert.Equal(t, 2, c.Len())
}
