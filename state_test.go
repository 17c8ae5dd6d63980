package retry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaypoint/retry"
)

func TestRetryState_NilIsSafe(t *testing.T) {
	var state *retry.RetryState
	assert.True(t, retry.ShouldRollback(state, errors.New("x")), "nil state rolls back by default")
}

func TestRetryState_RollbackForClassifier(t *testing.T) {
	classifier := retry.NewBinaryClassifier(false).AddType(&fatalError{}, true)
	state := &retry.RetryState{RollbackFor: classifier}

	assert.True(t, retry.ShouldRollback(state, &fatalError{msg: "x"}))
	assert.False(t, retry.ShouldRollback(state, &retryableError{msg: "x"}))
}

func TestRetryState_DefaultRollbackIsAlwaysTrue(t *testing.T) {
	state := &retry.RetryState{}
	assert.True(t, retry.ShouldRollback(state, errors.New("anything")))
}
