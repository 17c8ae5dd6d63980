package rlog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaypoint/retry/internal/rlog"
)

func TestNewLogger_DoesNotPanicAcrossLevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		for _, format := range []string{"json", "text"} {
			log := rlog.NewLogger(level, format)
			assert.NotPanics(t, func() {
				log.Info("hello", rlog.Field{Key: "k", Value: "v"})
			})
		}
	}
}

func TestGlobalLogger_DefaultsWhenUnset(t *testing.T) {
	rlog.SetGlobalLogger(nil)
	log := rlog.GetGlobalLogger()
	assert.NotNil(t, log)
}

func TestSetGlobalLogger_Overrides(t *testing.T) {
	custom := rlog.NewLogger("debug", "text")
	rlog.SetGlobalLogger(custom)
	assert.Same(t, custom, rlog.GetGlobalLogger())
}

func TestWithContext_AddsOperationAndStateKey(t *testing.T) {
	log := rlog.NewLogger("info", "json")
	ctx := context.WithValue(context.Background(), rlog.OperationKey, "transfer")
	ctx = context.WithValue(ctx, rlog.StateKeyKey, "order-1")

	scoped := log.WithContext(ctx)
	assert.NotNil(t, scoped)
}

func TestRetryFields_OmitsErrorWhenNil(t *testing.T) {
	fields := rlog.RetryFields(2, nil)
	assert.Len(t, fields, 1)
	assert.Equal(t, "attempt", fields[0].Key)
}

func TestRetryFields_IncludesErrorWhenPresent(t *testing.T) {
	fields := rlog.RetryFields(3, assertionError("boom"))
	assert.Len(t, fields, 2)
	assert.Equal(t, "error", fields[1].Key)
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
