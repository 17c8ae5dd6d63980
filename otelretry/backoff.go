package otelretry

import (
	"context"

	"github.com/relaypoint/retry"
)

// wrappedBackOff decorates a retry.BackOffPolicy so every performed wait
// is reported to the owning Listener's metrics.
type wrappedBackOff struct {
	inner    retry.BackOffPolicy
	listener *Listener
}

// WrapBackOff decorates inner so that every wait it performs is recorded
// against l's retry.backoffs counter.
func WrapBackOff(inner retry.BackOffPolicy, l *Listener) retry.BackOffPolicy {
	return &wrappedBackOff{inner: inner, listener: l}
}

func (w *wrappedBackOff) Start(rc *retry.RetryContext) (retry.BackOffContext, error) {
	return w.inner.Start(rc)
}

func (w *wrappedBackOff) BackOff(ctx context.Context, boCtx retry.BackOffContext) error {
	err := w.inner.BackOff(ctx, boCtx)
	w.listener.RecordBackOff(ctx)
	return err
}
