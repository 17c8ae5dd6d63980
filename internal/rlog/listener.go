package rlog

import "github.com/relaypoint/retry"

// Listener adapts a Logger into a retry.Listener, logging each failed
// attempt and the final outcome. It is the ambient-stack counterpart to
// otelretry.Listener: where that package emits traces/metrics, this one
// emits the structured log lines retryctl's demo commands print.
type Listener struct {
	Log *Logger
}

// NewListener builds a Listener around log.
func NewListener(log *Logger) *Listener {
	return &Listener{Log: log}
}

// Open implements retry.Listener.
func (l *Listener) Open(*retry.RetryContext) bool { return true }

// OnError implements retry.Listener.
func (l *Listener) OnError(rc *retry.RetryContext, err error) {
	l.Log.Warn("retry attempt failed", RetryFields(rc.RetryCount(), err)...)
}

// OnSuccess implements retry.Listener.
func (l *Listener) OnSuccess(rc *retry.RetryContext) {
	if rc.RetryCount() > 0 {
		l.Log.Info("retry succeeded after failures", Field{Key: "attempts", Value: rc.RetryCount()})
	}
}

// Close implements retry.Listener.
func (l *Listener) Close(rc *retry.RetryContext, finalErr error) {
	if finalErr != nil {
		l.Log.Error("retry gave up", RetryFields(rc.RetryCount(), finalErr)...)
	}
}
