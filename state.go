package retry

// RetryState identifies a stateful retry: a sequence of separate
// top-level calls (e.g. one per inbound request after a crash) that
// should all be treated as attempts against the same logical retry
// context rather than as independent executions.
type RetryState struct {
	// Key identifies the logical operation being retried. Two calls with
	// an equal Key (by the cache's comparison rules) resume the same
	// RetryContext.
	Key any

	// ForceRefresh discards any cached context for Key and starts a fresh
	// one, e.g. when the caller knows the arguments changed enough that
	// resuming stale state would be wrong (the engine's
	// newArgumentsIdentifier hook, see NewArgumentsIdentifier).
	ForceRefresh bool

	// RollbackFor classifies whether a given failure should cause any
	// enclosing transaction to roll back. When nil, every failure rolls
	// back (the conservative default).
	RollbackFor Classifier

	// NewArgumentsIdentifier, when non-nil, is consulted once per call;
	// if it returns true the context is treated as if ForceRefresh were
	// set, without the caller having to recompute it up front.
	NewArgumentsIdentifier func() bool
}

// forceRefresh reports whether this invocation should discard any cached
// context for its key.
func (s *RetryState) forceRefresh() bool {
	if s == nil {
		return false
	}
	if s.ForceRefresh {
		return true
	}
	return s.NewArgumentsIdentifier != nil && s.NewArgumentsIdentifier()
}

// rollbackFor reports whether err should cause a rollback under this
// state's RollbackFor classifier (defaulting to "always roll back").
func (s *RetryState) rollbackFor(err error) bool {
	if s == nil || s.RollbackFor == nil {
		return true
	}
	return s.RollbackFor.Classify(err)
}
