package retry

import (
	"context"
	"fmt"
	"hash/fnv"
)

// KeyGenerator derives a stateful-retry cache key from an operation's
// call arguments. The default, HashKey, folds the arguments' string
// representations into an FNV-64a hash so arbitrary argument types can
// be used without requiring them to be comparable.
type KeyGenerator func(args ...any) any

// HashKey is the default KeyGenerator.
func HashKey(args ...any) any {
	h := fnv.New64a()
	for _, a := range args {
		fmt.Fprintf(h, "%v|", a)
	}
	return h.Sum64()
}

// StatefulRetryOperation adapts a Template into the stateful-retry
// pattern: a caller identifies an operation by its arguments rather than
// by manually constructing a RetryState, and successive calls that
// resolve to the same key resume the same RetryContext instead of
// starting over. This is the shape a request handler uses to retry
// "the same" business operation across independent HTTP requests after
// a mid-flight crash, rather than retrying in a single tight loop.
type StatefulRetryOperation struct {
	Template *Template

	// KeyFunc generates the stateful-retry key from an operation's
	// arguments. Defaults to HashKey.
	KeyFunc KeyGenerator

	// UseRawKey bypasses KeyFunc and uses the arguments directly as the
	// cache key (args[0] if there is exactly one, fmt.Sprint of the
	// argument slice otherwise), for callers whose arguments are already a stable,
	// comparable identifier such as an order ID.
	UseRawKey bool
}

// NewStatefulRetryOperation builds a StatefulRetryOperation over tmpl
// with the default hash-based key generator.
func NewStatefulRetryOperation(tmpl *Template) *StatefulRetryOperation {
	return &StatefulRetryOperation{Template: tmpl, KeyFunc: HashKey}
}

func (s *StatefulRetryOperation) key(args ...any) any {
	if s.UseRawKey {
		if len(args) == 1 {
			return args[0]
		}
		return fmt.Sprint(args)
	}
	gen := s.KeyFunc
	if gen == nil {
		gen = HashKey
	}
	return gen(args...)
}

// Execute runs fn as one attempt of the stateful retry identified by
// args, with an optional recovery callback and rollback classifier.
// forceRefresh discards any context cached for this key, starting a
// fresh attempt sequence (e.g. because the caller knows the underlying
// arguments changed since the last attempt).
func (s *StatefulRetryOperation) Execute(ctx context.Context, fn OperationFunc, recovery RecoveryFunc, rollbackFor Classifier, forceRefresh bool, args ...any) error {
	state := &RetryState{
		Key:          s.key(args...),
		ForceRefresh: forceRefresh,
		RollbackFor:  rollbackFor,
	}
	return s.Template.ExecuteStateful(ctx, fn, recovery, state)
}

// ShouldRollback reports whether err should roll back an enclosing
// transaction under state's rollback classifier (or the conservative
// "always roll back" default if none was configured).
func ShouldRollback(state *RetryState, err error) bool {
	return state.rollbackFor(err)
}
