package retry

import "context"

// currentContextKey is the context.Context key used to propagate the
// active RetryContext, replacing the thread-local a classic
// implementation would use. Propagation is opt-in via
// Template.PropagateContext, since storing a value in every context
// passed through the call tree has a small but real cost.
type currentContextKey struct{}

// withCurrentContext returns a child of ctx carrying rc, retrievable
// with CurrentContext.
func withCurrentContext(ctx context.Context, rc *RetryContext) context.Context {
	return context.WithValue(ctx, currentContextKey{}, rc)
}

// CurrentContext retrieves the RetryContext of the execution currently
// in progress on ctx, if the Template that started it was built with
// PropagateContext enabled.
func CurrentContext(ctx context.Context) (*RetryContext, bool) {
	rc, ok := ctx.Value(currentContextKey{}).(*RetryContext)
	return rc, ok
}
