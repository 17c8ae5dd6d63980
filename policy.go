package retry

import "time"

// RetryPolicy decides, attempt by attempt, whether an execution may
// continue. It owns the lifecycle of the RetryContext it hands out:
// Open creates it, RegisterError updates it after each failed attempt,
// and Close releases any resources once the execution finishes.
type RetryPolicy interface {
	// Open returns a new RetryContext for a fresh execution, linked to
	// parent (nil for a top-level call).
	Open(parent *RetryContext) (*RetryContext, error)

	// CanRetry reports whether another attempt is permitted given the
	// context's current state. It is consulted both before the first
	// attempt and after every failure.
	CanRetry(ctx *RetryContext) bool

	// RegisterError records a failed attempt against ctx.
	RegisterError(ctx *RetryContext, err error)

	// Close finalizes ctx at the end of an execution, successful or not.
	Close(ctx *RetryContext)

	// MaxAttempts returns the configured attempt ceiling, or -1 if the
	// policy has no fixed ceiling (classifier-only or composite policies).
	MaxAttempts() int
}

// NeverRetryPolicy permits exactly one attempt.
type NeverRetryPolicy struct{}

// Open implements RetryPolicy.
func (NeverRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	return NewRetryContext(parent), nil
}

// CanRetry implements RetryPolicy: true only before the first attempt.
func (NeverRetryPolicy) CanRetry(ctx *RetryContext) bool { return ctx.RetryCount() == 0 }

// RegisterError implements RetryPolicy.
func (NeverRetryPolicy) RegisterError(ctx *RetryContext, err error) { ctx.registerError(err) }

// Close implements RetryPolicy.
func (NeverRetryPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy.
func (NeverRetryPolicy) MaxAttempts() int { return 1 }

// AlwaysRetryPolicy never gives up; it relies on an outer bound (a
// TimeoutRetryPolicy, a canceled context.Context, or manual
// RetryContext.SetExhaustedOnly) to end the loop.
type AlwaysRetryPolicy struct{}

// Open implements RetryPolicy.
func (AlwaysRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	return NewRetryContext(parent), nil
}

// CanRetry implements RetryPolicy.
func (AlwaysRetryPolicy) CanRetry(*RetryContext) bool { return true }

// RegisterError implements RetryPolicy.
func (AlwaysRetryPolicy) RegisterError(ctx *RetryContext, err error) { ctx.registerError(err) }

// Close implements RetryPolicy.
func (AlwaysRetryPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy.
func (AlwaysRetryPolicy) MaxAttempts() int { return -1 }

// SimpleRetryPolicy bounds the number of attempts and, optionally,
// consults a Classifier to decide whether a given failure is retryable
// at all. MaxAttemptsFunc is a supplier rather than a fixed int so the
// ceiling may be adjusted between attempts (§4.2).
//
// NotRecoverable, when set, is consulted once a failure makes CanRetry
// false; if it classifies the failure as not recoverable, the context's
// no-recovery attribute is set so the engine skips any configured
// recovery callback and returns the failure as if none were configured.
type SimpleRetryPolicy struct {
	MaxAttemptsFunc func() int
	Classifier      Classifier
	NotRecoverable  Classifier
}

// NewSimpleRetryPolicy builds a SimpleRetryPolicy with a fixed attempt
// ceiling and classifier.
func NewSimpleRetryPolicy(maxAttempts int, classifier Classifier) *SimpleRetryPolicy {
	return &SimpleRetryPolicy{
		MaxAttemptsFunc: func() int { return maxAttempts },
		Classifier:      classifier,
	}
}

// NewMaxAttemptsPolicy builds a count-only policy: every error is
// retryable up to maxAttempts.
func NewMaxAttemptsPolicy(maxAttempts int) *SimpleRetryPolicy {
	return NewSimpleRetryPolicy(maxAttempts, AlwaysRetryableClassifier)
}

// NewBinaryClassifierPolicy builds a classifier-only policy with no
// attempt ceiling; see BinaryExceptionClassifierPolicy for the unbounded
// variant without a backing SimpleRetryPolicy at all.
func NewBinaryClassifierPolicy(classifier Classifier) *SimpleRetryPolicy {
	return &SimpleRetryPolicy{
		MaxAttemptsFunc: func() int { return -1 },
		Classifier:      classifier,
	}
}

// Open implements RetryPolicy.
func (p *SimpleRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	return NewRetryContext(parent), nil
}

// CanRetry implements RetryPolicy.
func (p *SimpleRetryPolicy) CanRetry(ctx *RetryContext) bool {
	last := ctx.LastError()
	if last != nil && p.Classifier != nil && !p.Classifier.Classify(last) {
		return false
	}
	max := p.MaxAttemptsFunc()
	if max < 0 {
		return true
	}
	return ctx.RetryCount() < max
}

// RegisterError implements RetryPolicy.
func (p *SimpleRetryPolicy) RegisterError(ctx *RetryContext, err error) {
	ctx.registerError(err)
	if p.CanRetry(ctx) {
		return
	}
	notRecoverable := false
	if p.NotRecoverable != nil {
		notRecoverable = p.NotRecoverable.Classify(err)
	}
	ctx.SetAttribute(AttrContextNoRecovery, notRecoverable)
}

// Close implements RetryPolicy.
func (p *SimpleRetryPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy.
func (p *SimpleRetryPolicy) MaxAttempts() int { return p.MaxAttemptsFunc() }

// BinaryExceptionClassifierPolicy retries for as long as the classifier
// says the failure is retryable, with no attempt ceiling of its own.
type BinaryExceptionClassifierPolicy struct {
	Classifier Classifier
}

// NewBinaryExceptionClassifierPolicy builds an unbounded classifier-only
// policy.
func NewBinaryExceptionClassifierPolicy(classifier Classifier) *BinaryExceptionClassifierPolicy {
	return &BinaryExceptionClassifierPolicy{Classifier: classifier}
}

// Open implements RetryPolicy.
func (p *BinaryExceptionClassifierPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	return NewRetryContext(parent), nil
}

// CanRetry implements RetryPolicy.
func (p *BinaryExceptionClassifierPolicy) CanRetry(ctx *RetryContext) bool {
	last := ctx.LastError()
	if last == nil {
		return true
	}
	return p.Classifier.Classify(last)
}

// RegisterError implements RetryPolicy.
func (p *BinaryExceptionClassifierPolicy) RegisterError(ctx *RetryContext, err error) {
	ctx.registerError(err)
}

// Close implements RetryPolicy.
func (p *BinaryExceptionClassifierPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy.
func (p *BinaryExceptionClassifierPolicy) MaxAttempts() int { return -1 }

// CompositeOperator selects how a CompositeRetryPolicy combines its
// children's CanRetry verdicts.
type CompositeOperator int

const (
	// CompositeAND requires every child policy to allow another attempt.
	CompositeAND CompositeOperator = iota
	// CompositeOR allows another attempt if any child policy does.
	CompositeOR
)

// CompositeRetryPolicy fans a single execution out across several child
// policies, combining their verdicts with AND or OR semantics. Each
// child gets its own sub-context, reachable for diagnostics but not
// exposed outside this package.
type CompositeRetryPolicy struct {
	Policies []RetryPolicy
	Operator CompositeOperator
}

// NewCompositeRetryPolicy builds a composite over the given children.
func NewCompositeRetryPolicy(op CompositeOperator, policies ...RetryPolicy) *CompositeRetryPolicy {
	return &CompositeRetryPolicy{Policies: policies, Operator: op}
}

// Open implements RetryPolicy.
func (p *CompositeRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	ctx := NewRetryContext(parent)
	ctx.children = make([]*RetryContext, len(p.Policies))
	for i, child := range p.Policies {
		childCtx, err := child.Open(nil)
		if err != nil {
			return nil, err
		}
		ctx.children[i] = childCtx
	}
	return ctx, nil
}

// CanRetry implements RetryPolicy.
func (p *CompositeRetryPolicy) CanRetry(ctx *RetryContext) bool {
	switch p.Operator {
	case CompositeOR:
		for i, child := range p.Policies {
			if child.CanRetry(ctx.children[i]) {
				return true
			}
		}
		return false
	default: // CompositeAND
		for i, child := range p.Policies {
			if !child.CanRetry(ctx.children[i]) {
				return false
			}
		}
		return true
	}
}

// RegisterError implements RetryPolicy.
func (p *CompositeRetryPolicy) RegisterError(ctx *RetryContext, err error) {
	ctx.registerError(err)
	for i, child := range p.Policies {
		child.RegisterError(ctx.children[i], err)
	}
}

// Close implements RetryPolicy.
func (p *CompositeRetryPolicy) Close(ctx *RetryContext) {
	for i, child := range p.Policies {
		child.Close(ctx.children[i])
	}
}

// MaxAttempts implements RetryPolicy. A composite has no single
// well-defined ceiling, so it reports -1; callers that need a bound
// should query the children directly.
func (p *CompositeRetryPolicy) MaxAttempts() int { return -1 }

// TimeoutRetryPolicy bounds an execution by wall-clock time rather than
// attempt count. TimeoutFunc is a supplier for the same reason
// SimpleRetryPolicy's ceiling is: so it can vary between attempts.
type TimeoutRetryPolicy struct {
	TimeoutFunc func() time.Duration
	Clock       Clock
}

// NewTimeoutRetryPolicy builds a TimeoutRetryPolicy with a fixed budget.
func NewTimeoutRetryPolicy(timeout time.Duration, clock Clock) *TimeoutRetryPolicy {
	if clock == nil {
		clock = RealClock()
	}
	return &TimeoutRetryPolicy{TimeoutFunc: func() time.Duration { return timeout }, Clock: clock}
}

const timeoutStartAttr = "timeout.start"

// Open implements RetryPolicy.
func (p *TimeoutRetryPolicy) Open(parent *RetryContext) (*RetryContext, error) {
	ctx := NewRetryContext(parent)
	ctx.SetAttribute(timeoutStartAttr, p.Clock.Now())
	return ctx, nil
}

// CanRetry implements RetryPolicy.
func (p *TimeoutRetryPolicy) CanRetry(ctx *RetryContext) bool {
	v, ok := ctx.Attribute(timeoutStartAttr)
	if !ok {
		return true
	}
	start := v.(time.Time)
	return p.Clock.Now().Sub(start) < p.TimeoutFunc()
}

// RegisterError implements RetryPolicy.
func (p *TimeoutRetryPolicy) RegisterError(ctx *RetryContext, err error) { ctx.registerError(err) }

// Close implements RetryPolicy.
func (p *TimeoutRetryPolicy) Close(*RetryContext) {}

// MaxAttempts implements RetryPolicy.
func (p *TimeoutRetryPolicy) MaxAttempts() int { return -1 }
