package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// BackOffContext is the opaque, per-execution state a BackOffPolicy
// hands back from Start and thread through subsequent BackOff calls. Its
// concrete type is private to the policy that created it; callers only
// ever pass it back unmodified.
type BackOffContext interface{}

// BackOffPolicy computes and performs the wait between retry attempts.
// Start is called once per execution (giving a policy like
// ExponentialBackOffPolicy a place to seed its growing interval);
// BackOff is called before every retried attempt and blocks until the
// wait is over, ctx is canceled, or the policy decides not to wait at
// all.
type BackOffPolicy interface {
	Start(retryCtx *RetryContext) (BackOffContext, error)
	BackOff(ctx context.Context, boCtx BackOffContext) error
}

// NoBackOffPolicy retries immediately, with no delay between attempts.
type NoBackOffPolicy struct{}

// Start implements BackOffPolicy.
func (NoBackOffPolicy) Start(*RetryContext) (BackOffContext, error) { return nil, nil }

// BackOff implements BackOffPolicy as a no-op.
func (NoBackOffPolicy) BackOff(context.Context, BackOffContext) error { return nil }

// FixedBackOffPolicy waits a constant interval between every attempt.
type FixedBackOffPolicy struct {
	Interval time.Duration
	Clock    Clock
}

// NewFixedBackOffPolicy builds a FixedBackOffPolicy with the real clock.
func NewFixedBackOffPolicy(interval time.Duration) *FixedBackOffPolicy {
	return &FixedBackOffPolicy{Interval: interval, Clock: RealClock()}
}

// Start implements BackOffPolicy; a fixed policy carries no state.
func (p *FixedBackOffPolicy) Start(*RetryContext) (BackOffContext, error) { return nil, nil }

// BackOff implements BackOffPolicy.
func (p *FixedBackOffPolicy) BackOff(ctx context.Context, _ BackOffContext) error {
	if err := p.Clock.Sleep(ctx, p.Interval); err != nil {
		return NewBackOffInterruptedError(err)
	}
	return nil
}

// UniformRandomBackOffPolicy waits a duration picked uniformly between
// Min and Max on every attempt, independent of attempt count.
type UniformRandomBackOffPolicy struct {
	Min, Max time.Duration
	Clock    Clock
}

// NewUniformRandomBackOffPolicy builds a UniformRandomBackOffPolicy with
// the real clock.
func NewUniformRandomBackOffPolicy(min, max time.Duration) *UniformRandomBackOffPolicy {
	return &UniformRandomBackOffPolicy{Min: min, Max: max, Clock: RealClock()}
}

// Start implements BackOffPolicy; a uniform-random policy carries no
// state across attempts.
func (p *UniformRandomBackOffPolicy) Start(*RetryContext) (BackOffContext, error) { return nil, nil }

// BackOff implements BackOffPolicy.
func (p *UniformRandomBackOffPolicy) BackOff(ctx context.Context, _ BackOffContext) error {
	span := p.Max - p.Min
	d := p.Min
	if span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	if err := p.Clock.Sleep(ctx, d); err != nil {
		return NewBackOffInterruptedError(err)
	}
	return nil
}

// exponentialState is the BackOffContext for ExponentialBackOffPolicy
// and ExponentialBackOffWithJitterPolicy: the live interval that grows
// by Multiplier on every call, capped at MaxInterval.
type exponentialState struct {
	interval time.Duration
}

// ExponentialBackOffPolicy waits an interval that starts at Initial and
// grows by Multiplier on every attempt, capped at MaxInterval.
type ExponentialBackOffPolicy struct {
	Initial     time.Duration
	Multiplier  float64
	MaxInterval time.Duration
	Clock       Clock
}

// NewExponentialBackOffPolicy builds an ExponentialBackOffPolicy with
// the real clock.
func NewExponentialBackOffPolicy(initial time.Duration, multiplier float64, maxInterval time.Duration) *ExponentialBackOffPolicy {
	return &ExponentialBackOffPolicy{
		Initial:     initial,
		Multiplier:  multiplier,
		MaxInterval: maxInterval,
		Clock:       RealClock(),
	}
}

// Start implements BackOffPolicy, seeding the growing interval.
func (p *ExponentialBackOffPolicy) Start(*RetryContext) (BackOffContext, error) {
	return &exponentialState{interval: p.Initial}, nil
}

// BackOff implements BackOffPolicy.
func (p *ExponentialBackOffPolicy) BackOff(ctx context.Context, boCtx BackOffContext) error {
	st, _ := boCtx.(*exponentialState)
	if st == nil {
		st = &exponentialState{interval: p.Initial}
	}
	d := st.interval
	next := time.Duration(float64(st.interval) * p.Multiplier)
	if p.MaxInterval > 0 && next > p.MaxInterval {
		next = p.MaxInterval
	}
	st.interval = next
	if err := p.Clock.Sleep(ctx, d); err != nil {
		return NewBackOffInterruptedError(err)
	}
	return nil
}

// ExponentialBackOffWithJitterPolicy is an ExponentialBackOffPolicy whose
// wait at each step is perturbed one-sided within
// [interval, interval×Multiplier), so many callers failing at once don't
// all wake on the same deterministic schedule while the stored interval
// still advances deterministically, matching the non-jittered policy's
// expected growth.
type ExponentialBackOffWithJitterPolicy struct {
	ExponentialBackOffPolicy
}

// NewExponentialBackOffWithJitterPolicy builds a jittered exponential
// policy with the real clock.
func NewExponentialBackOffWithJitterPolicy(initial time.Duration, multiplier float64, maxInterval time.Duration) *ExponentialBackOffWithJitterPolicy {
	return &ExponentialBackOffWithJitterPolicy{
		ExponentialBackOffPolicy: ExponentialBackOffPolicy{
			Initial:     initial,
			Multiplier:  multiplier,
			MaxInterval: maxInterval,
			Clock:       RealClock(),
		},
	}
}

// BackOff implements BackOffPolicy. The slept duration is
// interval × (1 + U·(multiplier−1)) for U drawn uniformly from [0,1),
// capped at MaxInterval; the stored interval advances by the plain
// deterministic multiplier, same as ExponentialBackOffPolicy.
func (p *ExponentialBackOffWithJitterPolicy) BackOff(ctx context.Context, boCtx BackOffContext) error {
	st, _ := boCtx.(*exponentialState)
	if st == nil {
		st = &exponentialState{interval: p.Initial}
	}
	d := jitter(st.interval, p.Multiplier)
	if p.MaxInterval > 0 && d > p.MaxInterval {
		d = p.MaxInterval
	}
	next := time.Duration(float64(st.interval) * p.Multiplier)
	if p.MaxInterval > 0 && next > p.MaxInterval {
		next = p.MaxInterval
	}
	st.interval = next
	if err := p.Clock.Sleep(ctx, d); err != nil {
		return NewBackOffInterruptedError(err)
	}
	return nil
}

// jitter implements §4.2's one-sided exponential jitter: the result
// always lies in [interval, interval×multiplier), never below the
// deterministic schedule.
func jitter(interval time.Duration, multiplier float64) time.Duration {
	u := rand.Float64()
	return time.Duration(float64(interval) * (1 + u*(multiplier-1)))
}

