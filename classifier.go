package retry

import (
	"errors"
	"reflect"
	"sync"
)

// Classifier decides, for a given error, whether it should be treated as
// retryable. Implementations must be safe for concurrent use: the engine
// may consult the same classifier from multiple in-flight retries.
type Classifier interface {
	Classify(err error) bool
}

// ClassifierFunc adapts a plain function to a Classifier.
type ClassifierFunc func(err error) bool

// Classify implements Classifier.
func (f ClassifierFunc) Classify(err error) bool { return f(err) }

// interfaceRule pairs an interface type (obtained via
// reflect.TypeOf((*T)(nil)).Elem()) with the verdict to return when an
// error implements it.
type interfaceRule struct {
	iface reflect.Type
	value bool
}

// BinaryClassifier is a type-map classifier in the spirit of the
// two-outcome exception classifiers used throughout the retry engine: a
// concrete-type table takes precedence, then an ordered list of marker
// interfaces, then (if enabled) the cause chain is unwound and the whole
// process repeats on the wrapped error, and finally the default applies.
//
// Go has no class hierarchy to walk, so where the original model matches
// an exception against its nearest registered superclass, BinaryClassifier
// matches against the nearest registered interface instead — the natural
// Go analogue of "is-a" polymorphism.
type BinaryClassifier struct {
	mu             sync.RWMutex
	types          map[reflect.Type]bool
	interfaces     []interfaceRule
	defaultValue   bool
	traverseCauses bool
	memo           sync.Map // reflect.Type -> bool
}

// NewBinaryClassifier returns a classifier that yields defaultValue for
// any error without a more specific registration.
func NewBinaryClassifier(defaultValue bool) *BinaryClassifier {
	return &BinaryClassifier{
		types:        make(map[reflect.Type]bool),
		defaultValue: defaultValue,
	}
}

// AddType registers the concrete dynamic type of sample (its value is
// only used for reflect.TypeOf; it is never stored or compared).
func (c *BinaryClassifier) AddType(sample error, retryable bool) *BinaryClassifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[reflect.TypeOf(sample)] = retryable
	c.memo = sync.Map{}
	return c
}

// AddInterface registers an interface type, matched in registration order
// when no concrete-type entry applies. Obtain iface via
// reflect.TypeOf((*MyInterface)(nil)).Elem().
func (c *BinaryClassifier) AddInterface(iface reflect.Type, retryable bool) *BinaryClassifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interfaces = append(c.interfaces, interfaceRule{iface: iface, value: retryable})
	c.memo = sync.Map{}
	return c
}

// SetTraverseCauses enables or disables falling through to errors.Unwrap
// when neither the type table nor the interface list match.
func (c *BinaryClassifier) SetTraverseCauses(enabled bool) *BinaryClassifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traverseCauses = enabled
	c.memo = sync.Map{}
	return c
}

// Classify implements Classifier.
func (c *BinaryClassifier) Classify(err error) bool {
	if err == nil {
		c.mu.RLock()
		dv := c.defaultValue
		c.mu.RUnlock()
		return dv
	}
	return c.classify(err, err)
}

// classify evaluates cur against the type/interface tables, falling back
// to the cause chain when traverseCauses is set. root is passed through
// the recursion unchanged and is not otherwise read. A verdict reached
// through the cause chain depends on that chain, not on cur's type
// alone, so it is not memoized.
func (c *BinaryClassifier) classify(root, cur error) bool {
	t := reflect.TypeOf(cur)
	if t == nil {
		return c.readDefault()
	}
	if v, ok := c.memo.Load(t); ok {
		return v.(bool)
	}

	c.mu.RLock()
	if v, ok := c.types[t]; ok {
		c.mu.RUnlock()
		c.memo.Store(t, v)
		return v
	}
	for _, rule := range c.interfaces {
		if t.Implements(rule.iface) {
			c.mu.RUnlock()
			c.memo.Store(t, rule.value)
			return rule.value
		}
	}
	traverse := c.traverseCauses
	dv := c.defaultValue
	c.mu.RUnlock()

	if traverse {
		if cause := errors.Unwrap(cur); cause != nil {
			return c.classify(root, cause)
		}
		return dv
	}
	c.memo.Store(t, dv)
	return dv
}

func (c *BinaryClassifier) readDefault() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultValue
}

// AlwaysRetryableClassifier always returns true; it is used to build
// count-only retry policies from the same machinery as classifier-aware
// ones.
var AlwaysRetryableClassifier Classifier = ClassifierFunc(func(error) bool { return true })

// NeverRetryableClassifier always returns false.
var NeverRetryableClassifier Classifier = ClassifierFunc(func(error) bool { return false })

// nonRetryableStop reports whether err (or a cause in its chain) was
// produced by Stop, i.e. explicitly marked as terminal by the operation
// itself.
func nonRetryableStop(err error) bool {
	var se *stopError
	return errors.As(err, &se)
}
