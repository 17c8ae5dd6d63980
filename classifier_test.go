package retry_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaypoint/retry"
)

type retryableError struct{ msg string }

func (e *retryableError) Error() string { return e.msg }

type fatalError struct{ msg string }

func (e *fatalError) Error() string { return e.msg }

type temporaryInterface interface {
	Temporary() bool
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "timeout" }
func (timeoutError) Temporary() bool { return true }

func TestBinaryClassifier_ConcreteType(t *testing.T) {
	c := retry.NewBinaryClassifier(false).
		AddType(&retryableError{}, true).
		AddType(&fatalError{}, false)

	assert.True(t, c.Classify(&retryableError{msg: "x"}))
	assert.False(t, c.Classify(&fatalError{msg: "x"}))
	assert.False(t, c.Classify(errors.New("unregistered")))
}

func TestBinaryClassifier_Interface(t *testing.T) {
	c := retry.NewBinaryClassifier(false).
		AddInterface(reflect.TypeOf((*temporaryInterface)(nil)).Elem(), true)

	assert.True(t, c.Classify(timeoutError{}))
	assert.False(t, c.Classify(errors.New("plain")))
}

func TestBinaryClassifier_TraverseCauses(t *testing.T) {
	c := retry.NewBinaryClassifier(false).
		AddType(&retryableError{}, true).
		SetTraverseCauses(true)

	wrapped := fmt.Errorf("wrapping: %w", &retryableError{msg: "inner"})
	assert.True(t, c.Classify(wrapped))

	c2 := retry.NewBinaryClassifier(false).AddType(&retryableError{}, true)
	assert.False(t, c2.Classify(wrapped), "without traverseCauses the wrapper itself is unregistered")
}

func TestBinaryClassifier_NilError(t *testing.T) {
	c := retry.NewBinaryClassifier(true)
	assert.True(t, c.Classify(nil))
}

func TestBinaryClassifier_ConcurrentClassifyIsSafe(t *testing.T) {
	c := retry.NewBinaryClassifier(true).AddType(&retryableError{}, false)
	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			for j := 0; j < 1000; j++ {
				c.Classify(&retryableError{})
				c.Classify(errors.New("x"))
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
}

func TestAlwaysAndNeverRetryableClassifiers(t *testing.T) {
	assert.True(t, retry.AlwaysRetryableClassifier.Classify(errors.New("x")))
	assert.False(t, retry.NeverRetryableClassifier.Classify(errors.New("x")))
}
