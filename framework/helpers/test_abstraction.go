package helpers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// TestContext is a minimal interface for types like *testing.T and *apitest.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}

// TestRecorder is a TestContext that only records failures. Unlike the test scope types it is
// safe for concurrent use, so it can be handed to assertions that run on transport goroutines;
// the recorded failures are then replayed onto the real test scope from the test goroutine.
//
// If PanicOnTerminate is true, FailNow panics with the recorder itself as the panic value, so
// that a caller can recover and tell that apart from other panics.
type TestRecorder struct {
	Errors           []string
	Terminated       bool
	PanicOnTerminate bool
	lock             sync.Mutex
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	msg := fmt.Sprintf(msgFormat, msgArgs...)
	t.lock.Lock()
	t.Errors = append(t.Errors, msg)
	t.lock.Unlock()
}

func (t *TestRecorder) FailNow() {
	t.lock.Lock()
	t.Terminated = true
	t.lock.Unlock()
	if t.PanicOnTerminate {
		panic(t)
	}
}

func (t *TestRecorder) Helper() {}

// ErrorMessages returns a copy of the failure messages recorded so far.
func (t *TestRecorder) ErrorMessages() []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]string(nil), t.Errors...)
}

// Failed returns true if any failure was recorded.
func (t *TestRecorder) Failed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.Errors) != 0 || t.Terminated
}

// Err returns all recorded failures joined into one error, or nil if there were none.
func (t *TestRecorder) Err() error {
	messages := t.ErrorMessages()
	if len(messages) == 0 {
		return nil
	}
	return errors.New(strings.Join(messages, ", "))
}
