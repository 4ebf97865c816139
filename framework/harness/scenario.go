package harness

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

// ScenarioState tracks a Scenario through its lifecycle.
type ScenarioState int

const (
	ScenarioIdle ScenarioState = iota
	ScenarioDispatched
	ScenarioCompletedSuccess
	ScenarioCompletedFailure
	ScenarioVerified
	ScenarioTimedOut
)

func (s ScenarioState) String() string {
	switch s {
	case ScenarioIdle:
		return "idle"
	case ScenarioDispatched:
		return "dispatched"
	case ScenarioCompletedSuccess:
		return "completed with success"
	case ScenarioCompletedFailure:
		return "completed with failure"
	case ScenarioVerified:
		return "verified"
	case ScenarioTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("ScenarioState(%d)", int(s))
	}
}

// SuccessCheck validates a successful response. It runs on a transport goroutine.
type SuccessCheck func(t helpers.TestContext, resp Response)

// FailureCheck validates a failure. It runs on a transport goroutine.
type FailureCheck func(t helpers.TestContext, err error)

// Scenario is one dispatch-and-wait exchange with the Beer API. It owns a CompletionGate set to
// the number of callbacks the scenario expects to fire.
//
// Checks attached with OnSuccess or OnFailure run on transport goroutines. Their failures are
// recorded and only reported to the test scope by Verify, which must be called from the test
// goroutine. Each check counts the gate down after it returns. An outcome of the wrong kind,
// such as a failure for a call wired with OnSuccess, is recorded but does not count down, so
// Verify also reports the missing completion.
type Scenario struct {
	client   *Client
	gate     *CompletionGate
	recorder *helpers.TestRecorder
	logger   framework.Logger
	state    ScenarioState
	calls    []*Call
	closed   bool
	lock     sync.Mutex
}

// NewScenario creates a Scenario that expects the given number of completions.
func NewScenario(client *Client, expectedCompletions int, logger framework.Logger) *Scenario {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Scenario{
		client:   client,
		gate:     NewCompletionGate(expectedCompletions),
		recorder: &helpers.TestRecorder{PanicOnTerminate: true},
		logger:   logger,
	}
}

// Dispatch sends a request without waiting for it. The scenario stays in ScenarioDispatched
// until every request it has dispatched has completed.
func (s *Scenario) Dispatch(req Request) *Call {
	call := s.client.Dispatch(req)
	s.lock.Lock()
	if !s.closed {
		s.state = ScenarioDispatched
	}
	s.calls = append(s.calls, call)
	s.lock.Unlock()
	s.logger.Printf("[%s] Dispatched %s", call.ID(), req)
	return call
}

// OnSuccess wires a check for a call that is expected to succeed.
func (s *Scenario) OnSuccess(call *Call, check SuccessCheck) {
	call.Subscribe(
		func(resp Response) {
			s.completed(call, ScenarioCompletedSuccess, func(t helpers.TestContext) {
				if check != nil {
					check(t, resp)
				}
			})
		},
		func(err error) {
			s.unexpected(call, ScenarioCompletedFailure, "expected %s to succeed, but it failed: %s", call.Request(), err)
		},
	)
}

// OnFailure wires a check for a call that is expected to fail.
func (s *Scenario) OnFailure(call *Call, check FailureCheck) {
	call.Subscribe(
		func(resp Response) {
			s.unexpected(call, ScenarioCompletedSuccess, "expected %s to fail, but it succeeded with HTTP %d",
				call.Request(), resp.StatusCode)
		},
		func(err error) {
			s.completed(call, ScenarioCompletedFailure, func(t helpers.TestContext) {
				if check != nil {
					check(t, err)
				}
			})
		},
	)
}

func (s *Scenario) completed(call *Call, state ScenarioState, check func(helpers.TestContext)) {
	if !s.transition(call, state) {
		s.gate.CountDown()
		return
	}
	s.runCheck(call, check)
	s.gate.CountDown()
	s.logger.Printf("[%s] Completed %s, %d completion(s) outstanding", call.ID(), call.Request(), s.gate.Count())
}

func (s *Scenario) unexpected(call *Call, state ScenarioState, format string, args ...interface{}) {
	if !s.transition(call, state) {
		return
	}
	checker := callChecker{recorder: s.recorder, call: call}
	checker.Errorf(format, args...)
	s.logger.Printf("[%s] "+format, append([]interface{}{call.ID()}, args...)...)
}

// transition records the new state, or returns false if Verify has already closed the scenario.
func (s *Scenario) transition(call *Call, state ScenarioState) bool {
	s.lock.Lock()
	closed := s.closed
	if !closed {
		s.state = helpers.IfElse(s.hasCallInFlight(), ScenarioDispatched, state)
	}
	s.lock.Unlock()
	if closed {
		s.logger.Printf("[%s] Discarding late completion of %s", call.ID(), call.Request())
	}
	return !closed
}

// hasCallInFlight must be called with the lock held.
func (s *Scenario) hasCallInFlight() bool {
	for _, c := range s.calls {
		select {
		case <-c.Done():
		default:
			return true
		}
	}
	return false
}

func (s *Scenario) runCheck(call *Call, check func(helpers.TestContext)) {
	checker := callChecker{recorder: s.recorder, call: call}
	defer func() {
		if r := recover(); r != nil && r != s.recorder { //nolint:errorlint
			checker.Errorf("unexpected panic in completion check: %v", r)
		}
	}()
	check(checker)
}

// AwaitCall waits for a single call to complete, for scenarios that dispatch sequentially.
func (s *Scenario) AwaitCall(call *Call, timeout time.Duration) bool {
	return call.Await(timeout).IsDefined()
}

// Await waits until every expected completion has happened or the timeout elapses.
func (s *Scenario) Await(timeout time.Duration) bool {
	return s.gate.Await(timeout)
}

// Remaining returns the number of completions still outstanding.
func (s *Scenario) Remaining() int {
	return s.gate.Count()
}

func (s *Scenario) State() ScenarioState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Failures returns the check failures recorded so far.
func (s *Scenario) Failures() []string {
	return s.recorder.ErrorMessages()
}

// Verify waits up to timeout for the gate to open, then reports every recorded check failure to
// t, plus a failure if any expected completion never happened. It closes the scenario, so that
// completions arriving later are discarded. It returns true if the scenario passed.
func (s *Scenario) Verify(t helpers.TestContext, timeout time.Duration) bool {
	t.Helper()
	opened := s.gate.Await(timeout)

	s.lock.Lock()
	s.closed = true
	if opened {
		s.state = ScenarioVerified
	} else {
		s.state = ScenarioTimedOut
	}
	s.lock.Unlock()

	failures := s.recorder.ErrorMessages()
	for _, f := range failures {
		t.Errorf("%s", f)
	}
	if !opened {
		t.Errorf("timed out after %s with %d of %d expected completion(s) outstanding",
			timeout, s.gate.Count(), s.gate.Expected())
	}
	return opened && len(failures) == 0
}

// callChecker is the TestContext handed to completion checks. It tags each failure with the
// request it came from.
type callChecker struct {
	recorder *helpers.TestRecorder
	call     *Call
}

func (c callChecker) Errorf(format string, args ...interface{}) {
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	c.recorder.Errorf("%s\n\tRequest:\t%s (%s)", message, c.call.Request(), c.call.ID())
}

func (c callChecker) FailNow() { c.recorder.FailNow() }

func (c callChecker) Helper() {}
