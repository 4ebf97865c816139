package harness

import (
	"sync"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/framework/opt"
)

// Call is the future for one dispatched request. It completes exactly once, with either a
// Response or an error.
//
// Subscribers are notified on the goroutine that completes the call, which for a call created
// by Client.Dispatch is the transport goroutine for that request. A subscriber added after
// completion is notified on a new goroutine, so a subscriber never runs on the goroutine that
// called Subscribe.
type Call struct {
	id          string
	request     Request
	done        chan struct{}
	lock        sync.Mutex
	completed   bool
	outcome     Outcome
	subscribers []subscriber
}

type subscriber struct {
	onSuccess func(Response)
	onFailure func(error)
}

func (s subscriber) notify(outcome Outcome) {
	if outcome.Err == nil {
		if s.onSuccess != nil {
			s.onSuccess(outcome.Response)
		}
	} else if s.onFailure != nil {
		s.onFailure(outcome.Err)
	}
}

func newCall(id string, request Request) *Call {
	return &Call{id: id, request: request, done: make(chan struct{})}
}

// ID returns the correlation id sent as the X-Request-Id header.
func (c *Call) ID() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.id
}

// Request returns the request this call was dispatched for. For a call returned by Then, this
// is the dependent request once it has been dispatched.
func (c *Call) Request() Request {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.request
}

func (c *Call) adopt(other *Call) {
	id, request := other.ID(), other.Request()
	c.lock.Lock()
	c.id, c.request = id, request
	c.lock.Unlock()
}

// Done returns a channel that is closed when the call completes.
func (c *Call) Done() <-chan struct{} { return c.done }

// Outcome returns the outcome if the call has completed, without blocking.
func (c *Call) Outcome() opt.Maybe[Outcome] {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.completed {
		return opt.None[Outcome]()
	}
	return opt.Some(c.outcome)
}

// Await blocks until the call completes or the timeout elapses.
func (c *Call) Await(timeout time.Duration) opt.Maybe[Outcome] {
	if outcome := c.Outcome(); outcome.IsDefined() {
		return outcome
	}
	if !helpers.TryReceive(c.done, timeout).IsDefined() {
		return opt.None[Outcome]()
	}
	return c.Outcome()
}

// Subscribe registers callbacks for the outcome. Exactly one of them is called, once. Either
// may be nil.
func (c *Call) Subscribe(onSuccess func(Response), onFailure func(error)) {
	s := subscriber{onSuccess: onSuccess, onFailure: onFailure}
	c.lock.Lock()
	if !c.completed {
		c.subscribers = append(c.subscribers, s)
		c.lock.Unlock()
		return
	}
	outcome := c.outcome
	c.lock.Unlock()
	go s.notify(outcome)
}

// complete sets the outcome and notifies subscribers in the order they subscribed. Only the
// first call has any effect.
func (c *Call) complete(outcome Outcome) bool {
	c.lock.Lock()
	if c.completed {
		c.lock.Unlock()
		return false
	}
	c.completed = true
	c.outcome = outcome
	subscribers := c.subscribers
	c.subscribers = nil
	close(c.done)
	c.lock.Unlock()

	for _, s := range subscribers {
		s.notify(outcome)
	}
	return true
}

// Then chains a dependent request onto this call. When this call succeeds, next is called with
// its response, on the completing goroutine, and the returned Call completes with the outcome of
// the Call that next returns. If next returns nil, the returned Call completes with this call's
// response. If this call fails, next is not called and the returned Call fails with the same
// error.
//
// Once next returns a dependent Call, the returned Call takes on its id and request, so its
// outcome is attributed to the request that produced it.
func (c *Call) Then(next func(Response) *Call) *Call {
	derived := newCall(c.ID(), c.Request())
	c.Subscribe(
		func(resp Response) {
			dependent := next(resp)
			if dependent == nil {
				derived.complete(Outcome{Response: resp})
				return
			}
			derived.adopt(dependent)
			dependent.Subscribe(
				func(resp Response) { derived.complete(Outcome{Response: resp}) },
				func(err error) { derived.complete(Outcome{Err: err}) },
			)
		},
		func(err error) { derived.complete(Outcome{Err: err}) },
	)
	return derived
}
