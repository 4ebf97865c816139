package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

const endpointPathPrefix = "/endpoints/"

// Buffer size for the queue of incoming request information. If the queue is full, the HTTP
// handler does not block; the information is dropped.
const incomingRequestChannelBufferSize = 50

type mockEndpointsManager struct {
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	externalBaseURL string
	logger          framework.Logger
	lock            sync.Mutex
}

// MockEndpoint is an endpoint on the harness's own listener that can receive requests, either
// from the harness's Clients (when it serves the mock Beer API) or from anything else under test.
type MockEndpoint struct {
	owner       *mockEndpointsManager
	id          string
	description string
	basePath    string
	handler     http.Handler
	newRequests chan IncomingRequestInfo
	cancels     []*context.CancelFunc
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

type MockEndpointOption helpers.ConfigOption[MockEndpoint]

type mockEndpointOptionDescription string

func (o mockEndpointOptionDescription) Configure(m *MockEndpoint) error {
	m.description = string(o)
	return nil
}

// MockEndpointDescription sets the name used for the endpoint in log and failure messages.
func MockEndpointDescription(description string) MockEndpointOption {
	return mockEndpointOptionDescription(description)
}

// IncomingRequestInfo describes a request received by a mock endpoint. URL has the endpoint's
// base path removed.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
	Context context.Context
}

func newMockEndpointsManager(externalBaseURL string, logger framework.Logger) *mockEndpointsManager {
	return &mockEndpointsManager{
		endpoints:       make(map[string]*MockEndpoint),
		externalBaseURL: externalBaseURL,
		logger:          logger,
	}
}

func (m *mockEndpointsManager) newMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = m.logger
	}
	e := &MockEndpoint{
		owner:       m,
		handler:     handler,
		newRequests: make(chan IncomingRequestInfo, incomingRequestChannelBufferSize),
		logger:      logger,
	}
	_ = helpers.ApplyOptions(e, options...)
	m.lock.Lock()
	m.lastEndpointID++
	e.id = strconv.Itoa(m.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	m.endpoints[e.id] = e
	m.lock.Unlock()

	return e
}

func (m *mockEndpointsManager) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, endpointPathPrefix) {
		m.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, endpointPathPrefix)
	var endpointID string
	slashPos := strings.Index(path, "/")
	if slashPos >= 0 {
		endpointID = path[0:slashPos]
		path = path[slashPos:]
	} else {
		endpointID = path
		path = "/"
	}

	m.lock.Lock()
	e := m.endpoints[endpointID]
	m.lock.Unlock()
	if e == nil {
		m.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			m.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(data) != 0 {
			body = data
		}
	}

	ctx, canceller := context.WithCancel(r.Context())
	defer canceller()
	transformedReq := r.WithContext(ctx)
	u := *r.URL
	u.Path = path
	u.RawPath = ""
	transformedReq.URL = &u
	transformedReq.Body = io.NopCloser(bytes.NewReader(body))

	incoming := IncomingRequestInfo{
		Headers: r.Header.Clone(),
		Method:  r.Method,
		URL:     u,
		Body:    body,
		Context: ctx,
	}

	e.lock.Lock()
	cancellerPtr := &canceller
	e.cancels = append(e.cancels, cancellerPtr)
	newRequests := e.newRequests
	e.lock.Unlock()

	if newRequests == nil {
		m.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !helpers.NonBlockingSend(newRequests, incoming) {
		m.logger.Printf("Incoming request channel was full for %s", r.URL)
	}

	wrappedWriter := wrappedResponseWriter{w: w}
	e.handler.ServeHTTP(&wrappedWriter, transformedReq)

	switch wrappedWriter.status {
	case http.StatusNotFound:
		e.logger.Printf("Endpoint %q (%s) returned 404 for %s %s", e.description, e.basePath, r.Method, path)
	case http.StatusMethodNotAllowed:
		e.logger.Printf("Endpoint %q (%s) received request with unsupported %s method for path %s", e.description,
			e.basePath, r.Method, path)
	}

	e.lock.Lock()
	for i, c := range e.cancels {
		if c == cancellerPtr { // can't compare functions with ==, but can compare pointers
			e.cancels = append(e.cancels[:i], e.cancels[i+1:]...)
			break
		}
	}
	e.lock.Unlock()
}

// BaseURL returns the absolute URL of the endpoint.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// AwaitConnection waits for an incoming request to the endpoint.
func (e *MockEndpoint) AwaitConnection(timeout time.Duration) (IncomingRequestInfo, error) {
	maybeRequest := helpers.TryReceive(e.requests(), timeout)
	if maybeRequest.IsDefined() {
		return maybeRequest.Value(), nil
	}
	return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %q (%s)", e.description,
		e.basePath)
}

// RequireConnection waits for an incoming request to the endpoint, and causes the test to fail
// and terminate if it timed out.
func (e *MockEndpoint) RequireConnection(t helpers.TestContext, timeout time.Duration) IncomingRequestInfo {
	t.Helper()
	return helpers.RequireValueWithMessage(t, e.requests(), timeout, "timed out waiting for request to %q (%s)",
		e.description, e.basePath)
}

// RequireNoMoreConnections causes the test to fail and terminate if there is another incoming
// request within the timeout.
func (e *MockEndpoint) RequireNoMoreConnections(t helpers.TestContext, timeout time.Duration) {
	t.Helper()
	helpers.RequireNoMoreValuesWithMessage(t, e.requests(), timeout,
		"did not expect another request to %q (%s), but got one", e.description, e.basePath)
}

func (e *MockEndpoint) requests() <-chan IncomingRequestInfo {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.newRequests // nil after Close, so receives just time out
}

// Close unregisters the endpoint. Any subsequent requests to it will receive 404 errors.
// It also cancels the Context for every active request to that endpoint.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancellers := e.cancels
		e.cancels = nil
		e.newRequests = nil
		e.lock.Unlock()

		for _, cancel := range cancellers {
			(*cancel)()
		}
	})
}

// wrappedResponseWriter records the status written to a ResponseWriter, for debug logging of
// 404 and 405 statuses.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) {
	if ww.status == 0 {
		ww.status = http.StatusOK
	}
	return ww.w.Write(data)
}

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}
