package harness

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

const httpListenerTimeout = time.Second * 10

// TestHarness manages communication with the Beer API under test.
//
// On startup it verifies that the API is accepting connections. It can then create any number
// of Clients bound to the API, and any number of mock endpoints served by its own HTTP listener.
// A mock endpoint can also stand in for the API itself (ServeMockTarget), which is how the
// harness runs against the in-process mock brewery.
//
// It contains no Beer-specific logic; the beertests package builds the scenarios on top of it.
type TestHarness struct {
	targetURL     string
	mockEndpoints *mockEndpointsManager
	listener      net.Listener
	server        *http.Server
	wiretap       bool
	statusTimeout time.Duration
	startupOutput io.Writer
	logger        framework.Logger
	lock          sync.Mutex
}

// NewTestHarness creates a TestHarness. If targetURL is non-empty, it polls that URL until the
// service responds or statusTimeout elapses. It then starts an HTTP listener on the given port
// (0 picks a free port) for mock endpoints, which are advertised using externalHostname.
func NewTestHarness(
	targetURL string,
	externalHostname string,
	port int,
	statusTimeout time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}

	h := &TestHarness{
		targetURL:     strings.TrimSuffix(targetURL, "/"),
		statusTimeout: statusTimeout,
		startupOutput: startupOutput,
		logger:        debugLogger,
	}

	if h.targetURL != "" {
		if err := awaitTargetService(h.targetURL, statusTimeout, startupOutput); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("could not start listener on port %d: %w", port, err)
	}
	h.listener = listener
	actualPort := listener.Addr().(*net.TCPAddr).Port
	h.mockEndpoints = newMockEndpointsManager(fmt.Sprintf("http://%s:%d", externalHostname, actualPort), debugLogger)

	if err := h.startServer(actualPort); err != nil {
		_ = listener.Close()
		return nil, err
	}
	return h, nil
}

// TargetURL returns the base URL of the Beer API under test.
func (h *TestHarness) TargetURL() string {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.targetURL
}

// SetWiretap controls whether Clients created by NewClient dump their traffic to the debug log.
func (h *TestHarness) SetWiretap(enabled bool) {
	h.lock.Lock()
	h.wiretap = enabled
	h.lock.Unlock()
}

// ServeMockTarget hosts handler on a new mock endpoint and makes that endpoint the Beer API
// under test.
func (h *TestHarness) ServeMockTarget(handler http.Handler) (*MockEndpoint, error) {
	e := h.NewMockEndpoint(handler, nil, MockEndpointDescription("mock Beer API"))
	if err := awaitTargetService(e.BaseURL(), h.statusTimeout, h.startupOutput); err != nil {
		e.Close()
		return nil, err
	}
	h.lock.Lock()
	h.targetURL = e.BaseURL()
	h.lock.Unlock()
	return e, nil
}

// NewClient creates a Client bound to the Beer API under test.
func (h *TestHarness) NewClient(logger framework.Logger, options ...ClientOption) (*Client, error) {
	h.lock.Lock()
	targetURL, wiretap := h.targetURL, h.wiretap
	h.lock.Unlock()
	if targetURL == "" {
		return nil, errors.New("no Beer API URL has been configured")
	}
	if logger == nil {
		logger = h.logger
	}
	return NewClient(targetURL, logger, append([]ClientOption{ClientWiretap(wiretap)}, options...)...)
}

// NewMockEndpoint adds a new endpoint that can receive requests.
//
// The handler receives every request to the endpoint's base URL or any subpath of it. For
// instance, if MockEndpoint.BaseURL() is http://localhost:8111/endpoints/3, it also receives
// requests to http://localhost:8111/endpoints/3/api/v2/beer/1. The request URL is rewritten
// first so that the handler sees only the subpath.
func (h *TestHarness) NewMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = h.logger
	}
	return h.mockEndpoints.newMockEndpoint(handler, logger, options...)
}

// Close stops the harness's own listener.
func (h *TestHarness) Close() error {
	return h.server.Close()
}

func (h *TestHarness) startServer(port int) error {
	h.server = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead && r.URL.Path == "/" {
				w.WriteHeader(200) // used to test whether our own listener is active yet
				return
			}
			h.mockEndpoints.serveHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := h.server.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("Harness listener stopped: %s", err)
		}
	}()

	// Wait till the server is definitely answering requests before we run any tests
	ownURL := fmt.Sprintf("http://localhost:%d", port)
	if !helpers.PollForSpecificResultValue(func() bool { return headRequestSucceeds(ownURL) },
		httpListenerTimeout, time.Millisecond*10, true) {
		return fmt.Errorf("could not detect own listener at %s", ownURL)
	}
	return nil
}

func headRequestSucceeds(url string) bool {
	resp, err := http.DefaultClient.Head(url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// awaitTargetService polls the Beer API until it answers with any HTTP status. The contract
// has no status resource, so a 404 for the base URL still proves the service is listening.
func awaitTargetService(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to Beer API at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Beer API responded with HTTP %d\n", resp.StatusCode)
			return nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out connecting to Beer API, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}
