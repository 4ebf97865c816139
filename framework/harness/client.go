package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

const defaultRequestTimeout = time.Second * 10

// Client sends requests to the Beer API. Dispatch is non-blocking and reports through a Call;
// Do is the blocking form.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	wiretap        bool
	logger         framework.Logger
}

type ClientOption helpers.ConfigOption[Client]

type clientOptionRequestTimeout time.Duration

func (o clientOptionRequestTimeout) Configure(c *Client) error {
	c.requestTimeout = time.Duration(o)
	return nil
}

// ClientRequestTimeout bounds each request. It does not affect how long a scenario waits.
func ClientRequestTimeout(timeout time.Duration) ClientOption {
	return clientOptionRequestTimeout(timeout)
}

type clientOptionWiretap bool

func (o clientOptionWiretap) Configure(c *Client) error {
	c.wiretap = bool(o)
	return nil
}

// ClientWiretap turns on dumping of every request and response to the client's logger.
func ClientWiretap(enabled bool) ClientOption {
	return clientOptionWiretap(enabled)
}

type clientOptionTransport struct {
	transport http.RoundTripper
}

func (o clientOptionTransport) Configure(c *Client) error {
	c.httpClient.Transport = o.transport
	return nil
}

// ClientTransport replaces the underlying http.RoundTripper.
func ClientTransport(transport http.RoundTripper) ClientOption {
	return clientOptionTransport{transport}
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, logger framework.Logger, options ...ClientOption) (*Client, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
		logger:         logger,
	}
	if err := helpers.ApplyOptions(c, options...); err != nil {
		return nil, err
	}
	c.httpClient.Timeout = c.requestTimeout
	if c.wiretap {
		c.httpClient.Transport = newWiretapTransport(c.httpClient.Transport, logger)
	}
	return c, nil
}

// BaseURL returns the URL that request paths are appended to.
func (c *Client) BaseURL() string { return c.baseURL }

// Dispatch sends the request on its own goroutine and returns immediately.
func (c *Client) Dispatch(req Request) *Call {
	call := newCall(uuid.NewString(), req)
	go func() {
		resp, err := c.send(context.Background(), call.id, req)
		call.complete(Outcome{Response: resp, Err: err})
	}()
	return call
}

// Do sends the request and waits for the result.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	return c.send(ctx, uuid.NewString(), req)
}

func (c *Client) send(ctx context.Context, requestID string, req Request) (Response, error) {
	url := c.baseURL + req.Path()
	logger := framework.LoggerWithPrefix(c.logger, "["+requestID+"] ")

	var bodyReader io.Reader
	if body := req.Body(); body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), url, bodyReader)
	if err != nil {
		return Response{}, &TransportError{Method: req.Method(), URL: url, RequestID: requestID, Err: err}
	}
	httpReq.Header = req.Header()
	httpReq.Header.Set(requestIDHeader, requestID)

	logger.Printf("Sending %s %s", req.Method(), url)
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Printf("Request failed: %s", err)
		return Response{}, &TransportError{Method: req.Method(), URL: url, RequestID: requestID, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		logger.Printf("Failed to read response body: %s", err)
		return Response{}, &TransportError{Method: req.Method(), URL: url, RequestID: requestID, Err: err}
	}
	resp := Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
		RequestID:  requestID,
	}
	if len(respBody) == 0 {
		logger.Printf("Received HTTP %d", resp.StatusCode)
	} else {
		logger.Printf("Received HTTP %d: %s", resp.StatusCode, helpers.CanonicalizedJSONString(respBody))
	}
	if !resp.Is2xx() {
		return Response{}, &StatusError{
			Method:     req.Method(),
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RequestID:  requestID,
		}
	}
	return resp, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("Client(%s)", c.baseURL)
}
