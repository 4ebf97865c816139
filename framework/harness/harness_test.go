package harness

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework"
)

func newTestHarness(t *testing.T, targetURL string, output io.Writer) *TestHarness {
	h, err := NewTestHarness(targetURL, "localhost", 0, time.Second, framework.NullLogger(), output)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHarnessConnectsToTargetService(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(404), func(server *httptest.Server) {
		var output bytes.Buffer
		h := newTestHarness(t, server.URL+"/", &output)
		assert.Equal(t, server.URL, h.TargetURL())
		assert.Contains(t, output.String(), "Connecting to Beer API at "+server.URL)
		assert.Contains(t, output.String(), "Beer API responded with HTTP 404")

		c, err := h.NewClient(nil)
		require.NoError(t, err)
		assert.Equal(t, server.URL, c.BaseURL())
	})
}

func TestHarnessFailsIfTargetServiceIsUnreachable(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	var output bytes.Buffer
	_, err := NewTestHarness(url, "localhost", 0, time.Millisecond*200, nil, &output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out connecting to Beer API")
}

func TestHarnessWithoutTargetCannotCreateClient(t *testing.T) {
	h := newTestHarness(t, "", io.Discard)
	_, err := h.NewClient(nil)
	assert.Error(t, err)
}

func TestHarnessServesMockTarget(t *testing.T) {
	h := newTestHarness(t, "", io.Discard)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/beer/1" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"beerName":"Mango Bobs"}`))
			return
		}
		w.WriteHeader(404)
	})
	endpoint, err := h.ServeMockTarget(handler)
	require.NoError(t, err)
	assert.Equal(t, endpoint.BaseURL(), h.TargetURL())
	_, _ = endpoint.AwaitConnection(time.Second) // the reachability check

	h.SetWiretap(true)
	c, err := h.NewClient(nil)
	require.NoError(t, err)
	resp, err := c.Do(context.Background(), Get("/api/v2/beer/1"))
	require.NoError(t, err)
	assert.Equal(t, "Mango Bobs", resp.JSONValue().GetByKey("beerName").StringValue())

	received := endpoint.RequireConnection(t, time.Second)
	assert.Equal(t, "/api/v2/beer/1", received.URL.Path)
	assert.Equal(t, resp.RequestID, received.Headers.Get("X-Request-Id"))

	_, err = c.Do(context.Background(), Get("/api/v2/beer/1333"))
	assert.True(t, IsNotFound(err))
}

func TestHarnessUnknownEndpointReturns404(t *testing.T) {
	h := newTestHarness(t, "", io.Discard)
	e := h.NewMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	resp, err := http.Get(e.BaseURL())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = http.Get(e.BaseURL() + "0")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}
