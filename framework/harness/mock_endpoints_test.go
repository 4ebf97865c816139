package harness

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

func TestMockEndpointServesRequest(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	e1 := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	assert.Equal(t, "http://testharness:9999/endpoints/1", e1.BaseURL())

	e2 := m.newMockEndpoint(httphelpers.HandlerWithStatus(204), nil)
	assert.Equal(t, "http://testharness:9999/endpoints/2", e2.BaseURL())

	rr1 := httptest.NewRecorder()
	r1, _ := http.NewRequest("GET", e1.BaseURL(), nil)
	m.serveHTTP(rr1, r1)
	assert.Equal(t, 200, rr1.Code)

	rr2 := httptest.NewRecorder()
	r2, _ := http.NewRequest("GET", e2.BaseURL(), nil)
	m.serveHTTP(rr2, r2)
	assert.Equal(t, 204, rr2.Code)

	rr3 := httptest.NewRecorder()
	r3, _ := http.NewRequest("GET", "http://testharness:9999/endpoints/3", nil)
	m.serveHTTP(rr3, r3)
	assert.Equal(t, 404, rr3.Code)
}

func TestMockEndpointReceivesSubpath(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())

	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	e := m.newMockEndpoint(handler, nil)

	for _, subpath := range []string{"", "/", "/api/v2/beer/upc/0631234200036"} {
		rr := httptest.NewRecorder()
		r, _ := http.NewRequest("GET", e.BaseURL()+subpath, nil)
		m.serveHTTP(rr, r)
		received := helpers.RequireValue(t, requests, time.Second)
		if subpath == "" {
			assert.Equal(t, "/", received.Request.URL.Path)
		} else {
			assert.Equal(t, subpath, received.Request.URL.Path)
		}
	}
}

func TestMockEndpointConnectionInfo(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	e := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil, MockEndpointDescription("beer api"))

	_, err := e.AwaitConnection(time.Millisecond * 50)
	assert.Error(t, err)

	rr1 := httptest.NewRecorder()
	r1, _ := http.NewRequest("GET", e.BaseURL()+"/api/v2/beer/1", nil)
	r1.Header.Add("Accept", "application/json")
	m.serveHTTP(rr1, r1)
	cxn1, err := e.AwaitConnection(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "GET", cxn1.Method)
	assert.Equal(t, "/api/v2/beer/1", cxn1.URL.Path)
	assert.Nil(t, cxn1.Body)
	assert.Equal(t, "application/json", cxn1.Headers.Get("Accept"))

	rr2 := httptest.NewRecorder()
	r2, _ := http.NewRequest("POST", e.BaseURL()+"/api/v2/beer", bytes.NewBuffer([]byte(`{"beerName":"x"}`)))
	m.serveHTTP(rr2, r2)
	cxn2 := e.RequireConnection(t, time.Second)
	assert.Equal(t, "POST", cxn2.Method)
	assert.Equal(t, []byte(`{"beerName":"x"}`), cxn2.Body)

	e.RequireNoMoreConnections(t, time.Millisecond*20)
}

func TestMockEndpointClose(t *testing.T) {
	m := newMockEndpointsManager("http://testharness:9999", framework.NullLogger())
	e := m.newMockEndpoint(httphelpers.HandlerWithStatus(200), nil)
	e.Close()
	e.Close()

	rr := httptest.NewRecorder()
	r, _ := http.NewRequest("GET", e.BaseURL(), nil)
	m.serveHTTP(rr, r)
	assert.Equal(t, 404, rr.Code)

	_, err := e.AwaitConnection(time.Millisecond * 10)
	assert.Error(t, err)
}
