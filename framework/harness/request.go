package harness

import (
	"net/http"

	"github.com/launchdarkly/go-test-helpers/v2/jsonhelpers"

	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

const (
	jsonContentType = "application/json"
	requestIDHeader = "X-Request-Id"
)

// Request describes one HTTP call to the Beer API. It is immutable: the With methods return
// modified copies, and Header and Body return copies of the stored values.
type Request struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newRequest(method, path string, body []byte) Request {
	h := make(http.Header)
	h.Set("Accept", jsonContentType)
	if body != nil {
		h.Set("Content-Type", jsonContentType)
	}
	return Request{method: method, path: path, header: h, body: body}
}

// Get describes a GET of the given path.
func Get(path string) Request { return newRequest(http.MethodGet, path, nil) }

// Post describes a POST of payload, serialized as JSON, to the given path.
func Post(path string, payload interface{}) Request {
	return newRequest(http.MethodPost, path, jsonhelpers.ToJSON(payload))
}

// Put describes a PUT of payload, serialized as JSON, to the given path.
func Put(path string, payload interface{}) Request {
	return newRequest(http.MethodPut, path, jsonhelpers.ToJSON(payload))
}

// Delete describes a DELETE of the given path.
func Delete(path string) Request { return newRequest(http.MethodDelete, path, nil) }

func (r Request) Method() string { return r.method }

func (r Request) Path() string { return r.path }

func (r Request) Header() http.Header { return r.header.Clone() }

func (r Request) Body() []byte { return helpers.CopyOf(r.body) }

// WithHeader returns a copy of the request with the header set to value.
func (r Request) WithHeader(name, value string) Request {
	r.header = r.header.Clone()
	if r.header == nil {
		r.header = make(http.Header)
	}
	r.header.Set(name, value)
	return r
}

// WithRawBody returns a copy of the request with the given body bytes, which are sent as is.
func (r Request) WithRawBody(body []byte) Request {
	r.body = helpers.CopyOf(body)
	return r
}

func (r Request) String() string {
	return r.method + " " + r.path
}
