package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Response is a completed HTTP exchange with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Is2xx returns true for any success status.
func (r Response) Is2xx() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into target.
func (r Response) DecodeJSON(target interface{}) error {
	if len(r.Body) == 0 {
		return errors.New("response has no body")
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("malformed JSON response body: %w", err)
	}
	return nil
}

// JSONValue parses the body as arbitrary JSON. An empty or malformed body gives a null value.
func (r Response) JSONValue() ldvalue.Value {
	if len(r.Body) == 0 {
		return ldvalue.Null()
	}
	return ldvalue.Parse(r.Body)
}

// Outcome is the single result of a dispatched request: either a Response or an error.
type Outcome struct {
	Response Response
	Err      error
}

func (o Outcome) Succeeded() bool { return o.Err == nil }

// StatusError is the failure for a request that got a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned HTTP %d", e.Method, e.URL, e.StatusCode)
}

// TransportError is the failure for a request that got no HTTP response at all.
type TransportError struct {
	Method    string
	URL       string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusClass returns the hundreds digit of the status code carried by err, such as 4 for a
// 404, or 0 if err is not a StatusError.
func StatusClass(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode / 100
	}
	return 0
}

// StatusCodeOf returns the status code carried by err, or 0 if err is not a StatusError.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCodeOf(err) == http.StatusNotFound }

func IsBadRequest(err error) bool { return StatusCodeOf(err) == http.StatusBadRequest }
