package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseIs2xx(t *testing.T) {
	assert.True(t, Response{StatusCode: 200}.Is2xx())
	assert.True(t, Response{StatusCode: 204}.Is2xx())
	assert.False(t, Response{StatusCode: 301}.Is2xx())
	assert.False(t, Response{StatusCode: 404}.Is2xx())
}

func TestResponseDecodeJSON(t *testing.T) {
	var out struct {
		BeerName string `json:"beerName"`
	}
	require.NoError(t, Response{Body: []byte(`{"beerName":"Galaxy Cat"}`)}.DecodeJSON(&out))
	assert.Equal(t, "Galaxy Cat", out.BeerName)

	assert.Error(t, Response{}.DecodeJSON(&out))
	assert.Error(t, Response{Body: []byte(`{`)}.DecodeJSON(&out))
}

func TestResponseJSONValue(t *testing.T) {
	assert.Equal(t, "Galaxy Cat", Response{Body: []byte(`{"beerName":"Galaxy Cat"}`)}.JSONValue().
		GetByKey("beerName").StringValue())
	assert.True(t, Response{}.JSONValue().IsNull())
}

func TestStatusErrorHelpers(t *testing.T) {
	notFound := &StatusError{Method: "GET", URL: "http://localhost/api/v2/beer/1333", StatusCode: 404}
	badRequest := &StatusError{Method: "POST", URL: "http://localhost/api/v2/beer", StatusCode: 400}
	wrapped := fmt.Errorf("context: %w", notFound)
	transport := &TransportError{Method: "GET", URL: "http://localhost", Err: errors.New("connection refused")}

	assert.Equal(t, "GET http://localhost/api/v2/beer/1333 returned HTTP 404", notFound.Error())
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(badRequest))
	assert.True(t, IsBadRequest(badRequest))
	assert.False(t, IsNotFound(transport))

	assert.Equal(t, 4, StatusClass(notFound))
	assert.Equal(t, 4, StatusClass(wrapped))
	assert.Equal(t, 0, StatusClass(transport))
	assert.Equal(t, 0, StatusClass(nil))

	assert.Equal(t, "GET http://localhost failed: connection refused", transport.Error())
	assert.Equal(t, "connection refused", errors.Unwrap(transport).Error())
}
