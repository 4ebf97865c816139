package harness

import (
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/jsonhelpers"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
)

func TestGetRequest(t *testing.T) {
	r := Get("/api/v2/beer/1")
	assert.Equal(t, "GET", r.Method())
	assert.Equal(t, "/api/v2/beer/1", r.Path())
	assert.Equal(t, "application/json", r.Header().Get("Accept"))
	assert.Equal(t, "", r.Header().Get("Content-Type"))
	assert.Nil(t, r.Body())
	assert.Equal(t, "GET /api/v2/beer/1", r.String())
}

func TestPostRequestSerializesPayload(t *testing.T) {
	payload := map[string]interface{}{"beerName": "JTs Beer", "upc": "1233455"}
	r := Post("/api/v2/beer", payload)
	assert.Equal(t, "POST", r.Method())
	assert.Equal(t, "application/json", r.Header().Get("Content-Type"))
	m.In(t).Assert(r.Body(), m.JSONEqual(payload))
}

func TestPutAndDeleteRequests(t *testing.T) {
	assert.Equal(t, "PUT", Put("/api/v2/beer/1", map[string]string{}).Method())
	assert.Equal(t, "DELETE", Delete("/api/v2/beer/1").Method())
	assert.Nil(t, Delete("/api/v2/beer/1").Body())
}

func TestRequestIsImmutable(t *testing.T) {
	r := Post("/api/v2/beer", map[string]string{"beerName": "a"})

	body := r.Body()
	body[0] = 'x'
	assert.Equal(t, jsonhelpers.ToJSONString(map[string]string{"beerName": "a"}), string(r.Body()))

	h := r.Header()
	h.Set("Accept", "text/plain")
	assert.Equal(t, "application/json", r.Header().Get("Accept"))

	r2 := r.WithHeader("Accept", "text/plain")
	assert.Equal(t, "application/json", r.Header().Get("Accept"))
	assert.Equal(t, "text/plain", r2.Header().Get("Accept"))

	raw := []byte(`{"price":1}`)
	r3 := r.WithRawBody(raw)
	raw[0] = 'x'
	assert.Equal(t, `{"price":1}`, string(r3.Body()))
	assert.NotEqual(t, string(r3.Body()), string(r.Body()))
}
