package beertests

import (
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

const expectedMediaType = "application/json"

// doRequestShapeTests checks the requests as the service receives them. That needs a mock
// endpoint in front of the Beer API, so it only runs against the in-process mock.
func doRequestShapeTests(t *apitest.T) {
	c := requireContext(t)
	if c.mockBrewery == nil {
		t.SkipWithReason("request recording needs the in-process mock Beer API (-mock)")
	}

	endpoint := c.harness.NewMockEndpoint(c.mockBrewery, t.DebugLogger(),
		harness.MockEndpointDescription("request recorder"))
	t.Defer(endpoint.Close)
	client, err := harness.NewClient(endpoint.BaseURL(), t.DebugLogger())
	require.NoError(t, err)
	timeout := c.fixture.Timeouts.SingleRoundTrip()

	t.Run("get", func(t *apitest.T) {
		s := harness.NewScenario(client, 1, t.DebugLogger())
		call := s.Dispatch(harness.Get(servicedef.BeerPath(c.fixture.ExistingBeerIDs[0])))
		s.OnSuccess(call, nil)
		s.Verify(t, timeout)

		received := endpoint.RequireConnection(t, timeout)
		assert.Equal(t, http.MethodGet, received.Method)
		assert.Equal(t, expectedMediaType, received.Headers.Get("Accept"))
		assert.Equal(t, call.ID(), received.Headers.Get("X-Request-Id"))
	})

	t.Run("post", func(t *apitest.T) {
		// the invalid payload is rejected, so the store is left unchanged
		s := harness.NewScenario(client, 1, t.DebugLogger())
		call := s.Dispatch(harness.Post(servicedef.BeerV2Path, c.fixture.InvalidBeer))
		s.OnFailure(call, expectStatus(http.StatusBadRequest))
		s.Verify(t, timeout)

		received := endpoint.RequireConnection(t, timeout)
		assert.Equal(t, http.MethodPost, received.Method)
		assert.Equal(t, expectedMediaType, received.Headers.Get("Content-Type"))
		assert.Equal(t, expectedMediaType, received.Headers.Get("Accept"))
		body := ldvalue.Parse(received.Body)
		require.False(t, body.IsNull(), "request body was not JSON")
		assert.False(t, body.GetByKey("id").IsDefined(), "request body should not contain an id")
		assert.JSONEq(t, helpers.AsJSONValue(c.fixture.InvalidBeer).JSONString(), string(received.Body))
	})

	endpoint.RequireNoMoreConnections(t, 0)
}
