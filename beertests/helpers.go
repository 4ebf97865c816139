package beertests

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

// newClient creates a Client for the Beer API under test that logs to the test's debug output.
func (c BeerTestContext) newClient(t *apitest.T) *harness.Client {
	client, err := c.harness.NewClient(t.DebugLogger())
	require.NoError(t, err)
	return client
}

// newScenario creates a Scenario that expects the given number of completions.
func (c BeerTestContext) newScenario(t *apitest.T, expectedCompletions int) *harness.Scenario {
	return harness.NewScenario(c.newClient(t), expectedCompletions, t.DebugLogger())
}

// doBlocking sends a request and waits for its outcome, giving up after timeout.
func doBlocking(client *harness.Client, req harness.Request, timeout time.Duration) (harness.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Do(ctx, req)
}

// requireBeer decodes a response body as a Beer. The body must be a JSON object.
func requireBeer(t helpers.TestContext, resp harness.Response) servicedef.Beer {
	t.Helper()
	value := resp.JSONValue()
	require.False(t, value.IsNull(), "response body was empty or not JSON")
	var beer servicedef.Beer
	require.NoError(t, resp.DecodeJSON(&beer))
	return beer
}

// expectNotFound is a FailureCheck for requests that must fail with a 404.
func expectNotFound(t helpers.TestContext, err error) {
	assert.Equal(t, http.StatusNotFound, harness.StatusCodeOf(err), "unexpected failure: %s", err)
}

// expectStatus returns a FailureCheck for requests that must fail with the given status.
func expectStatus(status int) harness.FailureCheck {
	return func(t helpers.TestContext, err error) {
		assert.Equal(t, status, harness.StatusCodeOf(err), "unexpected failure: %s", err)
	}
}
