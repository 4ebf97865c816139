package beertests

import (
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

func doSaveBeerTests(t *apitest.T) {
	t.Run("valid payload", doSaveBeerValidPayloadTest)
	t.Run("bad request", doSaveBeerBadRequestTest)
}

func doSaveBeerValidPayloadTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Post(servicedef.BeerV2Path, c.fixture.NewBeer))
	s.OnSuccess(call, func(t helpers.TestContext, resp harness.Response) {
		assert.True(t, resp.Is2xx(), "status was %d", resp.StatusCode)
	})

	if s.Verify(t, c.fixture.Timeouts.Create()) {
		removeCreatedBeer(t, c, call)
	}
}

// removeCreatedBeer deletes the beer a successful create pointed to in its Location header, so
// that the suite can be run again without the new UPC already being taken. A service that does
// not return a Location is left alone.
func removeCreatedBeer(t *apitest.T, c BeerTestContext, call *harness.Call) {
	outcome := call.Outcome()
	if !outcome.IsDefined() || !outcome.Value().Succeeded() {
		return
	}
	location := outcome.Value().Response.Header.Get("Location")
	if i := strings.Index(location, servicedef.BeerV2Path+"/"); i >= 0 {
		path := location[i:]
		client := c.newClient(t)
		t.Defer(func() {
			if _, err := doBlocking(client, harness.Delete(path), c.fixture.Timeouts.SingleRoundTrip()); err != nil {
				t.Debug("Could not remove created beer at %s: %s", path, err)
			}
		})
	}
}

func doSaveBeerBadRequestTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Post(servicedef.BeerV2Path, c.fixture.InvalidBeer))
	s.OnFailure(call, expectStatus(http.StatusBadRequest))

	s.Verify(t, c.fixture.Timeouts.Create())
}
