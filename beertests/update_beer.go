package beertests

import (
	"github.com/stretchr/testify/assert"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

func doUpdateBeerTests(t *apitest.T) {
	t.Run("existing", doUpdateExistingBeerTest)
	t.Run("not found", doUpdateMissingBeerTest)
}

// The read is dispatched only after the update has completed, or after the first-phase deadline
// if it has not, and both share one gate.
func doUpdateExistingBeerTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 2)
	path := servicedef.BeerPath(c.fixture.UpdateBeerID)
	updated := c.fixture.UpdatedBeer

	put := s.Dispatch(harness.Put(path, updated))
	s.OnSuccess(put, nil)
	if !s.AwaitCall(put, c.fixture.Timeouts.UpdateFirstPhase()) {
		t.Debug("Update had not completed after %s; reading anyway", c.fixture.Timeouts.UpdateFirstPhase())
	}

	get := s.Dispatch(harness.Get(path))
	s.OnSuccess(get, func(t helpers.TestContext, resp harness.Response) {
		beer := requireBeer(t, resp)
		assert.Equal(t, updated.BeerName, beer.BeerName)
	})

	s.Verify(t, c.fixture.Timeouts.Chained())
}

func doUpdateMissingBeerTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Put(servicedef.BeerPath(c.fixture.MissingUpdateBeerID), c.fixture.UpdatedBeer))
	s.OnFailure(call, expectNotFound)

	s.Verify(t, c.fixture.Timeouts.SingleRoundTrip())
}
