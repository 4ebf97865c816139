package beertests

import (
	"github.com/stretchr/testify/assert"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

func doGetBeerTests(t *apitest.T) {
	t.Run("by id", doGetBeerByIDTest)
	t.Run("by id not found", doGetBeerByIDNotFoundTest)
	t.Run("by upc", doGetBeerByUPCTest)
	t.Run("by upc not found", doGetBeerByUPCNotFoundTest)
}

func doGetBeerByIDTest(t *apitest.T) {
	c := requireContext(t)
	ids := c.fixture.ExistingBeerIDs
	s := c.newScenario(t, len(ids))

	for _, id := range helpers.Sorted(ids) {
		call := s.Dispatch(harness.Get(servicedef.BeerPath(id)))
		s.OnSuccess(call, func(t helpers.TestContext, resp harness.Response) {
			beer := requireBeer(t, resp)
			assert.NotEmpty(t, beer.BeerName, "beer name")
		})
	}

	s.Verify(t, c.fixture.Timeouts.SingleRoundTrip())
}

func doGetBeerByIDNotFoundTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Get(servicedef.BeerPath(c.fixture.MissingBeerID)))
	s.OnFailure(call, expectNotFound)

	s.Verify(t, c.fixture.Timeouts.SingleRoundTrip())
}

func doGetBeerByUPCTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Get(servicedef.BeerUPCPath(c.fixture.KnownUPC)))
	s.OnSuccess(call, func(t helpers.TestContext, resp harness.Response) {
		beer := requireBeer(t, resp)
		assert.NotEmpty(t, beer.BeerName, "beer name")
		assert.Equal(t, c.fixture.KnownUPC, beer.UPC)
	})

	s.Verify(t, c.fixture.Timeouts.SingleRoundTrip())
}

func doGetBeerByUPCNotFoundTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 1)

	call := s.Dispatch(harness.Get(servicedef.BeerUPCPath(c.fixture.MissingUPC)))
	s.OnFailure(call, expectNotFound)

	s.Verify(t, c.fixture.Timeouts.SingleRoundTrip())
}
