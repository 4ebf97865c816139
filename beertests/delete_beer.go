package beertests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

func doDeleteBeerTests(t *apitest.T) {
	t.Run("then fetch", doDeleteThenFetchTest)
	t.Run("twice", doDeleteTwiceTest)
}

// The fetch is dispatched from the delete's success continuation, so it can never overtake it.
func doDeleteThenFetchTest(t *apitest.T) {
	c := requireContext(t)
	s := c.newScenario(t, 2)
	path := servicedef.BeerPath(c.fixture.DeleteBeerID)

	del := s.Dispatch(harness.Delete(path))
	s.OnSuccess(del, nil)
	fetch := del.Then(func(harness.Response) *harness.Call {
		return s.Dispatch(harness.Get(path))
	})
	s.OnFailure(fetch, expectNotFound)

	s.Verify(t, c.fixture.Timeouts.Chained())
}

func doDeleteTwiceTest(t *apitest.T) {
	c := requireContext(t)
	client := c.newClient(t)
	path := servicedef.BeerPath(c.fixture.DeleteTwiceBeerID)
	timeout := c.fixture.Timeouts.SingleRoundTrip()

	_, err := doBlocking(client, harness.Delete(path), timeout)
	require.NoError(t, err, "first delete")

	_, err = doBlocking(client, harness.Delete(path), timeout)
	require.Error(t, err, "second delete should have failed")
	assert.True(t, harness.IsNotFound(err), "expected not-found, got: %s", err)
}
