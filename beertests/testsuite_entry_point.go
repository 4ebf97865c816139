package beertests

import (
	"fmt"
	"net/http"

	"github.com/sfgbrewery/beer-contract-tests/data"
	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
)

// BeerTestContext is what every scenario can get from the test scope.
type BeerTestContext struct {
	harness     *harness.TestHarness
	fixture     data.Fixture
	mockBrewery http.Handler
}

// SuiteOption is an optional setting for RunBeerAPITestSuite.
type SuiteOption helpers.ConfigOption[BeerTestContext]

type suiteOptionMockBrewery struct{ handler http.Handler }

func (o suiteOptionMockBrewery) Configure(c *BeerTestContext) error {
	c.mockBrewery = o.handler
	return nil
}

// WithMockBrewery says that the Beer API under test is the given in-process handler. This enables
// scenarios that need to see the requests as the service receives them.
func WithMockBrewery(handler http.Handler) SuiteOption {
	return suiteOptionMockBrewery{handler}
}

// RunBeerAPITestSuite runs every contract scenario against the Beer API that the harness targets.
func RunBeerAPITestSuite(
	h *harness.TestHarness,
	fixture data.Fixture,
	filter apitest.Filter,
	testLogger apitest.TestLogger,
	options ...SuiteOption,
) apitest.Results {
	context := BeerTestContext{harness: h, fixture: fixture}
	if err := helpers.ApplyOptions(&context, options...); err != nil {
		return apitest.Results{
			Failures: []apitest.TestResult{{Errors: []error{err}}},
		}
	}

	fmt.Printf("Running Beer API contract tests against %s\n", h.TargetURL())
	fmt.Println()

	config := apitest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context:    context,
	}

	return apitest.Run(config, func(t *apitest.T) {
		t.Run("get beer", doGetBeerTests)
		t.Run("save beer", doSaveBeerTests)
		t.Run("update beer", doUpdateBeerTests)
		t.Run("delete beer", doDeleteBeerTests)
		t.Run("request shape", doRequestShapeTests)
	})
}

func requireContext(t *apitest.T) BeerTestContext {
	c, ok := t.Context().(BeerTestContext)
	if !ok {
		t.Errorf("test context was not set up correctly")
		t.FailNow()
	}
	return c
}
