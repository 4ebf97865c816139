package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/beertests"
	"github.com/sfgbrewery/beer-contract-tests/data"
	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/framework/harness"
	"github.com/sfgbrewery/beer-contract-tests/mockbrewery"
)

const defaultPort = 8111
const statusQueryTimeout = time.Second * 10

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("beer-contract-tests v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*apitest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressionFile(params.skipFile, &params.filters); err != nil {
			return nil, err
		}
	}

	fixture, err := data.LoadFixture(params.fixtureFile)
	if err != nil {
		return nil, err
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	h, err := harness.NewTestHarness(
		params.serviceURL,
		params.host,
		params.port,
		statusQueryTimeout,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()
	h.SetWiretap(params.wiretap)

	var suiteOptions []beertests.SuiteOption
	if params.mock {
		brewery, closeStore, err := startMockBrewery(params, mainDebugLogger)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		if _, err := h.ServeMockTarget(brewery); err != nil {
			return nil, err
		}
		suiteOptions = append(suiteOptions, beertests.WithMockBrewery(brewery))
	}

	apitest.PrintFilterDescription(params.filters)

	var testLogger apitest.TestLogger
	consoleLogger := apitest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		testLogger = &apitest.MultiTestLogger{Loggers: []apitest.TestLogger{
			consoleLogger,
			apitest.NewJUnitTestLogger(params.jUnitFile, params.filters, jUnitProperties(params, h.TargetURL(), fixture)...),
		}}
	}

	results := beertests.RunBeerAPITestSuite(h, fixture, params.filters, testLogger, suiteOptions...)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %w", err)
	}

	if params.recordFailures != "" {
		if err := recordFailures(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

// jUnitProperties describes the run in the JUnit report: what was tested and with which waits.
func jUnitProperties(params commandParams, targetURL string, fixture data.Fixture) []apitest.JUnitProperty {
	target := "external"
	if params.mock {
		target = "mock (" + string(params.storeKind) + " store)"
	}
	fixtureSource := params.fixtureFile
	if fixtureSource == "" {
		fixtureSource = "built-in"
	}
	return []apitest.JUnitProperty{
		{Name: "tests.target.url", Value: targetURL},
		{Name: "tests.target.kind", Value: target},
		{Name: "tests.fixture", Value: fixtureSource},
		{Name: "tests.timeouts.singleRoundTrip", Value: fixture.Timeouts.SingleRoundTrip().String()},
		{Name: "tests.timeouts.create", Value: fixture.Timeouts.Create().String()},
		{Name: "tests.timeouts.updateFirstPhase", Value: fixture.Timeouts.UpdateFirstPhase().String()},
		{Name: "tests.timeouts.chained", Value: fixture.Timeouts.Chained().String()},
	}
}

// startMockBrewery opens the configured store, seeds it, and returns the Beer API handler along
// with a function that closes the store.
func startMockBrewery(params commandParams, logger framework.Logger) (*mockbrewery.BreweryService, func(), error) {
	ctx := context.Background()
	beers, err := data.LoadSeedBeers(params.seedFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := mockbrewery.OpenStore(ctx, mockbrewery.StoreConfig{Kind: params.storeKind, DSN: params.storeDSN})
	if err != nil {
		return nil, nil, err
	}
	if err := mockbrewery.Seed(ctx, store, beers); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	fmt.Printf("Started mock Beer API with %d beers in %s store\n", len(beers), params.storeKind)
	return mockbrewery.NewBreweryService(store, logger), func() { _ = store.Close() }, nil
}

func loadSuppressionFile(path string, filters *apitest.RegexFilters) error {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return loadSuppressions(file, filters)
}

// loadSuppressions reads one literal test ID per line; each one, and its subtests, is skipped.
func loadSuppressions(r io.Reader, filters *apitest.RegexFilters) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		filters.MustNotMatch = append(filters.MustNotMatch, apitest.ExactTestIDPattern(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}

func recordFailures(path string, results apitest.Results) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return writeFailures(f, results)
}

func writeFailures(w io.Writer, results apitest.Results) error {
	for _, test := range results.Failures {
		if _, err := fmt.Fprintln(w, test.TestID); err != nil {
			return err
		}
	}
	return nil
}
