package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sfgbrewery/beer-contract-tests/framework/apitest"
	"github.com/sfgbrewery/beer-contract-tests/mockbrewery"
)

type commandParams struct {
	serviceURL     string
	port           int
	host           string
	filters        apitest.RegexFilters
	skipFile       string
	recordFailures string
	debug          bool
	debugAll       bool
	jUnitFile      string
	fixtureFile    string
	wiretap        bool
	mock           bool
	storeKind      mockbrewery.StoreKind
	storeDSN       string
	seedFile       string
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	if err := c.parse(fs, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

func (c *commandParams) parse(fs *flag.FlagSet, args []string) error {
	var storeKind string
	fs.StringVar(&c.serviceURL, "url", "", "base URL of the Beer API under test")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the test harness will listen on")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file listing test IDs not to run, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.fixtureFile, "fixture", "", "JSON or YAML fixture file (default: built-in fixture)")
	fs.BoolVar(&c.wiretap, "wiretap", false, "log every request and response in the debug output")
	fs.BoolVar(&c.mock, "mock", false, "test an in-process mock Beer API instead of -url")
	fs.StringVar(&storeKind, "store", string(mockbrewery.MemoryStore), "storage for the mock Beer API")
	fs.StringVar(&c.storeDSN, "store-dsn", "", "connection string or file path for -store")
	fs.StringVar(&c.seedFile, "seed", "", "JSON or YAML list of beers for the mock Beer API (default: built-in list)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := mockbrewery.ParseStoreKind(storeKind)
	if err != nil {
		return err
	}
	c.storeKind = kind
	if c.mock == (c.serviceURL != "") {
		return fmt.Errorf("exactly one of -url or -mock is required")
	}
	return nil
}
