// Command mock-brewery serves the in-process Beer API as a standalone service, so that the
// contract tests (or anything else) can be pointed at it with -url.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/data"
	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/mockbrewery"
)

const (
	defaultPort     = 8080
	shutdownTimeout = 5 * time.Second
)

type serviceParams struct {
	port      int
	storeKind mockbrewery.StoreKind
	storeDSN  string
	prefix    string
	seedFile  string
	noSeed    bool
	debug     bool
}

func (p *serviceParams) parse(fs *flag.FlagSet, args []string) error {
	var storeKind string
	fs.IntVar(&p.port, "port", defaultPort, "port to listen on")
	fs.StringVar(&storeKind, "store", string(mockbrewery.MemoryStore), "storage kind")
	fs.StringVar(&p.storeDSN, "store-dsn", "", "connection string or file path for -store")
	fs.StringVar(&p.prefix, "store-prefix", "", "key prefix or table name for shared stores")
	fs.StringVar(&p.seedFile, "seed", "", "JSON or YAML list of beers to start with (default: built-in list)")
	fs.BoolVar(&p.noSeed, "no-seed", false, "start with the store as it is")
	fs.BoolVar(&p.debug, "debug", false, "log every change")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := mockbrewery.ParseStoreKind(storeKind)
	if err != nil {
		return err
	}
	p.storeKind = kind
	return nil
}

func main() {
	var params serviceParams
	fs := flag.NewFlagSet("mock-brewery", flag.ContinueOnError)
	if err := params.parse(fs, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(params); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(params serviceParams) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	debugLogger := helpers.IfElse[framework.Logger](params.debug, logger, framework.NullLogger())

	store, err := mockbrewery.OpenStore(ctx, mockbrewery.StoreConfig{
		Kind:   params.storeKind,
		DSN:    params.storeDSN,
		Prefix: params.prefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if !params.noSeed {
		beers, err := data.LoadSeedBeers(params.seedFile)
		if err != nil {
			return err
		}
		if err := mockbrewery.Seed(ctx, store, beers); err != nil {
			return err
		}
		logger.Printf("Seeded %d beers", len(beers))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", params.port),
		Handler:           mockbrewery.NewBreweryService(store, debugLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Mock Beer API (%s store) listening on port %d", params.storeKind, params.port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
