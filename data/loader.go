package data

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/framework/helpers"
	"github.com/sfgbrewery/beer-contract-tests/framework/opt"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

//go:embed data-files
var dataFilesRoot embed.FS

const (
	dataBasePath        = "data-files"
	defaultFixtureFile  = "fixture.yaml"
	defaultSeedDataFile = "beers.yaml"
)

// Default wait deadlines, in milliseconds, for fixtures that do not override them.
const (
	DefaultSingleRoundTripMillis  = 2000
	DefaultCreateMillis           = 1000
	DefaultUpdateFirstPhaseMillis = 500
	DefaultChainedMillis          = 1000
)

// Fixture holds every identifier, UPC, payload, and deadline the contract scenarios use. None of
// these are computed at run time; they must match the data the Beer API was seeded with.
type Fixture struct {
	ExistingBeerIDs     []int           `json:"existingBeerIds"`
	MissingBeerID       int             `json:"missingBeerId"`
	KnownUPC            string          `json:"knownUpc"`
	MissingUPC          string          `json:"missingUpc"`
	NewBeer             servicedef.Beer `json:"newBeer"`
	InvalidBeer         servicedef.Beer `json:"invalidBeer"`
	UpdateBeerID        int             `json:"updateBeerId"`
	UpdatedBeer         servicedef.Beer `json:"updatedBeer"`
	MissingUpdateBeerID int             `json:"missingUpdateBeerId"`
	DeleteBeerID        int             `json:"deleteBeerId"`
	DeleteTwiceBeerID   int             `json:"deleteTwiceBeerId"`
	Timeouts            Timeouts        `json:"timeouts"`
}

// Timeouts are the bounded waits of the scenarios, in milliseconds. Any that are omitted use
// the Default constants.
type Timeouts struct {
	SingleRoundTripMillis  opt.Maybe[int] `json:"singleRoundTrip"`
	CreateMillis           opt.Maybe[int] `json:"create"`
	UpdateFirstPhaseMillis opt.Maybe[int] `json:"updateFirstPhase"`
	ChainedMillis          opt.Maybe[int] `json:"chained"`
}

func (t Timeouts) SingleRoundTrip() time.Duration {
	return millis(t.SingleRoundTripMillis, DefaultSingleRoundTripMillis)
}

func (t Timeouts) Create() time.Duration {
	return millis(t.CreateMillis, DefaultCreateMillis)
}

func (t Timeouts) UpdateFirstPhase() time.Duration {
	return millis(t.UpdateFirstPhaseMillis, DefaultUpdateFirstPhaseMillis)
}

func (t Timeouts) Chained() time.Duration {
	return millis(t.ChainedMillis, DefaultChainedMillis)
}

func millis(value opt.Maybe[int], defaultValue int) time.Duration {
	return time.Duration(value.OrElse(defaultValue)) * time.Millisecond
}

// Validate reports fixture settings that would make the scenarios meaningless, such as a
// missing id that is also listed as existing.
func (f Fixture) Validate() error {
	var problems []string
	if len(f.ExistingBeerIDs) == 0 {
		problems = append(problems, "existingBeerIds must not be empty")
	}
	if helpers.SliceContains(f.MissingBeerID, f.ExistingBeerIDs) {
		problems = append(problems, fmt.Sprintf("missingBeerId %d is also listed in existingBeerIds", f.MissingBeerID))
	}
	if f.KnownUPC == "" || f.MissingUPC == "" {
		problems = append(problems, "knownUpc and missingUpc are required")
	} else if f.KnownUPC == f.MissingUPC {
		problems = append(problems, "knownUpc and missingUpc must differ")
	}
	if err := f.NewBeer.ValidateForCreate(); err != nil {
		problems = append(problems, fmt.Sprintf("newBeer: %s", err))
	}
	if f.InvalidBeer.BeerName != "" {
		problems = append(problems, "invalidBeer must not have a beerName")
	}
	if f.UpdatedBeer.BeerName == "" {
		problems = append(problems, "updatedBeer must have a beerName")
	}
	if f.DeleteBeerID == f.DeleteTwiceBeerID {
		problems = append(problems, "deleteBeerId and deleteTwiceBeerId must differ")
	}
	for _, t := range []struct {
		name  string
		value opt.Maybe[int]
	}{
		{"singleRoundTrip", f.Timeouts.SingleRoundTripMillis},
		{"create", f.Timeouts.CreateMillis},
		{"updateFirstPhase", f.Timeouts.UpdateFirstPhaseMillis},
		{"chained", f.Timeouts.ChainedMillis},
	} {
		if t.value.IsDefined() && t.value.Value() <= 0 {
			problems = append(problems, fmt.Sprintf("timeouts.%s must be positive", t.name))
		}
	}
	if len(problems) != 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// LoadFixture reads a fixture from a JSON or YAML file, or the embedded default fixture if path
// is empty.
func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	if err := loadFile(path, defaultFixtureFile, &f); err != nil {
		return f, err
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("invalid fixture: %w", err)
	}
	return f, nil
}

// LoadSeedBeers reads the beers a mock Beer API starts out with, from a JSON or YAML file, or
// from the embedded default list if path is empty.
func LoadSeedBeers(path string) ([]servicedef.Beer, error) {
	var beers []servicedef.Beer
	if err := loadFile(path, defaultSeedDataFile, &beers); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(beers))
	for i, b := range beers {
		if b.ID == nil {
			return nil, fmt.Errorf("seed beer %d (%q) has no id", i, b.BeerName)
		}
		if seen[*b.ID] {
			return nil, fmt.Errorf("seed beer id %d is used more than once", *b.ID)
		}
		seen[*b.ID] = true
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("seed beer %d: %w", *b.ID, err)
		}
	}
	return beers, nil
}

func loadFile(path, embeddedName string, target interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "" {
		path = dataBasePath + "/" + embeddedName
		data, err = dataFilesRoot.ReadFile(path)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec
	}
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	if err := ParseJSONOrYAML(data, target); err != nil {
		return fmt.Errorf("error parsing %q: %w", path, err)
	}
	return nil
}
