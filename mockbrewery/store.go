package mockbrewery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

var (
	// ErrNotFound is returned when no beer has the requested id or UPC.
	ErrNotFound = errors.New("beer not found")

	// ErrDuplicateUPC is returned when a create or update would give two beers the same UPC.
	ErrDuplicateUPC = errors.New("another beer already has this UPC")

	// ErrDuplicateID is returned when a beer is created with a preset id that is already in use.
	ErrDuplicateID = errors.New("another beer already has this id")
)

// BeerStore is the persistence layer behind BreweryService.
type BeerStore interface {
	GetByID(ctx context.Context, id int) (servicedef.Beer, error)
	GetByUPC(ctx context.Context, upc string) (servicedef.Beer, error)
	// Create stores a new beer and returns it with its id and timestamps. If beer.ID is nil, the
	// next free id is assigned.
	Create(ctx context.Context, beer servicedef.Beer) (servicedef.Beer, error)
	// Update replaces the editable fields of an existing beer, keeping its id and creation date.
	Update(ctx context.Context, id int, beer servicedef.Beer) (servicedef.Beer, error)
	Delete(ctx context.Context, id int) error
	// Restore writes a beer under its preset id, replacing whatever is stored under that id. The
	// creation date is reset. It fails with ErrDuplicateUPC if a beer with another id has the UPC.
	Restore(ctx context.Context, beer servicedef.Beer) (servicedef.Beer, error)
	Close() error
}

// recordBackend is the storage primitive each store kind provides. It has no rules of its own;
// beerStore enforces uniqueness and serializes writes.
type recordBackend interface {
	load(ctx context.Context, id int) (servicedef.Beer, bool, error)
	findUPC(ctx context.Context, upc string) (int, bool, error)
	// save writes the beer under its id and indexes it by its UPC. If previousUPC is not empty
	// and differs from the beer's UPC, that index entry is removed.
	save(ctx context.Context, beer servicedef.Beer, previousUPC string) error
	remove(ctx context.Context, beer servicedef.Beer) error
	maxID(ctx context.Context) (int, error)
	close() error
}

type beerStore struct {
	backend recordBackend
	now     func() time.Time
	lock    sync.Mutex
}

func newBeerStore(backend recordBackend) *beerStore {
	return &beerStore{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *beerStore) GetByID(ctx context.Context, id int) (servicedef.Beer, error) {
	beer, found, err := s.backend.load(ctx, id)
	if err != nil {
		return servicedef.Beer{}, err
	}
	if !found {
		return servicedef.Beer{}, ErrNotFound
	}
	return beer, nil
}

func (s *beerStore) GetByUPC(ctx context.Context, upc string) (servicedef.Beer, error) {
	id, found, err := s.backend.findUPC(ctx, upc)
	if err != nil {
		return servicedef.Beer{}, err
	}
	if !found {
		return servicedef.Beer{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *beerStore) Create(ctx context.Context, beer servicedef.Beer) (servicedef.Beer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if beer.ID != nil {
		if _, exists, err := s.backend.load(ctx, *beer.ID); err != nil {
			return servicedef.Beer{}, err
		} else if exists {
			return servicedef.Beer{}, ErrDuplicateID
		}
	}
	if _, taken, err := s.backend.findUPC(ctx, beer.UPC); err != nil {
		return servicedef.Beer{}, err
	} else if taken {
		return servicedef.Beer{}, ErrDuplicateUPC
	}
	if beer.ID == nil {
		maxID, err := s.backend.maxID(ctx)
		if err != nil {
			return servicedef.Beer{}, err
		}
		beer = beer.WithID(maxID + 1)
	}

	now := s.now()
	beer.CreatedDate, beer.LastModifiedDate = &now, &now
	if err := s.backend.save(ctx, beer, ""); err != nil {
		return servicedef.Beer{}, err
	}
	return beer, nil
}

func (s *beerStore) Update(ctx context.Context, id int, beer servicedef.Beer) (servicedef.Beer, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	existing, found, err := s.backend.load(ctx, id)
	if err != nil {
		return servicedef.Beer{}, err
	}
	if !found {
		return servicedef.Beer{}, ErrNotFound
	}
	if owner, taken, err := s.backend.findUPC(ctx, beer.UPC); err != nil {
		return servicedef.Beer{}, err
	} else if taken && owner != id {
		return servicedef.Beer{}, ErrDuplicateUPC
	}

	previousUPC := existing.UPC
	now := s.now()
	existing.BeerName = beer.BeerName
	existing.BeerStyle = beer.BeerStyle
	existing.UPC = beer.UPC
	existing.Price = beer.Price
	if beer.QuantityOnHand != nil {
		existing.QuantityOnHand = beer.QuantityOnHand
	}
	existing.LastModifiedDate = &now
	if err := s.backend.save(ctx, existing, previousUPC); err != nil {
		return servicedef.Beer{}, err
	}
	return existing, nil
}

func (s *beerStore) Delete(ctx context.Context, id int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	existing, found, err := s.backend.load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return s.backend.remove(ctx, existing)
}

func (s *beerStore) Restore(ctx context.Context, beer servicedef.Beer) (servicedef.Beer, error) {
	if beer.ID == nil {
		return servicedef.Beer{}, errors.New("cannot restore a beer without an id")
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	id := *beer.ID
	existing, found, err := s.backend.load(ctx, id)
	if err != nil {
		return servicedef.Beer{}, err
	}
	if owner, taken, err := s.backend.findUPC(ctx, beer.UPC); err != nil {
		return servicedef.Beer{}, err
	} else if taken && owner != id {
		return servicedef.Beer{}, ErrDuplicateUPC
	}

	previousUPC := ""
	if found {
		previousUPC = existing.UPC
	}
	now := s.now()
	beer.CreatedDate, beer.LastModifiedDate = &now, &now
	if err := s.backend.save(ctx, beer, previousUPC); err != nil {
		return servicedef.Beer{}, err
	}
	return beer, nil
}

func (s *beerStore) Close() error {
	return s.backend.close()
}

// StoreKind selects a BeerStore implementation.
type StoreKind string

const (
	MemoryStore   StoreKind = "memory"
	BoltStore     StoreKind = "bolt"
	SQLiteStore   StoreKind = "sqlite"
	RedisStore    StoreKind = "redis"
	DynamoDBStore StoreKind = "dynamodb"
	ConsulStore   StoreKind = "consul"
)

// AllStoreKinds returns every supported kind.
func AllStoreKinds() []StoreKind {
	return []StoreKind{MemoryStore, BoltStore, SQLiteStore, RedisStore, DynamoDBStore, ConsulStore}
}

const defaultPrefix = "sfg-beers"

// StoreConfig describes how to open a BeerStore.
//
// The meaning of DSN depends on the kind: a file path for bolt and sqlite, a redis:// URL for
// redis, an endpoint URL for dynamodb, and an agent address for consul. The memory store ignores
// it. Prefix namespaces the keys in the shared stores (redis, consul) and names the DynamoDB
// table.
type StoreConfig struct {
	Kind   StoreKind
	DSN    string
	Prefix string
}

func (c StoreConfig) prefix() string {
	if c.Prefix == "" {
		return defaultPrefix
	}
	return c.Prefix
}

// ParseStoreKind validates a store kind name, as given on the command line.
func ParseStoreKind(name string) (StoreKind, error) {
	if name == "" {
		return MemoryStore, nil
	}
	for _, k := range AllStoreKinds() {
		if strings.EqualFold(name, string(k)) {
			return k, nil
		}
	}
	kinds := make([]string, 0, len(AllStoreKinds()))
	for _, k := range AllStoreKinds() {
		kinds = append(kinds, string(k))
	}
	return "", fmt.Errorf("unknown store kind %q (expected one of: %s)", name, strings.Join(kinds, ", "))
}

// OpenStore creates the BeerStore that config describes.
func OpenStore(ctx context.Context, config StoreConfig) (BeerStore, error) {
	var (
		backend recordBackend
		err     error
	)
	switch config.Kind {
	case MemoryStore, "":
		backend = newMemoryBackend()
	case BoltStore:
		backend, err = openBoltBackend(config.DSN)
	case SQLiteStore:
		backend, err = openSQLiteBackend(config.DSN)
	case RedisStore:
		backend, err = openRedisBackend(ctx, config.DSN, config.prefix())
	case DynamoDBStore:
		backend, err = openDynamoDBBackend(ctx, config.DSN, config.prefix())
	case ConsulStore:
		backend, err = openConsulBackend(ctx, config.DSN, config.prefix())
	default:
		return nil, fmt.Errorf("unknown store kind %q", config.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", config.Kind, err)
	}
	return newBeerStore(backend), nil
}

// Seed restores each of the given beers under its id. Seeding a store that was seeded before
// puts the seed beers back as they were, so a persistent store can be reused across runs; beers
// with other ids are left alone.
func Seed(ctx context.Context, store BeerStore, beers []servicedef.Beer) error {
	for _, b := range beers {
		if b.ID == nil {
			return fmt.Errorf("seed beer %q has no id", b.BeerName)
		}
		if _, err := store.Restore(ctx, b); err != nil {
			return fmt.Errorf("failed to seed beer %d: %w", *b.ID, err)
		}
	}
	return nil
}

func requireDSN(kind StoreKind, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("the %s store requires a DSN", kind)
	}
	return nil
}
