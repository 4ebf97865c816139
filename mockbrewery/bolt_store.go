package mockbrewery

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

var (
	boltBeersBucket = []byte("beers")
	boltUPCsBucket  = []byte("upcs")
)

// boltBackend keeps each beer as JSON under its big-endian id, so the last key of the beers
// bucket is always the highest id.
type boltBackend struct {
	db *bolt.DB
}

func openBoltBackend(path string) (*boltBackend, error) {
	if err := requireDSN(BoltStore, path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{boltBeersBucket, boltUPCsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltBackend{db: db}, nil
}

func boltKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func (b *boltBackend) load(_ context.Context, id int) (servicedef.Beer, bool, error) {
	var (
		beer  servicedef.Beer
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBeersBucket).Get(boltKey(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &beer)
	})
	return beer, found, err
}

func (b *boltBackend) findUPC(_ context.Context, upc string) (int, bool, error) {
	var (
		id    int
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltUPCsBucket).Get([]byte(upc))
		if v != nil {
			id, found = int(binary.BigEndian.Uint64(v)), true
		}
		return nil
	})
	return id, found, err
}

func (b *boltBackend) save(_ context.Context, beer servicedef.Beer, previousUPC string) error {
	data, err := json.Marshal(beer)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		upcs := tx.Bucket(boltUPCsBucket)
		if previousUPC != "" && previousUPC != beer.UPC {
			if err := upcs.Delete([]byte(previousUPC)); err != nil {
				return err
			}
		}
		key := boltKey(beer.IDValue())
		if err := tx.Bucket(boltBeersBucket).Put(key, data); err != nil {
			return err
		}
		return upcs.Put([]byte(beer.UPC), key)
	})
}

func (b *boltBackend) remove(_ context.Context, beer servicedef.Beer) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(boltBeersBucket).Delete(boltKey(beer.IDValue())); err != nil {
			return err
		}
		return tx.Bucket(boltUPCsBucket).Delete([]byte(beer.UPC))
	})
}

func (b *boltBackend) maxID(context.Context) (int, error) {
	id := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		if k, _ := tx.Bucket(boltBeersBucket).Cursor().Last(); k != nil {
			id = int(binary.BigEndian.Uint64(k))
		}
		return nil
	})
	return id, err
}

func (b *boltBackend) close() error {
	return b.db.Close()
}
