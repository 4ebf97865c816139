package mockbrewery

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

const defaultRedisURL = "redis://localhost:6379"

// redisBackend keeps two hashes: "<prefix>:beers" maps ids to beer JSON, and "<prefix>:upcs"
// maps UPCs to ids.
type redisBackend struct {
	redis    *redis.Client
	beersKey string
	upcsKey  string
}

func openRedisBackend(ctx context.Context, url, prefix string) (*redisBackend, error) {
	if url == "" {
		url = defaultRedisURL
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(options)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &redisBackend{
		redis:    rdb,
		beersKey: prefix + ":beers",
		upcsKey:  prefix + ":upcs",
	}, nil
}

func (r *redisBackend) load(ctx context.Context, id int) (servicedef.Beer, bool, error) {
	var beer servicedef.Beer
	data, err := r.redis.HGet(ctx, r.beersKey, strconv.Itoa(id)).Result()
	if errors.Is(err, redis.Nil) {
		return beer, false, nil
	}
	if err != nil {
		return beer, false, err
	}
	return beer, true, json.Unmarshal([]byte(data), &beer)
}

func (r *redisBackend) findUPC(ctx context.Context, upc string) (int, bool, error) {
	value, err := r.redis.HGet(ctx, r.upcsKey, upc).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(value)
	return id, err == nil, err
}

func (r *redisBackend) save(ctx context.Context, beer servicedef.Beer, previousUPC string) error {
	data, err := json.Marshal(beer)
	if err != nil {
		return err
	}
	id := strconv.Itoa(beer.IDValue())
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previousUPC != "" && previousUPC != beer.UPC {
			pipe.HDel(ctx, r.upcsKey, previousUPC)
		}
		pipe.HSet(ctx, r.beersKey, id, string(data))
		pipe.HSet(ctx, r.upcsKey, beer.UPC, id)
		return nil
	})
	return err
}

func (r *redisBackend) remove(ctx context.Context, beer servicedef.Beer) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.beersKey, strconv.Itoa(beer.IDValue()))
		pipe.HDel(ctx, r.upcsKey, beer.UPC)
		return nil
	})
	return err
}

func (r *redisBackend) maxID(ctx context.Context) (int, error) {
	keys, err := r.redis.HKeys(ctx, r.beersKey).Result()
	if err != nil {
		return 0, err
	}
	return highestNumericKey(keys), nil
}

// reset removes everything this backend has written. Tests use it to start from an empty store.
func (r *redisBackend) reset(ctx context.Context) error {
	return r.redis.Del(ctx, r.beersKey, r.upcsKey).Err()
}

func (r *redisBackend) close() error {
	return r.redis.Close()
}

// highestNumericKey returns the largest key that parses as an integer, or 0.
func highestNumericKey(keys []string) int {
	highest := 0
	for _, k := range keys {
		if id, err := strconv.Atoi(k); err == nil && id > highest {
			highest = id
		}
	}
	return highest
}
