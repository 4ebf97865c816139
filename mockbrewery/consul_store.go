package mockbrewery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

// consulBackend keeps beer JSON under "<prefix>/beers/<id>" and the UPC index under
// "<prefix>/upcs/<upc>". Writes that touch both go in one KV transaction.
type consulBackend struct {
	kv     *consul.KV
	prefix string
}

func openConsulBackend(ctx context.Context, address, prefix string) (*consulBackend, error) {
	config := consul.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	if _, err := client.Status().LeaderWithQueryOptions(queryOptions(ctx)); err != nil {
		return nil, err
	}
	return &consulBackend{kv: client.KV(), prefix: prefix}, nil
}

func (c *consulBackend) beerKey(id int) string {
	return c.prefix + "/beers/" + strconv.Itoa(id)
}

func (c *consulBackend) upcKey(upc string) string {
	return c.prefix + "/upcs/" + upc
}

func (c *consulBackend) load(ctx context.Context, id int) (servicedef.Beer, bool, error) {
	var beer servicedef.Beer
	pair, _, err := c.kv.Get(c.beerKey(id), queryOptions(ctx))
	if err != nil || pair == nil {
		return beer, false, err
	}
	return beer, true, json.Unmarshal(pair.Value, &beer)
}

func (c *consulBackend) findUPC(ctx context.Context, upc string) (int, bool, error) {
	pair, _, err := c.kv.Get(c.upcKey(upc), queryOptions(ctx))
	if err != nil || pair == nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(string(pair.Value))
	return id, err == nil, err
}

func (c *consulBackend) save(ctx context.Context, beer servicedef.Beer, previousUPC string) error {
	data, err := json.Marshal(beer)
	if err != nil {
		return err
	}
	ops := consul.KVTxnOps{
		{Verb: consul.KVSet, Key: c.beerKey(beer.IDValue()), Value: data},
		{Verb: consul.KVSet, Key: c.upcKey(beer.UPC), Value: []byte(strconv.Itoa(beer.IDValue()))},
	}
	if previousUPC != "" && previousUPC != beer.UPC {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVDelete, Key: c.upcKey(previousUPC)})
	}
	return c.txn(ctx, ops)
}

func (c *consulBackend) remove(ctx context.Context, beer servicedef.Beer) error {
	return c.txn(ctx, consul.KVTxnOps{
		{Verb: consul.KVDelete, Key: c.beerKey(beer.IDValue())},
		{Verb: consul.KVDelete, Key: c.upcKey(beer.UPC)},
	})
}

func (c *consulBackend) txn(ctx context.Context, ops consul.KVTxnOps) error {
	ok, resp, _, err := c.kv.Txn(ops, queryOptions(ctx))
	if err != nil {
		return err
	}
	if !ok {
		errs := make([]string, 0, len(resp.Errors))
		for _, te := range resp.Errors {
			errs = append(errs, te.What)
		}
		return fmt.Errorf("consul transaction failed: %s", strings.Join(errs, ", "))
	}
	return nil
}

func (c *consulBackend) maxID(ctx context.Context) (int, error) {
	keyPrefix := c.prefix + "/beers/"
	keys, _, err := c.kv.Keys(keyPrefix, "", queryOptions(ctx))
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, keyPrefix)
	}
	return highestNumericKey(keys), nil
}

// reset removes everything this backend has written. Tests use it to start from an empty store.
func (c *consulBackend) reset(ctx context.Context) error {
	_, err := c.kv.DeleteTree(c.prefix+"/", (&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *consulBackend) close() error { return nil }

func queryOptions(ctx context.Context) *consul.QueryOptions {
	return (&consul.QueryOptions{}).WithContext(ctx)
}
