package mockbrewery

import (
	"context"
	"sync"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

type memoryBackend struct {
	beers map[int]servicedef.Beer
	upcs  map[string]int
	lock  sync.RWMutex
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		beers: make(map[int]servicedef.Beer),
		upcs:  make(map[string]int),
	}
}

func (m *memoryBackend) load(_ context.Context, id int) (servicedef.Beer, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	b, ok := m.beers[id]
	return b, ok, nil
}

func (m *memoryBackend) findUPC(_ context.Context, upc string) (int, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	id, ok := m.upcs[upc]
	return id, ok, nil
}

func (m *memoryBackend) save(_ context.Context, beer servicedef.Beer, previousUPC string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if previousUPC != "" && previousUPC != beer.UPC {
		delete(m.upcs, previousUPC)
	}
	m.beers[beer.IDValue()] = beer
	m.upcs[beer.UPC] = beer.IDValue()
	return nil
}

func (m *memoryBackend) remove(_ context.Context, beer servicedef.Beer) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.beers, beer.IDValue())
	delete(m.upcs, beer.UPC)
	return nil
}

func (m *memoryBackend) maxID(context.Context) (int, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	highest := 0
	for id := range m.beers {
		if id > highest {
			highest = id
		}
	}
	return highest, nil
}

func (m *memoryBackend) close() error { return nil }
