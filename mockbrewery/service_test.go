package mockbrewery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

func newSeededService(t *testing.T) (*BreweryService, BeerStore) {
	store, err := OpenStore(context.Background(), StoreConfig{Kind: MemoryStore})
	require.NoError(t, err)
	require.NoError(t, Seed(context.Background(), store, []servicedef.Beer{
		makeBeer("Mango Bobs", "0631234200036").WithID(1),
		makeBeer("Galaxy Cat", "0631234300019").WithID(2),
	}))
	return NewBreweryService(store, nil), store
}

func doRequest(t *testing.T, s *BreweryService, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetBeerByID(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "GET", servicedef.BeerPath(2), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var beer servicedef.Beer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &beer))
	assert.Equal(t, "Galaxy Cat", beer.BeerName)
	assert.Equal(t, 2, beer.IDValue())
}

func TestGetBeerPriceIsJSONNumber(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "GET", servicedef.BeerPath(1), "")
	require.Equal(t, http.StatusOK, w.Code)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, 12.95, raw["price"])
}

func TestGetBeerByIDNotFound(t *testing.T) {
	s, _ := newSeededService(t)

	for _, path := range []string{servicedef.BeerPath(1333), servicedef.BeerV2Path + "/abc"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(t, s, "GET", path, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, http.StatusNotFound, errorBody(t, w).Status)
		})
	}
}

func TestGetBeerByUPC(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "GET", servicedef.BeerUPCPath("0631234300019"), "")
	assert.Equal(t, http.StatusOK, w.Code)
	var beer servicedef.Beer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &beer))
	assert.Equal(t, "0631234300019", beer.UPC)

	w = doRequest(t, s, "GET", servicedef.BeerUPCPath("44444466677766"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBeer(t *testing.T) {
	s, store := newSeededService(t)

	w := doRequest(t, s, "POST", servicedef.BeerV2Path,
		`{"beerName":"JTs Beer","beerStyle":"PALE_ALE","upc":"1233455","price":8.99}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, servicedef.BeerPath(3), w.Header().Get("Location"))
	assert.Len(t, w.Body.Bytes(), 0)

	created, err := store.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "JTs Beer", created.BeerName)
	assert.Equal(t, "8.99", created.Price.String())
}

func TestCreateBeerBadRequest(t *testing.T) {
	s, _ := newSeededService(t)

	for _, p := range []struct {
		desc, body string
	}{
		{"missing name", `{"price":8.99}`},
		{"unknown style", `{"beerName":"a","beerStyle":"CIDER","upc":"1","price":1}`},
		{"id supplied", `{"id":7,"beerName":"a","beerStyle":"ALE","upc":"1","price":1}`},
		{"malformed JSON", `{"beerName":`},
	} {
		t.Run(p.desc, func(t *testing.T) {
			w := doRequest(t, s, "POST", servicedef.BeerV2Path, p.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, http.StatusBadRequest, errorBody(t, w).Status)
		})
	}
}

func TestCreateBeerReportsInvalidFields(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "POST", servicedef.BeerV2Path, `{"price":8.99}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{
		"beerName must not be blank",
		`beerStyle "" is not a known style`,
		"upc must not be blank",
	}, errorBody(t, w).Fields)
}

func TestCreateBeerDuplicateUPC(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "POST", servicedef.BeerV2Path,
		`{"beerName":"copy","beerStyle":"ALE","upc":"0631234200036","price":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateBeer(t *testing.T) {
	s, store := newSeededService(t)

	w := doRequest(t, s, "PUT", servicedef.BeerPath(1),
		`{"beerName":"JTs beer","beerStyle":"PALE_ALE","upc":"1233455222","price":8.99}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, w.Body.Bytes(), 0)

	updated, err := store.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "JTs beer", updated.BeerName)
	assert.Equal(t, "1233455222", updated.UPC)
}

func TestUpdateBeerErrors(t *testing.T) {
	s, _ := newSeededService(t)
	valid := `{"beerName":"x","beerStyle":"ALE","upc":"999","price":1}`

	assert.Equal(t, http.StatusNotFound, doRequest(t, s, "PUT", servicedef.BeerPath(999), valid).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "PUT", servicedef.BeerPath(1), `{"price":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "PUT", servicedef.BeerPath(1),
		`{"id":2,"beerName":"x","beerStyle":"ALE","upc":"999","price":1}`).Code)
	assert.Equal(t, http.StatusConflict, doRequest(t, s, "PUT", servicedef.BeerPath(1),
		`{"beerName":"x","beerStyle":"ALE","upc":"0631234300019","price":1}`).Code)
}

func TestDeleteBeer(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "DELETE", servicedef.BeerPath(2), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(t, s, "GET", servicedef.BeerPath(2), "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, s, "DELETE", servicedef.BeerPath(2), "").Code)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newSeededService(t)

	w := doRequest(t, s, "GET", "/api/v1/beer/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingBackend struct {
	*memoryBackend
}

func (failingBackend) load(context.Context, int) (servicedef.Beer, bool, error) {
	return servicedef.Beer{}, false, assert.AnError
}

func TestStoreFailureIsServerError(t *testing.T) {
	s := NewBreweryService(newBeerStore(failingBackend{newMemoryBackend()}), nil)

	w := doRequest(t, s, "GET", servicedef.BeerPath(1), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
