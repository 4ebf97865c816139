package mockbrewery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sfgbrewery/beer-contract-tests/framework"
	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

// BreweryService implements the Beer API's v2 endpoints on top of a BeerStore.
type BreweryService struct {
	store       BeerStore
	handler     http.Handler
	debugLogger framework.Logger
}

// ErrorResponse is the JSON body of every 4xx or 5xx response.
type ErrorResponse struct {
	Status int      `json:"status"`
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func NewBreweryService(store BeerStore, debugLogger framework.Logger) *BreweryService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	s := &BreweryService{
		store:       store,
		debugLogger: debugLogger,
	}

	router := mux.NewRouter()
	router.HandleFunc(servicedef.BeerV2UPCPath+"/{upc}", s.getBeerByUPC).Methods("GET")
	router.HandleFunc(servicedef.BeerV2Path+"/{beerId}", s.getBeerByID).Methods("GET")
	router.HandleFunc(servicedef.BeerV2Path, s.createBeer).Methods("POST")
	router.HandleFunc(servicedef.BeerV2Path+"/{beerId}", s.updateBeer).Methods("PUT")
	router.HandleFunc(servicedef.BeerV2Path+"/{beerId}", s.deleteBeer).Methods("DELETE")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such resource", nil)
	})
	s.handler = router

	return s
}

func (s *BreweryService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *BreweryService) getBeerByID(w http.ResponseWriter, r *http.Request) {
	id, ok := beerIDParam(w, r)
	if !ok {
		return
	}
	beer, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beer)
}

func (s *BreweryService) getBeerByUPC(w http.ResponseWriter, r *http.Request) {
	beer, err := s.store.GetByUPC(r.Context(), mux.Vars(r)["upc"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beer)
}

func (s *BreweryService) createBeer(w http.ResponseWriter, r *http.Request) {
	beer, ok := readBeer(w, r)
	if !ok {
		return
	}
	if err := beer.ValidateForCreate(); err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := s.store.Create(r.Context(), beer)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.debugLogger.Printf("Created beer %d (%s)", created.IDValue(), created.BeerName)
	w.Header().Set("Location", servicedef.BeerPath(created.IDValue()))
	w.WriteHeader(http.StatusCreated)
}

func (s *BreweryService) updateBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := beerIDParam(w, r)
	if !ok {
		return
	}
	beer, ok := readBeer(w, r)
	if !ok {
		return
	}
	if beer.ID != nil && *beer.ID != id {
		writeError(w, http.StatusBadRequest, "id in body does not match id in path", nil)
		return
	}
	if err := beer.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if _, err := s.store.Update(r.Context(), id, beer); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.debugLogger.Printf("Updated beer %d", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *BreweryService) deleteBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := beerIDParam(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.debugLogger.Printf("Deleted beer %d", id)
	w.WriteHeader(http.StatusNoContent)
}

// beerIDParam treats an id that is not a number as an unknown beer.
func beerIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["beerId"])
	if err != nil {
		writeError(w, http.StatusNotFound, ErrNotFound.Error(), nil)
		return 0, false
	}
	return id, true
}

func readBeer(w http.ResponseWriter, r *http.Request) (servicedef.Beer, bool) {
	var beer servicedef.Beer
	if err := json.NewDecoder(r.Body).Decode(&beer); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error(), nil)
		return beer, false
	}
	return beer, true
}

func (s *BreweryService) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrDuplicateUPC), errors.Is(err, ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		s.debugLogger.Printf("Store error: %s", err)
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve servicedef.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error(), ve.Fields)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), nil)
}

func writeError(w http.ResponseWriter, status int, message string, fields []string) {
	writeJSON(w, status, ErrorResponse{Status: status, Error: message, Fields: fields})
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
