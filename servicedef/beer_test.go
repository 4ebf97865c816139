package servicedef

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/jsonhelpers"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBeer() Beer {
	price := NewPrice("8.99")
	return Beer{BeerName: "JTs Beer", BeerStyle: BeerStylePaleAle, UPC: "1233455", Price: &price}
}

func TestBeerJSONShape(t *testing.T) {
	m.In(t).Assert(jsonhelpers.ToJSON(validBeer()), m.JSONStrEqual(
		`{"beerName":"JTs Beer","beerStyle":"PALE_ALE","upc":"1233455","price":8.99}`))

	m.In(t).Assert(jsonhelpers.ToJSON(validBeer().WithID(3)), m.JSONStrEqual(
		`{"id":3,"beerName":"JTs Beer","beerStyle":"PALE_ALE","upc":"1233455","price":8.99}`))
}

func TestBeerParsesPriceAsNumberOrString(t *testing.T) {
	for _, input := range []string{
		`{"id":1,"beerName":"Mango Bobs","price":12.95}`,
		`{"id":1,"beerName":"Mango Bobs","price":"12.95"}`,
	} {
		var b Beer
		require.NoError(t, json.Unmarshal([]byte(input), &b))
		assert.Equal(t, 1, b.IDValue())
		require.NotNil(t, b.Price)
		assert.True(t, b.Price.Equal(NewPrice("12.95").Decimal))
	}

	var b Beer
	require.NoError(t, json.Unmarshal([]byte(`{"price":null}`), &b))
	assert.Nil(t, b.Price)
	assert.Equal(t, 0, b.IDValue())
}

func TestBeerValidate(t *testing.T) {
	assert.NoError(t, validBeer().Validate())
	assert.NoError(t, validBeer().ValidateForCreate())

	price := NewPrice("10.99")
	err := Beer{Price: &price}.Validate()
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{
		"beerName must not be blank",
		`beerStyle "" is not a known style`,
		"upc must not be blank",
	}, ve.Fields)

	noPrice := validBeer()
	noPrice.Price = nil
	assert.EqualError(t, noPrice.Validate(), "invalid beer: price is required")

	zero := NewPrice("0")
	zeroPrice := validBeer()
	zeroPrice.Price = &zero
	assert.EqualError(t, zeroPrice.Validate(), "invalid beer: price must be positive")

	badStyle := validBeer()
	badStyle.BeerStyle = "CIDER"
	assert.Error(t, badStyle.Validate())

	assert.Equal(t, ErrIDNotAllowed, validBeer().WithID(1).ValidateForCreate())
	assert.NoError(t, validBeer().WithID(1).Validate())
}

func TestBeerStyles(t *testing.T) {
	assert.Len(t, AllBeerStyles(), 10)
	assert.True(t, BeerStyleIPA.IsValid())
	assert.False(t, BeerStyle("ipa").IsValid())
}

func TestBeerPaths(t *testing.T) {
	assert.Equal(t, "/api/v2/beer/1333", BeerPath(1333))
	assert.Equal(t, "/api/v2/beer/upc/0631234200036", BeerUPCPath("0631234200036"))
	assert.Equal(t, "/api/v2/beer/upc/a%2Fb", BeerUPCPath("a/b"))
}
