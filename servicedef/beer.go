package servicedef

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BeerStyle is the enumerated style token of a beer.
type BeerStyle string

const (
	BeerStyleLager   BeerStyle = "LAGER"
	BeerStylePilsner BeerStyle = "PILSNER"
	BeerStyleStout   BeerStyle = "STOUT"
	BeerStyleGose    BeerStyle = "GOSE"
	BeerStylePorter  BeerStyle = "PORTER"
	BeerStyleAle     BeerStyle = "ALE"
	BeerStyleWheat   BeerStyle = "WHEAT"
	BeerStyleIPA     BeerStyle = "IPA"
	BeerStylePaleAle BeerStyle = "PALE_ALE"
	BeerStyleSaison  BeerStyle = "SAISON"
)

// AllBeerStyles returns every style the API accepts.
func AllBeerStyles() []BeerStyle {
	return []BeerStyle{
		BeerStyleLager, BeerStylePilsner, BeerStyleStout, BeerStyleGose, BeerStylePorter,
		BeerStyleAle, BeerStyleWheat, BeerStyleIPA, BeerStylePaleAle, BeerStyleSaison,
	}
}

// IsValid returns true if s is one of AllBeerStyles.
func (s BeerStyle) IsValid() bool {
	for _, known := range AllBeerStyles() {
		if s == known {
			return true
		}
	}
	return false
}

// Price is a decimal amount that is written to JSON as a number, never as a string. It reads
// either form.
type Price struct {
	decimal.Decimal
}

// NewPrice parses a decimal string such as "8.99". It panics on malformed input, so it is only
// for literals.
func NewPrice(s string) Price {
	return Price{decimal.RequireFromString(s)}
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	return p.Decimal.UnmarshalJSON(data)
}

// Beer is the record exchanged with the Beer API.
//
// ID is assigned by the service; a client never sends it on create. Price is a pointer so that a
// payload without a price can be told apart from a price of zero.
type Beer struct {
	ID               *int       `json:"id,omitempty"`
	BeerName         string     `json:"beerName,omitempty"`
	BeerStyle        BeerStyle  `json:"beerStyle,omitempty"`
	UPC              string     `json:"upc,omitempty"`
	Price            *Price     `json:"price,omitempty"`
	QuantityOnHand   *int       `json:"quantityOnHand,omitempty"`
	CreatedDate      *time.Time `json:"createdDate,omitempty"`
	LastModifiedDate *time.Time `json:"lastModifiedDate,omitempty"`
}

// IDValue returns the id, or 0 if it is not set.
func (b Beer) IDValue() int {
	if b.ID == nil {
		return 0
	}
	return *b.ID
}

// WithID returns a copy with the id set.
func (b Beer) WithID(id int) Beer {
	b.ID = &id
	return b
}

// ValidationError lists the fields of a Beer that failed validation.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid beer: %s", strings.Join(e.Fields, ", "))
}

// ErrIDNotAllowed is returned by ValidateForCreate when the payload carries an id.
var ErrIDNotAllowed = errors.New("id is assigned by the service and must not be sent")

// Validate checks the fields that every stored beer must have: a non-blank name, a known
// style, a UPC, and a positive price.
func (b Beer) Validate() error {
	var fields []string
	if strings.TrimSpace(b.BeerName) == "" {
		fields = append(fields, "beerName must not be blank")
	}
	if !b.BeerStyle.IsValid() {
		fields = append(fields, fmt.Sprintf("beerStyle %q is not a known style", b.BeerStyle))
	}
	if strings.TrimSpace(b.UPC) == "" {
		fields = append(fields, "upc must not be blank")
	}
	if b.Price == nil {
		fields = append(fields, "price is required")
	} else if !b.Price.IsPositive() {
		fields = append(fields, "price must be positive")
	}
	if len(fields) != 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}

// ValidateForCreate is Validate plus the rule that the client does not choose the id.
func (b Beer) ValidateForCreate() error {
	if b.ID != nil {
		return ErrIDNotAllowed
	}
	return b.Validate()
}
