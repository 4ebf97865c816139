package servicedef

import (
	"net/url"
	"strconv"
)

const (
	// BeerV2Path is the collection resource. POST creates a beer here.
	BeerV2Path = "/api/v2/beer"

	// BeerV2UPCPath is the prefix for lookups by UPC.
	BeerV2UPCPath = BeerV2Path + "/upc"
)

// BeerPath returns the resource path of the beer with the given id.
func BeerPath(id int) string {
	return BeerV2Path + "/" + strconv.Itoa(id)
}

// BeerUPCPath returns the lookup path for the given UPC.
func BeerUPCPath(upc string) string {
	return BeerV2UPCPath + "/" + url.PathEscape(upc)
}
