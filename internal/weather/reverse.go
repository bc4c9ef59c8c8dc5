package weather

import (
	"fmt"

	"github.com/kelvins/geocoder"
)

// Place is a named location resolved from raw coordinates, used by the
// geolocation flow to label "my position".
type Place struct {
	Name    string  `json:"name"`
	Region  string  `json:"region,omitempty"`
	Country string  `json:"country"`
	Full    string  `json:"full,omitempty"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
}

// ReverseGeocoder resolves coordinates to a place name through the Google
// geocoding API. Without an API key it degrades to "no result" instead of
// erroring, like the forward geocoding path.
type ReverseGeocoder struct {
	apiKey string
}

func NewReverseGeocoder(apiKey string) *ReverseGeocoder {
	return &ReverseGeocoder{apiKey: apiKey}
}

// Enabled reports whether an API key is configured.
func (g *ReverseGeocoder) Enabled() bool {
	return g.apiKey != ""
}

// Lookup resolves lat/lon to the nearest named place. The second return
// value is false when no key is configured or nothing matched.
func (g *ReverseGeocoder) Lookup(lat, lon float64) (Place, bool) {
	if g.apiKey == "" {
		return Place{}, false
	}

	geocoder.ApiKey = g.apiKey
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil || len(addresses) == 0 {
		return Place{}, false
	}

	addr := addresses[0]
	name := addr.City
	if name == "" {
		name = addr.County
	}
	if name == "" {
		return Place{}, false
	}

	return Place{
		Name:    name,
		Region:  addr.State,
		Country: addr.Country,
		Full:    addr.FormattedAddress,
		Lat:     lat,
		Lon:     lon,
	}, true
}

// String implements fmt.Stringer for log lines.
func (p Place) String() string {
	if p.Country == "" {
		return p.Name
	}
	return fmt.Sprintf("%s, %s", p.Name, p.Country)
}
