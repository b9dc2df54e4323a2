package geocode

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"
)

const nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

// nominatimPlace is one element of the Nominatim search response array.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim looks up postal codes with the OpenStreetMap Nominatim search API.
type Nominatim struct {
	httpProvider
}

// NewNominatim creates the default provider.
func NewNominatim(opts ...ProviderOption) *Nominatim {
	return &Nominatim{httpProvider: newHTTPProvider("nominatim", nominatimSearchURL, opts)}
}

// Available implements Provider.
func (n *Nominatim) Available() bool { return true }

// Lookup implements Provider. Only the first match is considered.
func (n *Nominatim) Lookup(ctx context.Context, zip ZipCode) (*Result, error) {
	params := url.Values{
		"postalcode": {string(zip)},
		"country":    {n.country},
		"format":     {"json"},
		"limit":      {"1"},
	}

	body, err := n.get(ctx, n.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if body == nil {
		return n.unmatched(), nil
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return n.unmatched(), nil
	}

	return n.resolved(places[0].Lat, places[0].Lon)
}
