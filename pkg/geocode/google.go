package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-analyzer/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// Google looks up postal codes with the Google Geocoding API using component
// filtering. It is only available when an API key is configured.
type Google struct {
	httpProvider
}

// NewGoogle creates a Google provider. Pass WithAPIKey to enable it.
func NewGoogle(opts ...ProviderOption) *Google {
	return &Google{httpProvider: newHTTPProvider("google", googleGeocodeURL, opts)}
}

// Available implements Provider.
func (g *Google) Available() bool { return g.apiKey != "" }

// Lookup implements Provider.
func (g *Google) Lookup(ctx context.Context, zip ZipCode) (*Result, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	params := url.Values{
		"components": {"postal_code:" + string(zip) + "|country:" + g.country},
		"key":        {g.apiKey},
	}

	body, err := g.get(ctx, g.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if body == nil {
		return g.unmatched(), nil
	}

	var resp googleGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return g.unmatched(), nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: google returned status %s", resp.Status), http.StatusOK)
	default:
		return nil, eris.Errorf("geocode: google returned status %s", resp.Status)
	}
	if len(resp.Results) == 0 {
		return g.unmatched(), nil
	}

	loc := resp.Results[0].Geometry.Location
	return g.resolved(
		strconv.FormatFloat(loc.Lat, 'f', -1, 64),
		strconv.FormatFloat(loc.Lng, 'f', -1, 64),
	)
}
