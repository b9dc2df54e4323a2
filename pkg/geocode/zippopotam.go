package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const zippopotamURL = "https://api.zippopotam.us"

type zippopotamResponse struct {
	PostCode string            `json:"post code"`
	Places   []zippopotamPlace `json:"places"`
}

type zippopotamPlace struct {
	Name      string `json:"place name"`
	State     string `json:"state"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Zippopotam looks up postal codes with the Zippopotam.us API. Unknown codes
// are answered with 404.
type Zippopotam struct {
	httpProvider
}

// NewZippopotam creates a Zippopotam.us provider.
func NewZippopotam(opts ...ProviderOption) *Zippopotam {
	return &Zippopotam{httpProvider: newHTTPProvider("zippopotam", zippopotamURL, opts)}
}

// Available implements Provider.
func (z *Zippopotam) Available() bool { return true }

// Lookup implements Provider.
func (z *Zippopotam) Lookup(ctx context.Context, zip ZipCode) (*Result, error) {
	reqURL := strings.TrimRight(z.baseURL, "/") + "/" +
		url.PathEscape(strings.ToLower(z.country)) + "/" + url.PathEscape(string(zip))

	body, err := z.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return z.unmatched(), nil
	}

	var resp zippopotamResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: zippopotam parse response")
	}
	if len(resp.Places) == 0 {
		return z.unmatched(), nil
	}

	return z.resolved(resp.Places[0].Latitude, resp.Places[0].Longitude)
}
