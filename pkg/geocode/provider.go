package geocode

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/opportunity-analyzer/internal/resilience"
)

// Provider represents a single geocoding backend.
//
// Lookup returns a Result with Resolved=false when the service answered but
// had no match, and an error when the service could not be asked or its
// answer could not be understood.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, zip ZipCode) (*Result, error)
	Available() bool
}

// ProviderOption configures an HTTP-backed provider.
type ProviderOption func(*httpProvider)

// WithBaseURL overrides the provider's endpoint.
func WithBaseURL(u string) ProviderOption {
	return func(p *httpProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ProviderOption {
	return func(p *httpProvider) {
		if hc != nil {
			p.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header. Nominatim rejects requests
// without an identifying agent.
func WithUserAgent(ua string) ProviderOption {
	return func(p *httpProvider) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithCountry restricts lookups to an ISO 3166-1 alpha-2 country code.
func WithCountry(code string) ProviderOption {
	return func(p *httpProvider) {
		if code != "" {
			p.country = code
		}
	}
}

// WithAPIKey sets the key for providers that require one.
func WithAPIKey(key string) ProviderOption {
	return func(p *httpProvider) {
		p.apiKey = key
	}
}

const defaultUserAgent = "opportunity-analyzer/1.0"

// httpProvider holds what the JSON-over-HTTP providers share.
type httpProvider struct {
	name      string
	baseURL   string
	country   string
	userAgent string
	apiKey    string
	http      *http.Client
}

func newHTTPProvider(name, baseURL string, opts []ProviderOption) httpProvider {
	p := httpProvider{
		name:      name,
		baseURL:   baseURL,
		country:   "US",
		userAgent: defaultUserAgent,
		http:      defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Name implements Provider.
func (p *httpProvider) Name() string { return p.name }

// unmatched is the Result for a service that answered with no match.
func (p *httpProvider) unmatched() *Result {
	return &Result{Source: p.name}
}

// resolved builds a Result from the service's string lat/lon fields.
func (p *httpProvider) resolved(lat, lon string) (*Result, error) {
	coords, err := parseCoordinates(lat, lon)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s", p.name)
	}
	return &Result{Coordinates: coords, Source: p.name, Resolved: true}, nil
}

// get issues a GET and returns the body of a 200 response. A 404 returns a
// nil body and no error. Retryable statuses are marked transient.
func (p *httpProvider) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", p.name)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s request", p.name)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: %s returned status %d", p.name, resp.StatusCode),
			resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("geocode: %s returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s read body", p.name)
	}
	return body, nil
}
