package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newRewriteClient creates an HTTP client that sends every request whose URL
// starts with targetPrefix to the test server instead.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, t.targetPrefix) {
		return t.base.RoundTrip(req)
	}

	parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}

// jsonServer starts a test server that always answers with status and body.
func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// stubProvider is a Provider whose behavior is set per test.
type stubProvider struct {
	name        string
	unavailable bool
	calls       atomic.Int32
	lookup      func(ctx context.Context, zip ZipCode) (*Result, error)
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return !s.unavailable }

func (s *stubProvider) Lookup(ctx context.Context, zip ZipCode) (*Result, error) {
	s.calls.Add(1)
	return s.lookup(ctx, zip)
}

func resolvedAt(source string, lat, lon float64) func(context.Context, ZipCode) (*Result, error) {
	return func(context.Context, ZipCode) (*Result, error) {
		return &Result{Coordinates: Coordinates{Latitude: lat, Longitude: lon}, Source: source, Resolved: true}, nil
	}
}
