// Package geocode resolves US ZIP codes to coordinates using public geocoding
// services. A lookup either resolves or it does not: not-found and transport
// failures are reported the same way, as an unresolved Result.
package geocode

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/opportunity-analyzer/internal/resilience"
)

// Result is the outcome of resolving a ZIP code. Coordinates are only
// meaningful when Resolved is true.
type Result struct {
	Coordinates
	Source   string // provider name, or "cache"
	Resolved bool
}

// Stats counts resolver activity since the Client was created.
type Stats struct {
	Lookups    int64             `json:"lookups"`
	CacheHits  int64             `json:"cache_hits"`
	Resolved   int64             `json:"resolved"`
	Unresolved int64             `json:"unresolved"`
	Abandoned  int64             `json:"abandoned"`
	Circuits   map[string]string `json:"circuits,omitempty"`
}

// Option configures the Client.
type Option func(*Client)

// WithProviders sets the providers tried, in order, for each lookup.
func WithProviders(providers ...Provider) Option {
	return func(c *Client) {
		c.providers = providers
	}
}

// WithCache enables caching of resolved coordinates.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRateLimit caps outbound lookups per second. A non-positive value
// disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient provider failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithCircuitBreaker guards each provider with its own circuit breaker.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breakers = resilience.NewServiceBreakers(cfg)
	}
}

// WithTimeout bounds a single lookup across all providers and retries.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client resolves ZIP codes. The zero-option Client makes exactly one
// Nominatim request per Resolve call, with no cache and no retry.
type Client struct {
	providers []Provider
	cache     Cache
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	breakers  *resilience.ServiceBreakers
	timeout   time.Duration
	group     singleflight.Group

	lookups    atomic.Int64
	cacheHits  atomic.Int64
	resolved   atomic.Int64
	unresolved atomic.Int64
	abandoned  atomic.Int64
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		providers: []Provider{NewNominatim()},
		limiter:   rate.NewLimiter(rate.Inf, 1),
		retry:     resilience.RetryConfig{MaxAttempts: 1},
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve maps zip to coordinates. It never returns an error: any failure
// yields a Result with Resolved set to false. Concurrent calls for the same
// ZIP share one outbound lookup; cancelling ctx abandons the wait without
// cancelling the shared lookup. Abandoned calls are counted apart from
// unresolved ones. The ZIP is sent exactly as given.
func (c *Client) Resolve(ctx context.Context, zip ZipCode) Result {
	c.lookups.Add(1)
	key := string(zip)

	if c.cache != nil {
		if coords, ok := c.cache.Get(ctx, key); ok {
			c.cacheHits.Add(1)
			c.resolved.Add(1)
			return Result{Coordinates: coords, Source: "cache", Resolved: true}
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.lookup(context.WithoutCancel(ctx), key), nil
	})

	var result Result
	select {
	case <-ctx.Done():
		c.abandoned.Add(1)
		zap.L().Debug("geocode: caller gave up waiting",
			zap.String("zip", key),
			zap.Error(ctx.Err()),
		)
		return result
	case res := <-ch:
		result = res.Val.(Result)
	}

	if result.Resolved {
		c.resolved.Add(1)
	} else {
		c.unresolved.Add(1)
	}
	return result
}

// Stats returns a snapshot of the resolver counters.
func (c *Client) Stats() Stats {
	s := Stats{
		Lookups:    c.lookups.Load(),
		CacheHits:  c.cacheHits.Load(),
		Resolved:   c.resolved.Load(),
		Unresolved: c.unresolved.Load(),
		Abandoned:  c.abandoned.Load(),
	}
	if c.breakers != nil {
		s.Circuits = c.breakers.States()
	}
	return s
}

// lookup tries each available provider in order until one resolves.
func (c *Client) lookup(ctx context.Context, zip string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	last := Result{Source: "none"}
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}

		result, err := c.call(ctx, p, ZipCode(zip))
		if err != nil {
			zap.L().Debug("geocode: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("zip", zip),
				zap.Error(err),
			)
			last = Result{Source: p.Name()}
			continue
		}
		if result.Resolved {
			if c.cache != nil {
				c.cache.Set(ctx, zip, result.Coordinates)
			}
			return *result
		}
		last = *result
	}

	zap.L().Debug("geocode: zip unresolved", zap.String("zip", zip), zap.String("source", last.Source))
	return last
}

// call performs one provider lookup behind the rate limiter, circuit breaker
// and retry policy.
func (c *Client) call(ctx context.Context, p Provider, zip ZipCode) (*Result, error) {
	attempt := func(ctx context.Context) (*Result, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return p.Lookup(ctx, zip)
	}

	if c.breakers != nil {
		cb := c.breakers.Get(p.Name())
		unguarded := attempt
		attempt = func(ctx context.Context) (*Result, error) {
			return resilience.ExecuteVal(ctx, cb, unguarded)
		}
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(p.Name())
	}
	return resilience.DoVal(ctx, cfg, attempt)
}

// defaultHTTPClient is shared by providers that are not given their own.
func defaultHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 10
	return &http.Client{
		Transport: t,
		Timeout:   30 * time.Second,
	}
}
