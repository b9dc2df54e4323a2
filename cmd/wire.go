package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-analyzer/internal/analysis"
	"github.com/sells-group/opportunity-analyzer/internal/config"
	"github.com/sells-group/opportunity-analyzer/internal/mapview"
	"github.com/sells-group/opportunity-analyzer/internal/resilience"
	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// app holds the wired components shared by the commands.
type app struct {
	Resolver *geocode.Client
	View     *mapview.View
	Analyzer *analysis.Service

	closers []func() error
}

// Close releases external connections.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

// newApp builds the resolver, map view and analysis service from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	providers, err := buildProviders(cfg.Geocode)
	if err != nil {
		return nil, err
	}

	opts := []geocode.Option{
		geocode.WithProviders(providers...),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithTimeout(time.Duration(cfg.Geocode.TimeoutSecs) * time.Second),
		geocode.WithRetry(resilience.FromRetryConfig(
			cfg.Geocode.Retry.MaxAttempts,
			cfg.Geocode.Retry.InitialBackoffMs,
			cfg.Geocode.Retry.MaxBackoffMs,
		)),
	}
	if cfg.Geocode.Circuit.FailureThreshold > 0 {
		opts = append(opts, geocode.WithCircuitBreaker(resilience.FromCircuitConfig(
			cfg.Geocode.Circuit.FailureThreshold,
			cfg.Geocode.Circuit.ResetTimeoutSecs,
		)))
	}

	cache, closer, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, geocode.WithCache(cache))
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.Resolver = geocode.NewClient(opts...)
	a.View = mapview.New(a.Resolver, mapview.WithDefault(cfg.Map.DefaultZipCode, geocode.Coordinates{
		Latitude:  cfg.Map.DefaultLatitude,
		Longitude: cfg.Map.DefaultLongitude,
	}))
	a.Analyzer = analysis.New(a.View,
		analysis.WithDelay(time.Duration(cfg.Analysis.DelayMs)*time.Millisecond),
	)

	zap.L().Debug("components wired",
		zap.Strings("providers", cfg.Geocode.Providers),
		zap.String("cache", cfg.Cache.Driver),
	)
	return a, nil
}

// buildProviders creates the configured providers in cascade order.
func buildProviders(cfg config.GeocodeConfig) ([]geocode.Provider, error) {
	common := []geocode.ProviderOption{
		geocode.WithCountry(cfg.Country),
		geocode.WithUserAgent(cfg.UserAgent),
	}

	providers := make([]geocode.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "nominatim":
			providers = append(providers, geocode.NewNominatim(
				append(common, geocode.WithBaseURL(cfg.Nominatim.BaseURL))...))
		case "zippopotam":
			providers = append(providers, geocode.NewZippopotam(
				append(common, geocode.WithBaseURL(cfg.Zippopotam.BaseURL))...))
		case "google":
			providers = append(providers, geocode.NewGoogle(
				append(common, geocode.WithBaseURL(cfg.Google.BaseURL), geocode.WithAPIKey(cfg.Google.APIKey))...))
		default:
			return nil, eris.Errorf("unknown geocode provider %q", name)
		}
	}
	return providers, nil
}

// buildCache creates the configured cache. It returns a nil Cache for the
// "none" driver.
func buildCache(ctx context.Context, cfg *config.Config) (geocode.Cache, func() error, error) {
	ttl := time.Duration(cfg.Cache.TTLSecs) * time.Second

	switch cfg.Cache.Driver {
	case "none", "":
		return nil, nil, nil
	case "memory":
		return geocode.NewMemoryCache(cfg.Cache.Size, ttl), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// Lookups still work; every cache access becomes a logged miss.
			zap.L().Warn("redis unreachable, geocode cache degraded",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		}
		return geocode.NewRedisCache(client, ttl), client.Close, nil
	default:
		return nil, nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
