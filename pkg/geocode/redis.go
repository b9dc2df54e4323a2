package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "geocode:zip:"

// RedisClient is the subset of *redis.Client used by RedisCache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares resolved coordinates between processes.
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisCache creates a cache storing entries for ttl.
func NewRedisCache(client RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, zip string) (Coordinates, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+zip).Result()
	if errors.Is(err, redis.Nil) {
		return Coordinates{}, false
	}
	if err != nil {
		zap.L().Warn("geocode: redis get failed", zap.String("zip", zip), zap.Error(err))
		return Coordinates{}, false
	}

	var coords Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		zap.L().Warn("geocode: discarding malformed redis entry", zap.String("zip", zip), zap.Error(err))
		return Coordinates{}, false
	}
	if !coords.Valid() {
		zap.L().Warn("geocode: discarding out-of-range redis entry",
			zap.String("zip", zip),
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
		)
		return Coordinates{}, false
	}

	zap.L().Debug("geocode cache hit", zap.String("zip", zip), zap.String("backend", "redis"))
	return coords, true
}

// Set implements Cache.
func (r *RedisCache) Set(ctx context.Context, zip string, coords Coordinates) {
	data, err := json.Marshal(coords)
	if err != nil {
		zap.L().Warn("geocode: encode redis entry", zap.String("zip", zip), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+zip, data, r.ttl).Err(); err != nil {
		zap.L().Warn("geocode: redis set failed", zap.String("zip", zip), zap.Error(err))
	}
}
