package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRedisClient is a mock implementation of RedisClient.
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func TestRedisCache_Hit(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Get", ctx, "geocode:zip:10001").
		Return(`{"latitude":40.7484,"longitude":-73.9967}`, nil)

	c := NewRedisCache(client, time.Hour)
	got, ok := c.Get(ctx, "10001")

	assert.True(t, ok)
	assert.Equal(t, Coordinates{Latitude: 40.7484, Longitude: -73.9967}, got)
	client.AssertExpectations(t)
}

func TestRedisCache_Miss(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Get", ctx, "geocode:zip:00000").Return("", redis.Nil)

	c := NewRedisCache(client, time.Hour)
	_, ok := c.Get(ctx, "00000")

	assert.False(t, ok)
	client.AssertExpectations(t)
}

func TestRedisCache_GetErrorIsMiss(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Get", ctx, "geocode:zip:10001").Return("", errors.New("connection refused"))

	c := NewRedisCache(client, time.Hour)
	_, ok := c.Get(ctx, "10001")

	assert.False(t, ok)
}

func TestRedisCache_MalformedEntryIsMiss(t *testing.T) {
	cases := map[string]string{
		"not json":          `not-json`,
		"latitude too big":  `{"latitude":999,"longitude":-73.9967}`,
		"longitude too low": `{"latitude":40.7484,"longitude":-500}`,
		"both out of range": `{"latitude":999,"longitude":-500}`,
	}

	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			client := new(MockRedisClient)
			ctx := context.Background()
			client.On("Get", ctx, "geocode:zip:10001").Return(entry, nil)

			c := NewRedisCache(client, time.Hour)
			got, ok := c.Get(ctx, "10001")

			assert.False(t, ok)
			assert.Equal(t, Coordinates{}, got)
		})
	}
}

func TestResolve_OutOfRangeRedisEntryFallsThrough(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, "geocode:zip:10001").
		Return(`{"latitude":999,"longitude":-500}`, nil)
	client.On("Set", mock.Anything, "geocode:zip:10001", mock.Anything, time.Hour).
		Return("OK", nil)
	p := &stubProvider{name: "stub", lookup: resolvedAt("stub", 40.7484, -73.9967)}

	c := NewClient(WithProviders(p), WithCache(NewRedisCache(client, time.Hour)))
	result := c.Resolve(context.Background(), "10001")

	assert.True(t, result.Resolved)
	assert.Equal(t, "stub", result.Source)
	assert.True(t, result.Coordinates.Valid())
	assert.Equal(t, int64(0), c.Stats().CacheHits)
	client.AssertExpectations(t)
}

func TestRedisCache_Set(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Set", ctx, "geocode:zip:10001",
		[]byte(`{"latitude":40.7484,"longitude":-73.9967}`), time.Hour).
		Return("OK", nil)

	c := NewRedisCache(client, time.Hour)
	c.Set(ctx, "10001", Coordinates{Latitude: 40.7484, Longitude: -73.9967})

	client.AssertExpectations(t)
}

func TestRedisCache_SetErrorIsSwallowed(t *testing.T) {
	client := new(MockRedisClient)
	ctx := context.Background()
	client.On("Set", ctx, "geocode:zip:10001", mock.Anything, time.Hour).
		Return("", errors.New("read only replica"))

	c := NewRedisCache(client, time.Hour)
	assert.NotPanics(t, func() {
		c.Set(ctx, "10001", Coordinates{Latitude: 40.7484, Longitude: -73.9967})
	})
	client.AssertExpectations(t)
}
