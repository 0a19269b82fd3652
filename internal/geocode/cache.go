package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/metrics"
)

// Geocoder is the lookup Cached wraps.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p geoguess.Point) (string, error)
}

// Store is the key/value backend of the cache. ErrCacheMiss signals an
// absent key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// noCountry is cached for coordinates without a country (open sea) so the
// same miss is not paid for twice.
const noCountry = "-"

// Cached memoizes reverse geocoding results. Cache failures never fail a
// lookup; they are logged and the upstream is asked instead.
type Cached struct {
	next   Geocoder
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next Geocoder, store Store, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{next: next, store: store, ttl: ttl, logger: logger}
}

func cacheKey(p geoguess.Point) string {
	return fmt.Sprintf("revgeo:%.5f:%.5f", p.Lat, p.Lng)
}

func (c *Cached) ReverseGeocode(ctx context.Context, p geoguess.Point) (string, error) {
	key := cacheKey(p)

	v, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
		if v == noCountry {
			return "", geoguess.ErrNoCountry
		}
		return v, nil
	case errors.Is(err, ErrCacheMiss):
		metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.GeocodeCacheTotal.WithLabelValues("error").Inc()
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	}

	code, err := c.next.ReverseGeocode(ctx, p)
	switch {
	case err == nil:
		c.put(ctx, key, code)
	case errors.Is(err, geoguess.ErrNoCountry):
		c.put(ctx, key, noCountry)
	}
	return code, err
}

func (c *Cached) put(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}
