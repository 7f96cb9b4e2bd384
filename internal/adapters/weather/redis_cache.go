package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
)

// CachedWeatherSource wraps another WeatherSource with a Redis snapshot
// cache. Weather moves slowly relative to request rate; a short TTL keeps
// upstream calls to one per region per interval. Cache failures degrade to
// the inner source, they never fail the lookup.
type CachedWeatherSource struct {
	Inner ports.WeatherSource
	RDB   *redis.Client
	TTL   time.Duration
}

func NewCachedWeatherSource(inner ports.WeatherSource, rdb *redis.Client, ttl time.Duration) *CachedWeatherSource {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedWeatherSource{Inner: inner, RDB: rdb, TTL: ttl}
}

// Keys are bucketed to one decimal (~11 km cells): weather is regional, and
// nearby origins should share an entry.
func weatherKey(at domain.GeoPoint) string {
	return fmt.Sprintf("weather:%.1f:%.1f", at.Lat, at.Lon)
}

func (c *CachedWeatherSource) Conditions(ctx context.Context, at domain.GeoPoint) (domain.WeatherSample, error) {
	key := weatherKey(at)

	if c.RDB != nil {
		raw, err := c.RDB.Get(ctx, key).Result()
		if err == nil {
			var sample domain.WeatherSample
			if jsonErr := json.Unmarshal([]byte(raw), &sample); jsonErr == nil {
				return sample, nil
			}
			// Drop corrupt entries and fall through to the source.
			c.RDB.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("weather cache read failed key=%s err=%v", key, err)
		}
	}

	sample, err := c.Inner.Conditions(ctx, at)
	if err != nil {
		return domain.WeatherSample{}, err
	}

	if c.RDB != nil {
		payload, err := json.Marshal(sample)
		if err == nil {
			if err := c.RDB.Set(ctx, key, payload, c.TTL).Err(); err != nil {
				log.Printf("weather cache write failed key=%s err=%v", key, err)
			}
		}
	}

	return sample, nil
}
