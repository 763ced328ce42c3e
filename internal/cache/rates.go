package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCache is a read-through cache for effective toll-rate lookups.
// Costing a route resolves one rate per station per call; the answers only
// change when an administrator edits rates, so a short TTL absorbs the
// repeated lookups without an invalidation protocol.
type RateCache struct {
	client *redis.Client
}

// NewRateCache creates a RateCache backed by the given Redis client.
func NewRateCache(client *redis.Client) *RateCache {
	return &RateCache{client: client}
}

// RateCacheTTL bounds staleness after a rate edit.
const RateCacheTTL = 60 * time.Second

const rateCachePrefix = "cache:tollrate:"

// CachedRate is the cached answer for one (station, vehicle type, day)
// lookup. Found=false caches the "no effective rate" answer too, so
// stations without rates don't hit the database on every costing.
type CachedRate struct {
	Found    bool   `json:"found"`
	RateID   int    `json:"rate_id,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func rateKey(stationID int, vehicleType, day string) string {
	return fmt.Sprintf("%s%d:%s:%s", rateCachePrefix, stationID, vehicleType, day)
}

// Get retrieves a cached rate lookup. A nil result means cache miss.
func (c *RateCache) Get(ctx context.Context, stationID int, vehicleType, day string) (*CachedRate, error) {
	data, err := c.client.Get(ctx, rateKey(stationID, vehicleType, day)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var r CachedRate
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Set stores a rate lookup answer.
func (c *RateCache) Set(ctx context.Context, stationID int, vehicleType, day string, r *CachedRate) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rateKey(stationID, vehicleType, day), data, RateCacheTTL).Err()
}

// Invalidate drops the cached answer for one (station, vehicle type, day).
func (c *RateCache) Invalidate(ctx context.Context, stationID int, vehicleType, day string) error {
	return c.client.Del(ctx, rateKey(stationID, vehicleType, day)).Err()
}
