package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
)

// ErrLocationNotCached is returned when no recent position is cached.
var ErrLocationNotCached = errors.New("no cached location")

const locationTTL = 5 * time.Minute

// LocationCache keeps the most recent courier position per order so the
// tracking endpoint does not hit the database on every poll.
type LocationCache struct {
	client *redis.Client
}

func NewLocationCache(client *redis.Client) *LocationCache {
	return &LocationCache{client: client}
}

func locationKey(orderID uint) string {
	return fmt.Sprintf("order:%d:location", orderID)
}

// SetLatest stores the position with a short TTL.
func (c *LocationCache) SetLatest(ctx context.Context, location *model.CourierLocation) error {
	payload, err := json.Marshal(location)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, locationKey(location.OrderID), payload, locationTTL).Err()
}

// GetLatest returns the cached position or ErrLocationNotCached.
func (c *LocationCache) GetLatest(ctx context.Context, orderID uint) (*model.CourierLocation, error) {
	payload, err := c.client.Get(ctx, locationKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLocationNotCached
		}
		return nil, err
	}

	var location model.CourierLocation
	if err := json.Unmarshal(payload, &location); err != nil {
		return nil, err
	}
	return &location, nil
}
