// Package cache keeps reference data in Redis.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const carModelsKey = "carmate:car-models"

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// CarModels caches the "manufacturer|model" -> id lookup used by car imports.
// Car models are seeded reference data, so a plain TTL is enough.
type CarModels struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCarModels(client *redis.Client, ttl time.Duration) *CarModels {
	return &CarModels{client: client, ttl: ttl}
}

// Load returns ok=false on a cache miss.
func (c *CarModels) Load(ctx context.Context) (map[string]uint, bool, error) {
	raw, err := c.client.HGetAll(ctx, carModelsKey).Result()
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	lookup := make(map[string]uint, len(raw))
	for key, value := range raw {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt car model entry %q: %w", key, err)
		}
		lookup[key] = uint(id)
	}
	return lookup, true, nil
}

func (c *CarModels) Store(ctx context.Context, lookup map[string]uint) error {
	if len(lookup) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(lookup))
	for key, id := range lookup {
		fields[key] = strconv.FormatUint(uint64(id), 10)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, carModelsKey)
		pipe.HSet(ctx, carModelsKey, fields)
		pipe.Expire(ctx, carModelsKey, c.ttl)
		return nil
	})
	return err
}

func (c *CarModels) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, carModelsKey).Err()
}
