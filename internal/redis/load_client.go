package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LoadClient connects to the session Redis and pings it.
func LoadClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cannot connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}
