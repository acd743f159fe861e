// Package memory keeps the last recovered recipe of each generation session so follow-up requests can
// refine it.
package memory

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"recipeagent"
	"recipeagent/recovery"
)

// Store holds one payload per session key. Entries expire after a TTL fixed when the store is built.
type Store interface {
	// Get returns the payload for key; ok is false when there is none or it expired.
	Get(ctx context.Context, key string) (p recovery.Payload, ok bool, err error)
	Put(ctx context.Context, key string, p recovery.Payload) error
	Delete(ctx context.Context, key string) error
}

// FromConfig builds the Store selected by cfg.Backend.
func FromConfig(cfg recipeagent.MemoryConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewInMemoryStore(cfg.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}
