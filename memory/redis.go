package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recipeagent/recovery"
)

// KeyPrefix namespaces session keys in Redis.
const KeyPrefix = "recipe-memory:"

var redisTracer = otel.Tracer("memory.redis")

// RedisStore is a Store shared across processes. Payloads are stored as JSON and expire through Redis TTLs.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (recovery.Payload, bool, error) {
	ctx, span := redisTracer.Start(ctx, "memory.Get",
		trace.WithAttributes(attribute.String("memory.key", key)))
	defer span.End()

	val, err := s.rdb.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("memory.hit", false))
		return recovery.Payload{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return recovery.Payload{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var p recovery.Payload
	if err := json.Unmarshal(val, &p); err != nil {
		span.RecordError(err)
		return recovery.Payload{}, false, fmt.Errorf("decode stored payload %q: %w", key, err)
	}

	span.SetAttributes(attribute.Bool("memory.hit", true))
	return p, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, p recovery.Payload) error {
	ctx, span := redisTracer.Start(ctx, "memory.Put",
		trace.WithAttributes(
			attribute.String("memory.key", key),
			attribute.Int64("memory.ttl_ms", s.ttl.Milliseconds()),
		))
	defer span.End()

	b, err := json.Marshal(p)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, KeyPrefix+key, b, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, span := redisTracer.Start(ctx, "memory.Delete",
		trace.WithAttributes(attribute.String("memory.key", key)))
	defer span.End()

	if err := s.rdb.Del(ctx, KeyPrefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
