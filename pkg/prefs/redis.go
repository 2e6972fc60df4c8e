package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one namespace of values in a Redis hash. It is bound to
// the context it was created with, so create one per request.
type RedisStore struct {
	ctx    context.Context
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisStore returns a store backed by the hash at key. A positive ttl is
// refreshed on every write.
func NewRedisStore(ctx context.Context, client redis.Cmdable, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{ctx: ctx, client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Get(field string) (string, bool, error) {
	v, err := s.client.HGet(s.ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: hget %s: %w", field, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(field, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(s.ctx, s.key, field, value)
	if s.ttl > 0 {
		pipe.Expire(s.ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("prefs: hset %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) Delete(field string) error {
	if err := s.client.HDel(s.ctx, s.key, field).Err(); err != nil {
		return fmt.Errorf("prefs: hdel %s: %w", field, err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	if err := s.client.Del(s.ctx, s.key).Err(); err != nil {
		return fmt.Errorf("prefs: del: %w", err)
	}
	return nil
}
