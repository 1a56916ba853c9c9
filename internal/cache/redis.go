package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/redis/go-redis/v9"
)

// redisJSON stores JSON values under prefix:id with a jittered TTL so entries
// written together do not expire together.
type redisJSON[T any] struct {
	client    *redis.Client
	prefix    string
	baseTTL   time.Duration
	maxJitter time.Duration
}

func (r redisJSON[T]) get(ctx context.Context, id string) (*T, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v T
	if err2 := json.Unmarshal(data, &v); err2 != nil {
		return nil, fmt.Errorf("unmarshal %s failed: %w", r.prefix, err2)
	}
	return &v, nil
}

func (r redisJSON[T]) set(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", r.prefix, err)
	}

	ttl := r.baseTTL
	if r.maxJitter > 0 {
		ttl += time.Duration(rand.Int63n(int64(r.maxJitter)))
	}
	if err := r.client.Set(ctx, r.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r redisJSON[T]) del(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r redisJSON[T]) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

type RedisCartCache struct {
	store redisJSON[domain.CartSession]
}

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{store: redisJSON[domain.CartSession]{
		client:    client,
		prefix:    "cart",
		baseTTL:   15 * time.Minute,
		maxJitter: 5 * time.Minute,
	}}
}

func (c *RedisCartCache) Get(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	return c.store.get(ctx, sessionID)
}

func (c *RedisCartCache) Set(ctx context.Context, sessionID string, cart *domain.CartSession) error {
	return c.store.set(ctx, sessionID, cart)
}

func (c *RedisCartCache) Delete(ctx context.Context, sessionID string) error {
	return c.store.del(ctx, sessionID)
}

type RedisOrderCache struct {
	store redisJSON[domain.Order]
}

func NewRedisOrderCache(client *redis.Client) *RedisOrderCache {
	return &RedisOrderCache{store: redisJSON[domain.Order]{
		client:    client,
		prefix:    "order",
		baseTTL:   5 * time.Minute,
		maxJitter: time.Minute,
	}}
}

func (c *RedisOrderCache) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return c.store.get(ctx, orderID)
}

func (c *RedisOrderCache) Set(ctx context.Context, orderID string, order *domain.Order) error {
	return c.store.set(ctx, orderID, order)
}

func (c *RedisOrderCache) Delete(ctx context.Context, orderID string) error {
	return c.store.del(ctx, orderID)
}
