package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	wire "github.com/Skotchmaster/storefront/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// CartCache is a read-through copy of rendered carts. Every cart mutation deletes the entry.
type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]wire.CartLineItem, error)
	Set(ctx context.Context, userID uuid.UUID, items []wire.CartLineItem) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCartCache(client *redis.Client, ttl time.Duration) *RedisCartCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCartCache{client: client, baseTTL: ttl}
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (r *RedisCartCache) Get(ctx context.Context, userID uuid.UUID) ([]wire.CartLineItem, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var items []wire.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}

func (r *RedisCartCache) Set(ctx context.Context, userID uuid.UUID, items []wire.CartLineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	ttl := r.baseTTL + time.Duration(rand.IntN(60))*time.Second
	if err := r.client.Set(ctx, cacheKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCartCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Noop never holds anything; used when REDIS_ADDR is not configured.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) ([]wire.CartLineItem, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, uuid.UUID, []wire.CartLineItem) error   { return nil }
func (Noop) Delete(context.Context, uuid.UUID) error                     { return nil }
