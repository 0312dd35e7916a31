// internal/services/cache_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/mercadito/backoffice/internal/config"
)

// ErrCacheMiss is returned when the key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CacheClient is the small key/value contract the product read path needs.
type CacheClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	rdb *redis.Client
}

// NewCacheClient connects to Redis when an address is configured and falls
// back to a no-op cache otherwise or when Redis is unreachable.
func NewCacheClient(cfg config.RedisConfig) CacheClient {
	if cfg.Addr == "" {
		return NoopCache{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("Redis unavailable, product cache disabled")
		rdb.Close()
		return NoopCache{}
	}

	logrus.WithField("addr", cfg.Addr).Info("Redis cache connected")
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }

func (NoopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

// productCache stores rendered product details as JSON.
type productCache struct {
	client CacheClient
	ttl    time.Duration
}

func productCacheKey(productID uint) string {
	return fmt.Sprintf("product:detail:%d", productID)
}

func (c productCache) get(ctx context.Context, productID uint) (*ProductDetail, bool) {
	raw, err := c.client.Get(ctx, productCacheKey(productID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logrus.WithError(err).WithField("product_id", productID).Warn("Product cache read failed")
		}
		return nil, false
	}

	var detail ProductDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		logrus.WithError(err).WithField("product_id", productID).Warn("Discarding corrupt product cache entry")
		return nil, false
	}
	return &detail, true
}

func (c productCache) set(ctx context.Context, detail *ProductDetail) {
	data, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productCacheKey(detail.ID), data, c.ttl); err != nil {
		logrus.WithError(err).WithField("product_id", detail.ID).Warn("Product cache write failed")
	}
}

func (c productCache) invalidate(ctx context.Context, productID uint) {
	if err := c.client.Delete(ctx, productCacheKey(productID)); err != nil {
		logrus.WithError(err).WithField("product_id", productID).Warn("Product cache invalidation failed")
	}
}
