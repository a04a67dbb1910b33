package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mintgate/mintgate-backend/internal/metrics"
	"github.com/mintgate/mintgate-backend/pkg/kv"
	memkv "github.com/mintgate/mintgate-backend/pkg/kv/memory"
	rediskv "github.com/mintgate/mintgate-backend/pkg/kv/redis"
)

type Cache struct {
	// Non-nil only when Redis is reachable; pubsub needs the raw client
	client *redis.Client
	// KV operations always go through the store: Redis-backed when the
	// client is up, in-memory otherwise
	kvStore kv.Store
	// In-memory pubsub hub for when Redis is unavailable
	pubsubHub *PubSubHub

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewCache(addr string, logger *zap.SugaredLogger, metrics *metrics.Metrics) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Redis unavailable: fall back to in-memory cache
		if logger != nil {
			logger.Warnw("Redis unavailable; using in-memory cache with mock pubsub", "error", err)
		}
		return &Cache{
			client:    nil,
			kvStore:   memkv.NewStore(),
			pubsubHub: NewPubSubHub(),
			logger:    logger,
			metrics:   metrics,
		}, nil
	}

	return &Cache{
		client:  client,
		kvStore: rediskv.NewFromClient(client),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Cache key prefixes
const (
	KeyBridgeConfig = "mg:bridge:config"
	KeyBridgeStats  = "mg:bridge:stats"
	KeyAsset        = "mg:asset"
	KeyTransfer     = "mg:transfer"
)

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			if c.metrics != nil {
				c.metrics.RecordCacheMiss(ctx, key)
			}
			return ErrCacheMiss
		}
		if c.logger != nil {
			c.logger.Errorw("Cache get error", "key", key, "error", err)
		}
		return fmt.Errorf("cache get error: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit(ctx, key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.kvStore.Set(ctx, key, data, ttl); err != nil {
		if c.logger != nil {
			c.logger.Errorw("Cache set error", "key", key, "error", err)
		}
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if _, err := c.kvStore.Del(ctx, keys...); err != nil {
		if c.logger != nil {
			c.logger.Errorw("Cache delete error", "keys", keys, "error", err)
		}
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.kvStore.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}
	return count > 0, nil
}

// Specialized cache methods
func (c *Cache) GetBridgeConfig(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, KeyBridgeConfig, dest)
}

func (c *Cache) SetBridgeConfig(ctx context.Context, value interface{}) error {
	return c.Set(ctx, KeyBridgeConfig, value, 3*time.Second)
}

func (c *Cache) GetBridgeStats(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, KeyBridgeStats, dest)
}

func (c *Cache) SetBridgeStats(ctx context.Context, value interface{}) error {
	return c.Set(ctx, KeyBridgeStats, value, 2*time.Second)
}

func (c *Cache) GetAsset(ctx context.Context, assetID string, dest interface{}) error {
	key := fmt.Sprintf("%s:%s", KeyAsset, assetID)
	return c.Get(ctx, key, dest)
}

func (c *Cache) SetAsset(ctx context.Context, assetID string, value interface{}) error {
	key := fmt.Sprintf("%s:%s", KeyAsset, assetID)
	return c.Set(ctx, key, value, 5*time.Second)
}

func (c *Cache) DeleteAsset(ctx context.Context, assetID string) error {
	return c.Delete(ctx, fmt.Sprintf("%s:%s", KeyAsset, assetID))
}

func (c *Cache) GetTransfer(ctx context.Context, assetID string, nonce uint64, dest interface{}) error {
	key := fmt.Sprintf("%s:%s:%d", KeyTransfer, assetID, nonce)
	return c.Get(ctx, key, dest)
}

func (c *Cache) SetTransfer(ctx context.Context, assetID string, nonce uint64, value interface{}) error {
	key := fmt.Sprintf("%s:%s:%d", KeyTransfer, assetID, nonce)
	return c.Set(ctx, key, value, 5*time.Second)
}

// Pub/Sub methods for real-time updates
func (c *Cache) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("pubsub marshal error: %w", err)
	}

	if c.client != nil {
		// Redis mode
		if err := c.client.Publish(ctx, channel, data).Err(); err != nil {
			if c.logger != nil {
				c.logger.Errorw("Publish error", "channel", channel, "error", err)
			}
			return fmt.Errorf("pubsub publish error: %w", err)
		}
		return nil
	}

	// In-memory mode
	if c.pubsubHub != nil {
		c.pubsubHub.Publish(channel, string(data))
		if c.logger != nil {
			c.logger.Debugw("Published to in-memory pubsub", "channel", channel)
		}
	}
	return nil
}

func (c *Cache) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	if c.client != nil {
		// Redis mode
		return c.client.Subscribe(ctx, channels...)
	}

	// In-memory mode - return nil but the system should handle this gracefully
	if c.logger != nil {
		c.logger.Debugw("Redis unavailable; in-memory pubsub active", "channels", channels)
	}
	return nil
}

// SubscribeInMemory subscribes to channels using the in-memory pubsub hub
// Returns a MockPubSub that can be used similarly to redis.PubSub
func (c *Cache) SubscribeInMemory(ctx context.Context, channels ...string) *MockPubSub {
	if c.pubsubHub != nil {
		return c.pubsubHub.Subscribe(ctx, channels...)
	}
	return nil
}

// IsInMemoryMode returns true if the cache is running in in-memory mode
func (c *Cache) IsInMemoryMode() bool {
	return c.client == nil
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.kvStore.Ping(ctx)
}

// Close connection
func (c *Cache) Close() error {
	// The redis-backed store closes the shared client
	return c.kvStore.Close()
}

// Error types
var (
	ErrCacheMiss = fmt.Errorf("cache miss")
)
