package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/pkg/config"
	"github.com/BenAji/agora-go/pkg/logger"
)

var log = logger.NewLogger("info")

// Custom error types
var (
	ErrCacheNotFound   = errors.New("cache: key not found")
	ErrCacheConnection = errors.New("cache: connection error")
	ErrInvalidConfig   = errors.New("cache: invalid configuration")
	ErrKeyTooLong      = errors.New("cache: key exceeds maximum length")
)

// ChangeChannel is the Redis channel carrying cross-process change signals.
const ChangeChannel = "agora:changes"

// Config holds the configuration for the Redis client
type Config struct {
	Addr             string
	Password         string
	DB               int
	PoolSize         int
	MinIdleConns     int
	MaxRetries       int
	ConnTimeout      time.Duration
	OperationTimeout time.Duration
	DefaultTTL       time.Duration
	MaxKeyLength     int
	KeyPrefix        string
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		PoolSize:         50,
		MinIdleConns:     5,
		MaxRetries:       3,
		ConnTimeout:      5 * time.Second,
		OperationTimeout: 2 * time.Second,
		DefaultTTL:       30 * time.Minute,
		MaxKeyLength:     256,
		KeyPrefix:        "agora:",
	}
}

// NewConfigFromEnv creates a Redis config from project configuration
func NewConfigFromEnv(cfg *config.Config) *Config {
	out := DefaultConfig()
	out.Addr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	out.Password = cfg.Redis.Password
	out.DB = cfg.Redis.DB
	return out
}

// CacheMetrics tracks cache hit/miss statistics with atomic operations
type CacheMetrics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
	hitRate atomic.Int64 // stored as percentage x100
}

// RedisClient wraps the Redis client with key prefixing, health tracking,
// hit/miss metrics and the change-signal pub/sub channel.
type RedisClient struct {
	client    *redis.Client
	config    *Config
	metrics   *CacheMetrics
	closeOnce sync.Once
	health    int32 // 0 = healthy, 1 = unhealthy
	stop      chan struct{}
}

// NewRedisClient creates a new Redis client with the provided configuration
func NewRedisClient(cfg *Config) (*RedisClient, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeout)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := &RedisClient{
		client:  client,
		config:  cfg,
		metrics: &CacheMetrics{},
		stop:    make(chan struct{}),
	}
	go r.healthCheckLoop()
	return r, nil
}

func (r *RedisClient) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.config.ConnTimeout)
			err := r.client.Ping(ctx).Err()
			cancel()
			if err != nil {
				atomic.StoreInt32(&r.health, 1)
				log.Warn("redis health check failed", zap.Error(err))
			} else {
				atomic.StoreInt32(&r.health, 0)
			}
		}
	}
}

// IsHealthy reports the last observed connection state.
func (r *RedisClient) IsHealthy() bool {
	return atomic.LoadInt32(&r.health) == 0
}

func (r *RedisClient) withContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.config.OperationTimeout)
}

func (r *RedisClient) validateKey(key string) error {
	if len(key) > r.config.MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("cache: key contains whitespace: %q", key)
	}
	return nil
}

func (r *RedisClient) prefixKey(key string) string {
	return r.config.KeyPrefix + key
}

// Get retrieves a value by key. Missing keys return ErrCacheNotFound.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	if err := r.validateKey(key); err != nil {
		return "", err
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()

	value, err := r.client.Get(ctx, r.prefixKey(key)).Result()
	if err == redis.Nil {
		r.trackCacheEvent(false)
		return "", ErrCacheNotFound
	}
	if err != nil {
		r.metrics.errors.Add(1)
		return "", fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	r.trackCacheEvent(true)
	return value, nil
}

// trackCacheEvent tracks cache hits/misses with atomic operations
func (r *RedisClient) trackCacheEvent(hit bool) {
	if hit {
		r.metrics.hits.Add(1)
	} else {
		r.metrics.misses.Add(1)
	}
	total := r.metrics.hits.Load() + r.metrics.misses.Load()
	if total > 0 {
		rate := int64((float64(r.metrics.hits.Load()) / float64(total)) * 10000)
		r.metrics.hitRate.Store(rate)
	}
}

// GetMetrics returns current cache metrics with pool statistics.
func (r *RedisClient) GetMetrics() map[string]interface{} {
	stats := r.client.PoolStats()
	return map[string]interface{}{
		"hits":     r.metrics.hits.Load(),
		"misses":   r.metrics.misses.Load(),
		"errors":   r.metrics.errors.Load(),
		"hit_rate": float64(r.metrics.hitRate.Load()) / 10000.0,
		"health":   r.IsHealthy(),
		"pool_stats": map[string]interface{}{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"stale_conns": stats.StaleConns,
		},
		"config": map[string]interface{}{
			"prefix": r.config.KeyPrefix,
			"db":     r.config.DB,
		},
	}
}

// Set stores a value. Non-string values are JSON encoded. A zero ttl means
// no expiry.
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := r.validateKey(key); err != nil {
		return err
	}

	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cache: failed to encode value: %w", err)
		}
		payload = string(raw)
	}

	ctx, cancel := r.withContext(ctx)
	defer cancel()
	if err := r.client.Set(ctx, r.prefixKey(key), payload, ttl).Err(); err != nil {
		r.metrics.errors.Add(1)
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		if err := r.validateKey(key); err != nil {
			return err
		}
		prefixed[i] = r.prefixKey(key)
	}

	ctx, cancel := r.withContext(ctx)
	defer cancel()
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		r.metrics.errors.Add(1)
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// HealthCheck pings the server.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := r.withContext(ctx)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// PublishChange broadcasts a change signal to all processes.
func (r *RedisClient) PublishChange(ctx context.Context, event *feed.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("cache: failed to encode change event: %w", err)
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()
	return r.client.Publish(ctx, ChangeChannel, payload).Err()
}

// SubscribeToChanges delivers change signals published by other processes
// to the callback until ctx is cancelled. Malformed payloads are logged
// and skipped.
func (r *RedisClient) SubscribeToChanges(ctx context.Context, callback func(*feed.ChangeEvent)) error {
	sub := r.client.Subscribe(ctx, ChangeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("cache: subscribe failed: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event feed.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warn("discarding malformed change signal", zap.Error(err))
					continue
				}
				callback(&event)
			}
		}
	}()
	return nil
}

// GetClient exposes the underlying client for callers that need raw access.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// Close shuts down the health loop and the connection pool.
func (r *RedisClient) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stop)
		err = r.client.Close()
	})
	return err
}
