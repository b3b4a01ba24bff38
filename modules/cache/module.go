package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Config selects the Redis instance and key layout.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Module owns the Redis connection shared by the cache and the rate limiter.
type Module struct {
	cfg    Config
	client *redis.Client
	cache  *Cache
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the Redis client. No connection is made until Start.
func NewModule(cfg Config) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Module{
		cfg:    cfg,
		client: client,
		cache:  New(client, cfg.Prefix, cfg.TTL),
	}
}

func (m *Module) Name() string {
	return "cache"
}

// Cache returns the board cache.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Client returns the underlying Redis client.
func (m *Module) Client() *redis.Client {
	return m.client
}

func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.cfg.Addr, err)
	}
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.cfg.Addr, m.cfg.Prefix, m.cfg.TTL)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	s := m.cache.Stats()
	log.Printf("[cache] Stats: hits=%d misses=%d hit_rate=%.1f%%", s.Hits, s.Misses, s.HitRate)
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	s := m.cache.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "redis reachable",
		Details: map[string]any{
			"hits":     s.Hits,
			"misses":   s.Misses,
			"hit_rate": s.HitRate,
		},
	}
}
