package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	redisPoolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_redis_pool_hits_total",
		Help: "Number of times a connection was found in the pool",
	})
	redisPoolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_redis_pool_misses_total",
		Help: "Number of times a connection was not found in the pool",
	})
	redisPoolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_redis_pool_timeouts_total",
		Help: "Number of times a connection was not obtained due to timeout",
	})
	redisPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "verdict_redis_pool_total_conns",
		Help: "Number of total connections in the pool",
	})
	redisPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "verdict_redis_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})
)

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
	lastStats *redis.PoolStats
}

// New creates a new Redis client from the given URL.
// Returns nil if the URL is empty (Redis not configured).
func New(url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.Ping(ctx).Err()
}

// CollectPoolMetrics publishes connection pool deltas to Prometheus.
// Call periodically from a background goroutine.
func (c *Client) CollectPoolMetrics() {
	if c == nil || c.Client == nil {
		return
	}
	stats := c.PoolStats()
	if c.lastStats != nil {
		redisPoolHits.Add(float64(stats.Hits - c.lastStats.Hits))
		redisPoolMisses.Add(float64(stats.Misses - c.lastStats.Misses))
		redisPoolTimeouts.Add(float64(stats.Timeouts - c.lastStats.Timeouts))
	}
	redisPoolTotalConns.Set(float64(stats.TotalConns))
	redisPoolIdleConns.Set(float64(stats.IdleConns))
	c.lastStats = stats
}
