// Copyright 2026 The Switchback Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package net

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
)

// RedisOptions is used to configure the redis.Ring
type RedisOptions struct {
	// Addrs are the list of redis shards
	Addrs []string

	// Password for the redis shards, optional
	Password string

	// ReadTimeout for redis socket reads
	ReadTimeout time.Duration
	// WriteTimeout for redis socket writes
	WriteTimeout time.Duration
	// DialTimeout is the max time.Duration to dial a new connection
	DialTimeout time.Duration
	// PoolTimeout is the max time.Duration to get a connection from pool
	PoolTimeout time.Duration

	// MinIdleConns is the minimum number of socket connections to redis
	MinIdleConns int
	// MaxIdleConns is the maximum number of socket connections to redis
	MaxIdleConns int

	// ConnMetricsInterval defines the frequency of updating the redis
	// connection related metrics. Defaults to 60 seconds.
	ConnMetricsInterval time.Duration
	// MetricsPrefix is the prefix for redis ring client metrics,
	// defaults to "redis." if not set
	MetricsPrefix string

	// Log is the logger that is used
	Log logging.Logger
	// Metrics receives the connection pool gauges
	Metrics metrics.Metrics
}

// RedisRingClient is the Redis client shared by the cluster rate
// limiter and the Redis route repository.
type RedisRingClient struct {
	ring          *redis.Ring
	log           logging.Logger
	metrics       metrics.Metrics
	metricsPrefix string
	options       RedisOptions
	quit          chan struct{}
	once          sync.Once
}

const (
	DefaultReadTimeout  = 25 * time.Millisecond
	DefaultWriteTimeout = 25 * time.Millisecond
	DefaultPoolTimeout  = 25 * time.Millisecond
	DefaultDialTimeout  = 25 * time.Millisecond
	DefaultMinConns     = 10
	DefaultMaxConns     = 100

	defaultConnMetricsInterval = 60 * time.Second
	defaultMetricsPrefix       = "redis."
	maxPingTries               = 7
)

func durationOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}

	return d
}

// NewRedisRingClient creates a client sharding the keys over the
// configured addresses.
func NewRedisRingClient(ro RedisOptions) *RedisRingClient {
	r := &RedisRingClient{
		quit:          make(chan struct{}),
		log:           ro.Log,
		metrics:       ro.Metrics,
		metricsPrefix: ro.MetricsPrefix,
	}

	if r.log == nil {
		r.log = logging.New("redis")
	}

	if r.metrics == nil {
		r.metrics = metrics.Default
	}

	if r.metricsPrefix == "" {
		r.metricsPrefix = defaultMetricsPrefix
	}

	ro.ConnMetricsInterval = durationOrDefault(ro.ConnMetricsInterval, defaultConnMetricsInterval)
	if ro.MinIdleConns <= 0 {
		ro.MinIdleConns = DefaultMinConns
	}

	if ro.MaxIdleConns <= 0 {
		ro.MaxIdleConns = DefaultMaxConns
	}

	ringOptions := &redis.RingOptions{
		Addrs:        make(map[string]string),
		Password:     ro.Password,
		ReadTimeout:  durationOrDefault(ro.ReadTimeout, DefaultReadTimeout),
		WriteTimeout: durationOrDefault(ro.WriteTimeout, DefaultWriteTimeout),
		PoolTimeout:  durationOrDefault(ro.PoolTimeout, DefaultPoolTimeout),
		DialTimeout:  durationOrDefault(ro.DialTimeout, DefaultDialTimeout),
		MinIdleConns: ro.MinIdleConns,
		PoolSize:     ro.MaxIdleConns,
	}

	for idx, addr := range ro.Addrs {
		ringOptions.Addrs[fmt.Sprintf("redis%d", idx)] = addr
	}

	r.options = ro
	r.ring = redis.NewRing(ringOptions)
	return r
}

// RingAvailable pings the shards, retrying with exponential backoff,
// and reports whether they answered.
func (r *RedisRingClient) RingAvailable(ctx context.Context) bool {
	_, err := backoff.Retry(ctx, func() (string, error) {
		res, err := r.ring.Ping(ctx).Result()
		if err != nil {
			r.log.Infof("Failed to ping redis, retry with backoff: %v", err)
		}

		return res, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxPingTries))

	return err == nil
}

// StartMetricsCollection updates the connection pool gauges
// periodically until the client is closed.
func (r *RedisRingClient) StartMetricsCollection() {
	go func() {
		ticker := time.NewTicker(r.options.ConnMetricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.updatePoolMetrics()
			case <-r.quit:
				return
			}
		}
	}()
}

func (r *RedisRingClient) updatePoolMetrics() {
	stats := r.ring.PoolStats()
	r.metrics.UpdateGauge(r.metricsPrefix+"hits", float64(stats.Hits))
	r.metrics.UpdateGauge(r.metricsPrefix+"idleconns", float64(stats.IdleConns))
	r.metrics.UpdateGauge(r.metricsPrefix+"misses", float64(stats.Misses))
	r.metrics.UpdateGauge(r.metricsPrefix+"staleconns", float64(stats.StaleConns))
	r.metrics.UpdateGauge(r.metricsPrefix+"timeouts", float64(stats.Timeouts))
	r.metrics.UpdateGauge(r.metricsPrefix+"totalconns", float64(stats.TotalConns))
}

// Close stops the metrics collection and closes the connections.
func (r *RedisRingClient) Close() error {
	if r == nil {
		return nil
	}

	var err error
	r.once.Do(func() {
		close(r.quit)
		err = r.ring.Close()
	})

	return err
}

// RunScript runs a Lua script, loading it into the shard on first use.
func (r *RedisRingClient) RunScript(ctx context.Context, s *redis.Script, keys []string, args ...any) (any, error) {
	return s.Run(ctx, r.ring, keys, args...).Result()
}

func (r *RedisRingClient) HSet(ctx context.Context, key, field string, value any) error {
	return r.ring.HSet(ctx, key, field, value).Err()
}

func (r *RedisRingClient) HDel(ctx context.Context, key, field string) (bool, error) {
	n, err := r.ring.HDel(ctx, key, field).Result()
	return n > 0, err
}

func (r *RedisRingClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.ring.HGetAll(ctx, key).Result()
}
