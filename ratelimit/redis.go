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

package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/switchback/switchback/metrics"
	"github.com/switchback/switchback/net"
)

const (
	keyPrefix = "request_rate_limiter"

	redisMetricsPrefix = "ratelimit.redis."
	allowMetricsFormat = redisMetricsPrefix + "query.allow.%s"
)

//go:embed token_bucket.lua
var tokenBucketSource string

var tokenBucketScript = redis.NewScript(tokenBucketSource)

// Redis keeps the buckets in Redis.
type Redis struct {
	client  *net.RedisRingClient
	metrics metrics.Metrics
	now     func() time.Time
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a limiter using the provided client. The metrics can
// be nil.
func NewRedis(client *net.RedisRingClient, m metrics.Metrics) *Redis {
	if m == nil {
		m = metrics.Default
	}

	return &Redis{client: client, metrics: m, now: time.Now}
}

// keys uses a hash tag, so that the two keys of a bucket are always
// stored on the same shard.
func keys(routeID, key string) []string {
	prefix := fmt.Sprintf("%s.{%s.%s}", keyPrefix, routeID, key)
	return []string{prefix + ".tokens", prefix + ".timestamp"}
}

func (r *Redis) measure(start time.Time, failed bool) {
	result := "success"
	if failed {
		result = "failure"
	}

	r.metrics.MeasureSince(fmt.Sprintf(allowMetricsFormat, result), start)
}

func toInt64(v any) (int64, bool) {
	switch vi := v.(type) {
	case int64:
		return vi, true
	case string:
		i, err := strconv.ParseInt(vi, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Allow runs the token bucket script. On errors, the request is
// allowed, and the error is returned.
func (r *Redis) Allow(ctx context.Context, routeID, key string, c Config) (Response, error) {
	c = c.WithDefaults()
	r.metrics.IncCounter(redisMetricsPrefix + "total")

	start := time.Now()
	res, err := r.client.RunScript(
		ctx,
		tokenBucketScript,
		keys(routeID, key),
		c.ReplenishRate,
		c.BurstCapacity,
		r.now().UnixMilli(),
		c.RequestedTokens,
	)

	if err != nil {
		r.measure(start, true)
		return Response{Allowed: true, TokensLeft: -1}, fmt.Errorf("failed to run the rate limit script: %w", err)
	}

	values, ok := res.([]any)
	if !ok || len(values) != 2 {
		r.measure(start, true)
		return Response{Allowed: true, TokensLeft: -1}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	allowed, ok1 := toInt64(values[0])
	left, ok2 := toInt64(values[1])
	if !ok1 || !ok2 {
		r.measure(start, true)
		return Response{Allowed: true, TokensLeft: -1}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	r.measure(start, false)
	return Response{Allowed: allowed == 1, TokensLeft: left}, nil
}
