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
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const DefaultLocalBuckets = 10_000

type bucketKey struct {
	routeID string
	key     string
	config  Config
}

// Local keeps the buckets in memory. The least recently used buckets
// are dropped when the configured number of buckets is reached, and
// they start over full.
type Local struct {
	mu      sync.Mutex
	buckets *lru.Cache[bucketKey, *rate.Limiter]
	now     func() time.Time
}

var _ Limiter = (*Local)(nil)

// NewLocal creates a local limiter. Size limits the number of buckets,
// defaults to DefaultLocalBuckets.
func NewLocal(size int) *Local {
	if size <= 0 {
		size = DefaultLocalBuckets
	}

	buckets, err := lru.New[bucketKey, *rate.Limiter](size)
	if err != nil {
		// only fails for non-positive sizes
		panic(err)
	}

	return &Local{buckets: buckets, now: time.Now}
}

func (l *Local) bucket(k bucketKey) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets.Get(k); ok {
		return b
	}

	b := rate.NewLimiter(rate.Limit(k.config.ReplenishRate), k.config.BurstCapacity)
	l.buckets.Add(k, b)
	return b
}

// Allow takes the requested tokens from the bucket, if there are
// enough.
func (l *Local) Allow(_ context.Context, routeID, key string, c Config) (Response, error) {
	c = c.WithDefaults()
	b := l.bucket(bucketKey{routeID: routeID, key: key, config: c})

	now := l.now()
	allowed := b.AllowN(now, c.RequestedTokens)
	return Response{Allowed: allowed, TokensLeft: int64(b.TokensAt(now))}, nil
}

// Len returns the number of buckets.
func (l *Local) Len() int {
	return l.buckets.Len()
}
