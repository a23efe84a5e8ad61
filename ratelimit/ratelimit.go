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
	"fmt"
	"net/http"
	"strconv"
)

const (
	RemainingHeader       = "X-RateLimit-Remaining"
	ReplenishRateHeader   = "X-RateLimit-Replenish-Rate"
	BurstCapacityHeader   = "X-RateLimit-Burst-Capacity"
	RequestedTokensHeader = "X-RateLimit-Requested-Tokens"
)

// Config of a bucket.
type Config struct {

	// ReplenishRate is the number of tokens added to the bucket every
	// second.
	ReplenishRate int

	// BurstCapacity is the maximum number of tokens in the bucket.
	// Defaults to ReplenishRate.
	BurstCapacity int

	// RequestedTokens is the number of tokens taken by a request.
	// Defaults to 1.
	RequestedTokens int
}

// WithDefaults returns the config with the defaults applied.
func (c Config) WithDefaults() Config {
	if c.BurstCapacity == 0 {
		c.BurstCapacity = c.ReplenishRate
	}

	if c.RequestedTokens == 0 {
		c.RequestedTokens = 1
	}

	return c
}

// Validate checks the config, after the defaults were applied.
func (c Config) Validate() error {
	switch {
	case c.ReplenishRate <= 0:
		return fmt.Errorf("replenish rate must be positive, got %d", c.ReplenishRate)
	case c.BurstCapacity < c.ReplenishRate:
		return fmt.Errorf("burst capacity (%d) must be greater than or equal to the replenish rate (%d)", c.BurstCapacity, c.ReplenishRate)
	case c.RequestedTokens <= 0:
		return fmt.Errorf("requested tokens must be positive, got %d", c.RequestedTokens)
	default:
		return nil
	}
}

func (c Config) String() string {
	return fmt.Sprintf("replenishRate=%d,burstCapacity=%d,requestedTokens=%d", c.ReplenishRate, c.BurstCapacity, c.RequestedTokens)
}

// Response is the decision of a limiter.
type Response struct {
	Allowed bool

	// TokensLeft is -1 when it is unknown.
	TokensLeft int64
}

// Header returns the headers describing the state of the bucket.
func (r Response) Header(c Config) http.Header {
	h := make(http.Header)
	h.Set(RemainingHeader, strconv.FormatInt(r.TokensLeft, 10))
	h.Set(ReplenishRateHeader, strconv.Itoa(c.ReplenishRate))
	h.Set(BurstCapacityHeader, strconv.Itoa(c.BurstCapacity))
	h.Set(RequestedTokensHeader, strconv.Itoa(c.RequestedTokens))
	return h
}

// Limiter decides whether a request identified by the route id and the
// key is allowed.
type Limiter interface {
	Allow(ctx context.Context, routeID, key string, c Config) (Response, error)
}
