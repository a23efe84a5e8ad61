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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/filters/filtertest"
	"github.com/switchback/switchback/net"
	"github.com/switchback/switchback/net/redistest"
	"github.com/switchback/switchback/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, string, ratelimit.Config) (ratelimit.Response, error) {
	return ratelimit.Response{}, errors.New("unavailable")
}

type recordingLimiter struct {
	keys []string
}

func (l *recordingLimiter) Allow(_ context.Context, routeID, key string, _ ratelimit.Config) (ratelimit.Response, error) {
	l.keys = append(l.keys, routeID+"/"+key)
	return ratelimit.Response{Allowed: true, TokensLeft: 1}, nil
}

func create(t *testing.T, o Options, a ...string) filters.Filter {
	t.Helper()
	f, err := filtertest.Create(New(o), &eskip.FilterDefinition{Name: Name, Args: eskip.Named(a...)})
	require.NoError(t, err)
	return f
}

func run(f filters.Filter, r *http.Request) *http.Response {
	ctx := filtertest.NewContext(r)
	filtertest.Run(ctx, filtertest.Respond(http.StatusOK), f)
	return ctx.Response()
}

func TestCreateFilter(t *testing.T) {
	for _, tc := range []struct {
		msg      string
		shortcut string
		fail     bool
	}{
		{msg: "rate only", shortcut: "RequestRateLimiter=10"},
		{msg: "rate and burst", shortcut: "RequestRateLimiter=10, 20"},
		{msg: "all positional", shortcut: "RequestRateLimiter=10, 20, 2"},
		{msg: "missing rate", shortcut: "RequestRateLimiter", fail: true},
		{msg: "zero rate", shortcut: "RequestRateLimiter=0", fail: true},
		{msg: "burst below rate", shortcut: "RequestRateLimiter=10, 5", fail: true},
		{msg: "not a number", shortcut: "RequestRateLimiter=ten", fail: true},
		{msg: "too many arguments", shortcut: "RequestRateLimiter=1, 2, 3, 4", fail: true},
	} {
		t.Run(tc.msg, func(t *testing.T) {
			_, err := filtertest.ParseErr(New(Options{}), tc.shortcut)
			if tc.fail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateFilterInvalidNamedArgs(t *testing.T) {
	for _, a := range [][]string{
		{"replenishRate", "1", "keyResolver", "cookie:session"},
		{"replenishRate", "1", "keyResolver", "header:"},
		{"replenishRate", "1", "limiter", "redis"},
		{"replenishRate", "1", "limiter", "memcached"},
		{"replenishRate", "1", "statusCode", "NOT_A_STATUS"},
		{"replenishRate", "1", "emptyKeyStatus", "700"},
		{"replenishRate", "1", "denyEmptyKey", "maybe"},
	} {
		_, err := filtertest.Create(New(Options{}), &eskip.FilterDefinition{Name: Name, Args: eskip.Named(a...)})
		assert.Error(t, err, a)
	}
}

func TestBurst(t *testing.T) {
	f := filtertest.Parse(t, New(Options{}), "RequestRateLimiter=1, 2")

	r := httptest.NewRequest("GET", "/", nil)
	for i := range 2 {
		rsp := run(f, r)
		require.Equal(t, http.StatusOK, rsp.StatusCode, i)
		assert.Equal(t, "2", rsp.Header.Get(ratelimit.BurstCapacityHeader))
		assert.Equal(t, "1", rsp.Header.Get(ratelimit.ReplenishRateHeader))
		assert.Equal(t, "1", rsp.Header.Get(ratelimit.RequestedTokensHeader))
	}

	rsp := run(f, r)
	assert.Equal(t, http.StatusTooManyRequests, rsp.StatusCode)
	assert.Equal(t, "0", rsp.Header.Get(ratelimit.RemainingHeader))
}

func TestClientsHaveSeparateBuckets(t *testing.T) {
	f := filtertest.Parse(t, New(Options{}), "RequestRateLimiter=1")

	r1 := httptest.NewRequest("GET", "/", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.RemoteAddr = "10.0.0.2:1234"

	assert.Equal(t, http.StatusOK, run(f, r1).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, run(f, r1).StatusCode)
	assert.Equal(t, http.StatusOK, run(f, r2).StatusCode)
}

func TestKeyResolvers(t *testing.T) {
	r := httptest.NewRequest("GET", "/foo?user=alice", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "192.168.1.1, 172.16.0.1")
	r.Header.Set("Authorization", "Bearer token")

	for _, tc := range []struct {
		resolver string
		key      string
	}{
		{RemoteAddrLookuper, "10.0.0.1"},
		{XForwardedForLookuper, "172.16.0.1"},
		{RouteLookuper, filtertest.RouteID},
		{"header:authorization", "Bearer token"},
		{"query:user", "alice"},
	} {
		t.Run(tc.resolver, func(t *testing.T) {
			l := &recordingLimiter{}
			f := create(t, Options{Local: l}, "replenishRate", "1", "keyResolver", tc.resolver)
			run(f, r)
			assert.Equal(t, []string{filtertest.RouteID + "/" + tc.key}, l.keys)
		})
	}
}

func TestEmptyKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	f := create(t, Options{}, "replenishRate", "1", "keyResolver", "header:X-User")
	assert.Equal(t, http.StatusForbidden, run(f, r).StatusCode)

	f = create(t, Options{}, "replenishRate", "1", "keyResolver", "header:X-User", "emptyKeyStatus", "UNAUTHORIZED")
	assert.Equal(t, http.StatusUnauthorized, run(f, r).StatusCode)

	l := &recordingLimiter{}
	f = create(t, Options{Local: l}, "replenishRate", "1", "keyResolver", "header:X-User", "denyEmptyKey", "false")
	assert.Equal(t, http.StatusOK, run(f, r).StatusCode)
	assert.Empty(t, l.keys)
}

func TestCustomStatusCode(t *testing.T) {
	f := create(t, Options{}, "replenishRate", "1", "statusCode", "503")
	r := httptest.NewRequest("GET", "/", nil)
	run(f, r)
	assert.Equal(t, http.StatusServiceUnavailable, run(f, r).StatusCode)
}

func TestWithoutHeaders(t *testing.T) {
	f := create(t, Options{}, "replenishRate", "1", "includeHeaders", "false")
	rsp := run(f, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Empty(t, rsp.Header.Get(ratelimit.RemainingHeader))
}

func TestFailOpen(t *testing.T) {
	f := create(t, Options{Cluster: failingLimiter{}}, "replenishRate", "1")
	r := httptest.NewRequest("GET", "/", nil)
	for range 3 {
		rsp := run(f, r)
		assert.Equal(t, http.StatusOK, rsp.StatusCode)
		assert.Equal(t, "-1", rsp.Header.Get(ratelimit.RemainingHeader))
	}
}

func TestLimiterSelection(t *testing.T) {
	local, cluster := &recordingLimiter{}, &recordingLimiter{}
	o := Options{Local: local, Cluster: cluster}
	r := httptest.NewRequest("GET", "/", nil)

	run(create(t, o, "replenishRate", "1"), r)
	run(create(t, o, "replenishRate", "1", "limiter", "redis"), r)
	run(create(t, o, "replenishRate", "1", "limiter", "local"), r)

	assert.Len(t, cluster.keys, 2)
	assert.Len(t, local.keys, 1)
}

func TestRedisLimiter(t *testing.T) {
	addr, done := redistest.NewTestRedis(t)
	defer done()

	client := net.NewRedisRingClient(net.RedisOptions{Addrs: []string{addr}})
	defer client.Close()

	f := create(t, Options{Cluster: ratelimit.NewRedis(client, nil)}, "replenishRate", "1", "burstCapacity", "2")

	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, http.StatusOK, run(f, r).StatusCode)
	assert.Equal(t, http.StatusOK, run(f, r).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, run(f, r).StatusCode)
}
