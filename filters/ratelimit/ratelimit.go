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

/*
Package ratelimit provides the RequestRateLimiter filter, limiting the
requests of a route with token buckets.

Every request takes requestedTokens from the bucket selected by the key
resolver, and the bucket is refilled with replenishRate tokens per
second, up to burstCapacity. When the bucket has not enough tokens, the
request is rejected with 429 Too Many Requests:

	filters:
	- name: RequestRateLimiter
	  args:
	    replenishRate: "10"
	    burstCapacity: "20"
	    keyResolver: header:Authorization

The supported key resolvers are remoteAddr, xForwardedFor, route,
header:<name> and query:<name>. When the key of a request is empty, the
request is rejected with the emptyKeyStatus, unless denyEmptyKey is
false.

The buckets are either local to the instance, or shared by the cluster
in Redis, selected by the limiter argument. When Redis fails, the
requests are let through.
*/
package ratelimit

import (
	"fmt"
	"maps"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/ratelimit"
)

const (
	Name = "RequestRateLimiter"

	LocalLimiter = "local"
	RedisLimiter = "redis"

	headersKey = "switchback:ratelimitHeaders"
)

const (
	replenishRateField   = "replenishRate"
	burstCapacityField   = "burstCapacity"
	requestedTokensField = "requestedTokens"
	keyResolverField     = "keyResolver"
	denyEmptyKeyField    = "denyEmptyKey"
	emptyKeyStatusField  = "emptyKeyStatus"
	statusCodeField      = "statusCode"
	limiterField         = "limiter"
	includeHeadersField  = "includeHeaders"
)

// Options of the filter spec.
type Options struct {

	// Local limits the requests in this instance. Defaults to a new
	// local limiter.
	Local ratelimit.Limiter

	// Cluster limits the requests across the instances. When set, it
	// is the default limiter of the filters.
	Cluster ratelimit.Limiter

	// DefaultKeyResolver is used when the filter does not set one.
	// Defaults to remoteAddr.
	DefaultKeyResolver string
}

type spec struct {
	options Options
}

type filter struct {
	routeID        string
	config         ratelimit.Config
	limiter        ratelimit.Limiter
	lookuper       Lookuper
	denyEmptyKey   bool
	emptyKeyStatus int
	statusCode     int
	includeHeaders bool
}

// New creates the RequestRateLimiter filter spec.
func New(o Options) filters.Spec {
	if o.Local == nil {
		o.Local = ratelimit.NewLocal(0)
	}

	if o.DefaultKeyResolver == "" {
		o.DefaultKeyResolver = RemoteAddrLookuper
	}

	return &spec{options: o}
}

func (*spec) Name() string { return Name }

func (*spec) ShortcutFieldOrder() []string {
	return []string{replenishRateField, burstCapacityField, requestedTokensField}
}

func (s *spec) limiter(name string) (ratelimit.Limiter, error) {
	switch name {
	case "":
		if s.options.Cluster != nil {
			return s.options.Cluster, nil
		}

		return s.options.Local, nil
	case LocalLimiter:
		return s.options.Local, nil
	case RedisLimiter:
		if s.options.Cluster == nil {
			return nil, filters.ErrInvalidFilterParameters
		}

		return s.options.Cluster, nil
	default:
		return nil, filters.ErrInvalidFilterParameters
	}
}

func (s *spec) CreateFilter(v *args.Values) (filters.Filter, error) {
	c := ratelimit.Config{
		ReplenishRate:   v.Int(replenishRateField),
		BurstCapacity:   v.OptionalInt(burstCapacityField, 0),
		RequestedTokens: v.OptionalInt(requestedTokensField, 0),
	}.WithDefaults()

	resolver := v.OptionalString(keyResolverField, s.options.DefaultKeyResolver)
	limiterName := v.OptionalString(limiterField, "")
	denyEmptyKey := v.OptionalBool(denyEmptyKeyField, true)
	emptyKeyStatus := v.OptionalString(emptyKeyStatusField, "FORBIDDEN")
	statusCode := v.OptionalString(statusCodeField, "TOO_MANY_REQUESTS")
	includeHeaders := v.OptionalBool(includeHeadersField, true)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	l, err := s.limiter(limiterName)
	if err != nil {
		return nil, fmt.Errorf("%w: limiter not available: %q", err, limiterName)
	}

	lookuper, err := parseLookuper(resolver, v.RouteID())
	if err != nil {
		return nil, err
	}

	f := &filter{
		routeID:        v.RouteID(),
		config:         c,
		limiter:        l,
		lookuper:       lookuper,
		denyEmptyKey:   denyEmptyKey,
		includeHeaders: includeHeaders,
	}

	if f.emptyKeyStatus, err = filters.ParseStatus(emptyKeyStatus); err != nil {
		return nil, err
	}

	if f.statusCode, err = filters.ParseStatus(statusCode); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *filter) Request(ctx filters.FilterContext) {
	key := f.lookuper.Lookup(ctx)
	if key == "" {
		if f.denyEmptyKey {
			filters.ServeStatus(ctx, f.emptyKeyStatus, nil)
		}

		return
	}

	rsp, err := f.limiter.Allow(ctx.Context(), f.routeID, key, f.config)
	if err != nil {
		log.Errorf("Failed to check the rate limit of route %s, letting the request through: %v", f.routeID, err)
		rsp = ratelimit.Response{Allowed: true, TokensLeft: -1}
	}

	var h http.Header
	if f.includeHeaders {
		h = rsp.Header(f.config)
	}

	if !rsp.Allowed {
		filters.ServeStatus(ctx, f.statusCode, h)
		return
	}

	if h != nil {
		ctx.StateBag()[headersKey] = h
	}
}

func (f *filter) Response(ctx filters.FilterContext) {
	h, ok := ctx.StateBag()[headersKey].(http.Header)
	rsp := ctx.Response()
	if !ok || rsp == nil {
		return
	}

	if rsp.Header == nil {
		rsp.Header = make(http.Header)
	}

	maps.Copy(rsp.Header, h)
}

func (f *filter) String() string {
	return fmt.Sprintf("%s: %s, keyResolver=%s", Name, f.config, f.lookuper)
}
