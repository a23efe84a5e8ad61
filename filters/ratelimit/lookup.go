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
	"fmt"
	"net/http"
	"strings"

	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/net"
)

// Lookuper names of the keyResolver argument.
const (
	RemoteAddrLookuper    = "remoteAddr"
	XForwardedForLookuper = "xForwardedFor"
	RouteLookuper         = "route"
	HeaderLookuperPrefix  = "header:"
	QueryLookuperPrefix   = "query:"
)

// Lookuper returns the key of the bucket that a request is counted
// against. An empty key means that the request cannot be identified.
type Lookuper interface {
	Lookup(filters.FilterContext) string
	fmt.Stringer
}

type remoteAddrLookuper struct{}

func (remoteAddrLookuper) Lookup(ctx filters.FilterContext) string {
	addr := net.RemoteAddr(ctx.Request())
	if !addr.IsValid() {
		return ""
	}

	return addr.String()
}

func (remoteAddrLookuper) String() string { return RemoteAddrLookuper }

// xForwardedForLookuper trusts the closest proxy only.
type xForwardedForLookuper struct{}

func (xForwardedForLookuper) Lookup(ctx filters.FilterContext) string {
	addr := net.ForwardedAddr(ctx.Request(), 1)
	if !addr.IsValid() {
		return ""
	}

	return addr.String()
}

func (xForwardedForLookuper) String() string { return XForwardedForLookuper }

// routeLookuper counts all the requests of the route in a single
// bucket.
type routeLookuper struct{ routeID string }

func (l routeLookuper) Lookup(filters.FilterContext) string { return l.routeID }
func (routeLookuper) String() string                        { return RouteLookuper }

type headerLookuper struct{ name string }

func (l headerLookuper) Lookup(ctx filters.FilterContext) string {
	return ctx.Request().Header.Get(l.name)
}

func (l headerLookuper) String() string { return HeaderLookuperPrefix + l.name }

type queryLookuper struct{ name string }

func (l queryLookuper) Lookup(ctx filters.FilterContext) string {
	return ctx.Request().URL.Query().Get(l.name)
}

func (l queryLookuper) String() string { return QueryLookuperPrefix + l.name }

func parseLookuper(s, routeID string) (Lookuper, error) {
	switch {
	case s == RemoteAddrLookuper:
		return remoteAddrLookuper{}, nil
	case s == XForwardedForLookuper:
		return xForwardedForLookuper{}, nil
	case s == RouteLookuper:
		return routeLookuper{routeID: routeID}, nil
	case strings.HasPrefix(s, HeaderLookuperPrefix) && len(s) > len(HeaderLookuperPrefix):
		return headerLookuper{name: http.CanonicalHeaderKey(s[len(HeaderLookuperPrefix):])}, nil
	case strings.HasPrefix(s, QueryLookuperPrefix) && len(s) > len(QueryLookuperPrefix):
		return queryLookuper{name: s[len(QueryLookuperPrefix):]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown key resolver: %s", filters.ErrInvalidFilterParameters, s)
	}
}
