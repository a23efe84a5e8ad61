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
Package proxy implements the HTTP handler that resolves the route of
every incoming request, runs its filter chain, and forwards the request
to the backend of the route.

# Filter Chain

The chain of a route is made of the global filters and the filters of
the route, sorted by their order. The global filters without an
explicit order are placed after every ordered filter. For equal orders,
the global filters come first, and the position in the declaration is
kept.

The chain of a route can be cached until the next successful route
refresh.

The request phase runs the filters in order, until one of them serves
a response. When none of them did, the request is forwarded to the
backend. Then the response phase runs in reverse order, for those
filters whose request phase ran. Every filter runs at most once per
phase.

A filter that panics is logged, and the request is served with 500
Internal Server Error.

# Errors

Requests without a matching route get 404 Not Found. When the backend
cannot be reached, the response is 502 Bad Gateway, and when it does
not respond in time, 504 Gateway Timeout. When the client goes away,
nothing is written.
*/
package proxy
