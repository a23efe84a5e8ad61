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
Package switchback provides an API gateway with flexible route
configuration and runtime update of the routing rules.

Switchback works as an HTTP reverse proxy, mapping incoming requests to
backend services, based on routes that are selected by the request
attributes. Both the requests and the responses can be augmented by a
filter chain that is defined for each route, combined with the global
filters that apply to every route.

# Quickstart

Create a file with a route:

	cat > routes.yaml <<EOT
	routes:
	- id: hello
	  uri: https://www.example.org
	  predicates:
	  - Path=/hello
	EOT

Start switchback and make an HTTP request:

	switchback -routes-file routes.yaml &
	curl localhost:9090/hello

# Routing Mechanism

The proxy receives the incoming request, and asks the routing for the
first matching route, in the order of the routes. When a route matches,
the request passes through the combined filter chain of the route:
the global filters and the route filters sorted by their order. When
no filter served the request, it is forwarded to the URI of the route.
The response passes through the same filters in reverse order.

Routes with the no://op URI don't have a backend. One of their filters
is expected to serve the response, e.g. SetStatus or RedirectTo.

For further details, see the proxy and routing package documentation.

# Matching Requests

A route matches when all of its predicates match. Routes without
predicates match every request. The predicates are created by specs
registered by name, see the predicates package. Among the built-in
predicates are Path, Host, Method, Header, Query, Cookie, After, Before,
Between, RemoteAddr, XForwardedRemoteAddr, Weight, ReadBody and Cron.

# Filters

Filters are created by specs registered by name, see the filters
package. Filters without an explicit order are ordered by their
position in the route definition, and run after the default filters of
the same position. The filters of the filters/builtin package don't
need external resources. RequestRateLimiter, LocalResponseCache,
CircuitBreaker and FlowId are registered by Run, with the shared
resources they need.

# Route Sources

Route definitions are loaded from the routes file, from inline route
documents, and from a writable repository that is managed through the
admin API. When Redis addresses are configured, the repository is a
Redis hash, shared by every instance of the gateway. The sources are
polled periodically, and can be refreshed on demand.

# Extending Switchback

Custom predicates, filters, global filters and route sources can be
passed in the Options of Run:

	switchback.Run(switchback.Options{
		Address:       ":9090",
		RoutesFile:    "routes.yaml",
		CustomFilters: []filters.Spec{myFilterSpec},
	})
*/
package switchback
