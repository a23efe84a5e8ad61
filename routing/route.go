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
Package routing compiles route definitions into routes, keeps the
current set of routes in an atomically replaced snapshot, and resolves
incoming requests to the first matching route.

# Route Definitions

Route definitions are loaded from one or more sources implementing
DefinitionSource. Every definition is compiled with the registered
predicate and filter specs: the predicates of a route are folded into a
single predicate with logical AND, in the order of declaration, and the
filters are created and sorted by their order. A route without
predicates matches every request.

A definition that fails to compile is dropped with a log line and an
invalid route metric, while the rest of the routes are still used.
Optionally, a single invalid definition can fail the whole refresh.

# Refresh

The compiled routes are sorted by their order, keeping the order of
the sources for equal values, and are published as an immutable
snapshot. A failed refresh keeps the previous snapshot. Every refresh,
successful or not, is reported to the subscribed observers, after the
snapshot was replaced.

A scoped refresh recompiles only the routes whose metadata contains the
given entries, and keeps the rest of the current routes.

# Request Evaluation

The resolver iterates over the routes of the current snapshot and
returns the first one whose predicate evaluates to true. A predicate
that fails, or panics, is logged and treated as not matching, and the
evaluation continues with the next route.

Pre-resolution hooks run before the evaluation. A hook can select a
route directly, by storing its id in the state bag of the exchange,
with the exchange.RouteIDKey key.
*/
package routing

import (
	"fmt"
	"net/url"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/predicates"
)

// RouteFilter contains extensions to generic filter interface, serving
// mainly logging/monitoring purpose.
type RouteFilter struct {
	filters.Filter

	// Name of the filter spec, or the name of a global filter.
	Name string

	// Args of the definition the filter was created from.
	Args eskip.Args

	// Order decides the position of the filter in the chain.
	Order int
}

// Route object with preprocessed filter instances.
type Route struct {

	// Id of the route definition.
	Id string

	// URI of the target. Its scheme can be symbolic, e.g. lb.
	URI *url.URL

	// Order of the route, lower sorts first.
	Order int

	// Predicate is the AND of the route's predicates, or Always.
	Predicate predicates.Predicate

	// Filters of the route, sorted by their order, including the
	// default filters.
	Filters []*RouteFilter

	// Metadata of the definition.
	Metadata map[string]any

	// Definition is the definition the route was compiled from. It
	// must not be modified.
	Definition *eskip.RouteDefinition
}

// Equal tells whether two routes were compiled from equal definitions.
func (r *Route) Equal(o *Route) bool {
	if r == nil || o == nil {
		return r == o
	}

	return r.Id == o.Id && eskip.Eq(r.Definition, o.Definition)
}

func (r *Route) String() string {
	return fmt.Sprintf("Route{id=%s, uri=%s, order=%d, predicate=%s, filters=%d}", r.Id, r.URI, r.Order, r.Predicate, len(r.Filters))
}

// MatchMetadata tells whether the route metadata contains every entry
// of md.
func MatchMetadata(routeMetadata, md map[string]any) bool {
	for k, v := range md {
		rv, ok := routeMetadata[k]
		if !ok || fmt.Sprint(rv) != fmt.Sprint(v) {
			return false
		}
	}

	return true
}
