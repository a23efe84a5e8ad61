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

package routing

import (
	"fmt"
	"time"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
)

// HandlerMapperName is stored in the state bag with the
// exchange.HandlerMapperKey key, when a request is resolved.
const HandlerMapperName = "RoutePredicateHandlerMapping"

// Hook is called before the routes are evaluated. It can select a route
// directly, by storing its id with exchange.RouteIDKey.
type Hook interface {
	BeforeResolve(exchange.Exchange)
}

// HookFunc adapts ordinary functions to the Hook interface.
type HookFunc func(exchange.Exchange)

func (f HookFunc) BeforeResolve(e exchange.Exchange) { f(e) }

// Table provides the current routes.
type Table interface {
	Snapshot() *Snapshot
}

// ResolverOptions are used to initialize the resolver.
type ResolverOptions struct {
	Table   Table
	Hooks   []Hook
	Log     logging.Logger
	Metrics metrics.Metrics
}

// Resolver finds the route of a request.
type Resolver struct {
	table   Table
	hooks   []Hook
	log     logging.Logger
	metrics metrics.Metrics
}

func NewResolver(o ResolverOptions) *Resolver {
	r := &Resolver{
		table:   o.Table,
		hooks:   o.Hooks,
		log:     o.Log,
		metrics: o.Metrics,
	}

	if r.log == nil {
		r.log = logging.New("routing")
	}

	if r.metrics == nil {
		r.metrics = metrics.Default
	}

	return r
}

func (r *Resolver) evaluate(rt *Route, e exchange.Exchange) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ok, err = false, fmt.Errorf("predicate panic: %v", p)
		}
	}()

	return rt.Predicate.Evaluate(e)
}

func (r *Resolver) runHooks(e exchange.Exchange) {
	for _, h := range r.hooks {
		func() {
			defer func() {
				if err := recover(); err != nil {
					r.log.Errorf("Pre-resolution hook panic: %v", err)
				}
			}()

			h.BeforeResolve(e)
		}()
	}
}

func matched(e exchange.Exchange, rt *Route) *Route {
	e.StateBag()[exchange.RouteKey] = rt
	return rt
}

// Resolve returns the first route of the current snapshot that matches
// the exchange, and stores it in the state bag with exchange.RouteKey.
//
// It returns ErrNoRoute when no route matched, and the error of the
// request context when the request was canceled.
func (r *Resolver) Resolve(e exchange.Exchange) (*Route, error) {
	start := time.Now()
	defer r.metrics.MeasureRouteLookup(start)

	e.StateBag()[exchange.HandlerMapperKey] = HandlerMapperName
	r.runHooks(e)

	snapshot := r.table.Snapshot()
	if id, ok := e.StateBag()[exchange.RouteIDKey].(string); ok && id != "" {
		if rt, ok := snapshot.Route(id); ok {
			return matched(e, rt), nil
		}

		r.log.Debugf("Route %s selected by a hook does not exist", id)
		r.metrics.IncRoutingFailures()
		return nil, ErrNoRoute
	}

	for _, rt := range snapshot.Routes() {
		if err := e.Context().Err(); err != nil {
			return nil, err
		}

		e.StateBag()[exchange.PredicateRouteKey] = rt.Id
		ok, err := r.evaluate(rt, e)
		if err != nil {
			if cerr := e.Context().Err(); cerr != nil {
				return nil, cerr
			}

			r.log.Errorf("Error applying predicate for route %s: %v", rt.Id, err)
			r.metrics.IncPredicateErrors(rt.Id)
			continue
		}

		if ok {
			return matched(e, rt), nil
		}
	}

	r.metrics.IncRoutingFailures()
	return nil, ErrNoRoute
}
