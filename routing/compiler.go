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
	"context"
	"fmt"
	"net/url"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
	"github.com/switchback/switchback/predicates"
)

// Locator provides the compiled routes for the route cache.
type Locator interface {
	Routes(context.Context) ([]*Route, error)

	// RoutesByMetadata returns the routes whose metadata contains
	// every entry of md.
	RoutesByMetadata(ctx context.Context, md map[string]any) ([]*Route, error)
}

// CompilerOptions are used to initialize the route compiler.
type CompilerOptions struct {

	// Source of the route definitions.
	Source DefinitionSource

	// Predicates used to create the predicates of the routes.
	Predicates predicates.Registry

	// Filters used to create the filters of the routes.
	Filters filters.Registry

	// DefaultFilters are added to every route, before the route's
	// own filters, unless the route disables them.
	DefaultFilters []*eskip.FilterDefinition

	// FailOnRouteDefinitionError makes a single invalid definition
	// fail the whole compilation. By default, the invalid routes are
	// dropped.
	FailOnRouteDefinitionError bool

	Log     logging.Logger
	Metrics metrics.Metrics
}

// Compiler turns route definitions into routes.
type Compiler struct {
	options CompilerOptions
	log     logging.Logger
	metrics metrics.Metrics
}

var _ Locator = (*Compiler)(nil)

func NewCompiler(o CompilerOptions) *Compiler {
	if o.Predicates == nil {
		o.Predicates = make(predicates.Registry)
	}

	if o.Filters == nil {
		o.Filters = make(filters.Registry)
	}

	c := &Compiler{options: o, log: o.Log, metrics: o.Metrics}
	if c.log == nil {
		c.log = logging.New("routing")
	}

	if c.metrics == nil {
		c.metrics = metrics.Default
	}

	return c
}

func (c *Compiler) createPredicate(routeID string, def *eskip.PredicateDefinition) (*predicates.Leaf, error) {
	spec, ok := c.options.Predicates.Get(def.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownPredicate, def.Name)
	}

	v := args.Bind(routeID, def.Args, spec)
	p, err := spec.Create(v)
	if err == nil {
		err = v.Err()
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errInvalidPredicateParams, def.Name, err)
	}

	return predicates.NewLeaf(def, p), nil
}

func (c *Compiler) createPredicates(routeID string, defs []*eskip.PredicateDefinition) (predicates.Predicate, error) {
	ps := make([]predicates.Predicate, 0, len(defs))
	for _, def := range defs {
		p, err := c.createPredicate(routeID, def)
		if err != nil {
			return nil, err
		}

		ps = append(ps, p)
	}

	return predicates.AndAll(ps...), nil
}

func (c *Compiler) createFilter(routeID string, def *eskip.FilterDefinition) (filters.Filter, error) {
	spec, ok := c.options.Filters.Get(def.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownFilter, def.Name)
	}

	v := args.Bind(routeID, def.Args, spec)
	f, err := spec.CreateFilter(v)
	if err == nil {
		err = v.Err()
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errInvalidFilterParams, def.Name, err)
	}

	return f, nil
}

// the filters without an explicit order are ordered by their position
// in their own list, starting from 1
func (c *Compiler) createFilters(routeID string, defs []*eskip.FilterDefinition) ([]*RouteFilter, error) {
	fs := make([]*RouteFilter, 0, len(defs))
	for i, def := range defs {
		f, err := c.createFilter(routeID, def)
		if err != nil {
			return nil, err
		}

		order, ok := filters.OrderOf(f)
		if !ok {
			order = i + 1
		}

		fs = append(fs, &RouteFilter{Filter: f, Name: def.Name, Args: def.Args, Order: order})
	}

	return fs, nil
}

func parseURI(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidURI, err)
	}

	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: scheme missing: %q", errInvalidURI, s)
	}

	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, fmt.Errorf("%w: host missing: %q", errInvalidURI, s)
	}

	return u, nil
}

// Compile creates a route from a single definition.
func (c *Compiler) Compile(def *eskip.RouteDefinition) (*Route, error) {
	if def.Id == "" {
		return nil, errMissingID
	}

	u, err := parseURI(def.URI)
	if err != nil {
		return nil, err
	}

	p, err := c.createPredicates(def.Id, def.Predicates)
	if err != nil {
		return nil, err
	}

	var fs []*RouteFilter
	if !def.DisableDefaultFilters {
		fs, err = c.createFilters(def.Id, c.options.DefaultFilters)
		if err != nil {
			return nil, err
		}
	}

	rfs, err := c.createFilters(def.Id, def.Filters)
	if err != nil {
		return nil, err
	}

	fs = append(fs, rfs...)
	filters.SortStable(fs, func(f *RouteFilter) int { return f.Order })

	return &Route{
		Id:         def.Id,
		URI:        u,
		Order:      def.Order,
		Predicate:  p,
		Filters:    fs,
		Metadata:   def.Metadata,
		Definition: def,
	}, nil
}

func (c *Compiler) compileAll(defs []*eskip.RouteDefinition) ([]*Route, error) {
	routes := make([]*Route, 0, len(defs))
	for _, def := range defs {
		r, err := c.Compile(def)
		if err != nil {
			err = HandleValidationError(c.metrics, err, def.Id)
			if c.options.FailOnRouteDefinitionError {
				return nil, fmt.Errorf("failed to compile route %q: %w", def.Id, err)
			}

			c.log.Warnf("Dropping route %q, failed to compile: %v", def.Id, err)
			continue
		}

		c.metrics.DeleteInvalidRoute(def.Id)
		routes = append(routes, r)
	}

	return routes, nil
}

// Routes loads the definitions from the source and compiles them, in
// the order of the source.
func (c *Compiler) Routes(ctx context.Context) ([]*Route, error) {
	defs, err := c.options.Source.RouteDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	return c.compileAll(defs)
}

// RoutesByMetadata is like Routes, but compiles only the definitions
// whose metadata contains every entry of md.
func (c *Compiler) RoutesByMetadata(ctx context.Context, md map[string]any) ([]*Route, error) {
	defs, err := c.options.Source.RouteDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	var scoped []*eskip.RouteDefinition
	for _, def := range defs {
		if MatchMetadata(def.Metadata, md) {
			scoped = append(scoped, def)
		}
	}

	return c.compileAll(scoped)
}
