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
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
	"github.com/switchback/switchback/predicates"
)

const defaultMaxLoadInterval = 30 * time.Second

// Options for initialization for routing.
type Options struct {

	// Sources of the route definitions. Multiple sources are merged
	// by route id.
	Sources []DefinitionSource

	// Predicates used to create the predicates of the routes.
	Predicates predicates.Registry

	// Filters used to create the filters of the routes.
	Filters filters.Registry

	// DefaultFilters are added to every route that does not disable
	// them.
	DefaultFilters []*eskip.FilterDefinition

	// FailOnRouteDefinitionError makes a single invalid definition
	// fail the whole refresh.
	FailOnRouteDefinitionError bool

	// PollInterval, when set, refreshes the routes periodically.
	PollInterval time.Duration

	// MaxLoadInterval limits the time between the retries of the
	// initial load. Defaults to 30s.
	MaxLoadInterval time.Duration

	// Hooks run before every route lookup.
	Hooks []Hook

	// Observers are notified about every refresh.
	Observers []RefreshObserver

	Log     logging.Logger
	Metrics metrics.Metrics
}

// Routing ties together the route compiler, the route cache and the
// resolver, and keeps the routes up to date in the background.
type Routing struct {
	options   Options
	log       logging.Logger
	compiler  *Compiler
	cache     *Cache
	resolver  *Resolver
	signal    chan struct{}
	firstLoad chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New initializes a routing instance, and starts loading the routes in
// the background. The initial load is retried with a backoff until it
// succeeds or the routing is closed.
func New(o Options) *Routing {
	if o.Log == nil {
		o.Log = logging.New("routing")
	}

	if o.Metrics == nil {
		o.Metrics = metrics.Default
	}

	if o.MaxLoadInterval <= 0 {
		o.MaxLoadInterval = defaultMaxLoadInterval
	}

	var source DefinitionSource
	if len(o.Sources) == 1 {
		source = o.Sources[0]
	} else {
		source = Composite(o.Log, o.Sources...)
	}

	compiler := NewCompiler(CompilerOptions{
		Source:                     source,
		Predicates:                 o.Predicates,
		Filters:                    o.Filters,
		DefaultFilters:             o.DefaultFilters,
		FailOnRouteDefinitionError: o.FailOnRouteDefinitionError,
		Log:                        o.Log,
		Metrics:                    o.Metrics,
	})

	cache := NewCache(compiler, CacheOptions{
		Observers: o.Observers,
		Log:       o.Log,
		Metrics:   o.Metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r := &Routing{
		options:   o,
		log:       o.Log,
		compiler:  compiler,
		cache:     cache,
		resolver:  NewResolver(ResolverOptions{Table: cache, Hooks: o.Hooks, Log: o.Log, Metrics: o.Metrics}),
		signal:    make(chan struct{}, 1),
		firstLoad: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go r.run()
	return r
}

func (r *Routing) loadInitial() bool {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = r.options.MaxLoadInterval

	_, err := backoff.Retry(r.ctx, func() (struct{}, error) {
		return struct{}{}, r.cache.Refresh(r.ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warnf("Initial route load failed, retrying in %v: %v", next, err)
		}),
	)

	return err == nil
}

func (r *Routing) run() {
	defer close(r.done)

	if !r.loadInitial() {
		return
	}

	close(r.firstLoad)

	var poll <-chan time.Time
	if r.options.PollInterval > 0 {
		t := time.NewTicker(r.options.PollInterval)
		defer t.Stop()
		poll = t.C
	}

	for {
		select {
		case <-r.signal:
		case <-poll:
		case <-r.ctx.Done():
			return
		}

		// failures are logged and reported to the observers by the cache
		r.cache.Refresh(r.ctx)
	}
}

// Resolve returns the route for the exchange. See Resolver.Resolve.
func (r *Routing) Resolve(e exchange.Exchange) (*Route, error) {
	return r.resolver.Resolve(e)
}

// Refresh reloads the routes synchronously.
func (r *Routing) Refresh(ctx context.Context) error {
	return r.cache.Refresh(ctx)
}

// RefreshScoped reloads the routes with matching metadata
// synchronously.
func (r *Routing) RefreshScoped(ctx context.Context, md map[string]any) error {
	return r.cache.RefreshScoped(ctx, md)
}

// Signal requests a refresh in the background. Signals received while
// a refresh is pending are coalesced.
func (r *Routing) Signal() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Snapshot returns the current snapshot.
func (r *Routing) Snapshot() *Snapshot { return r.cache.Snapshot() }

// Routes returns the current routes.
func (r *Routing) Routes() []*Route { return r.cache.Routes() }

// Route returns the current route with id.
func (r *Routing) Route(id string) (*Route, bool) { return r.cache.Route(id) }

// Compile compiles a definition with the registries of the routing,
// without adding it to the routes.
func (r *Routing) Compile(def *eskip.RouteDefinition) (*Route, error) {
	return r.compiler.Compile(def)
}

// Subscribe registers an observer for the subsequent refreshes.
func (r *Routing) Subscribe(o RefreshObserver) { r.cache.Subscribe(o) }

// FirstLoad is closed when the initial load of the routes succeeded.
func (r *Routing) FirstLoad() <-chan struct{} { return r.firstLoad }

// Close stops the background refresh, and waits for it to return.
func (r *Routing) Close() {
	r.closeOnce.Do(func() {
		r.cancel()
		<-r.done
	})
}
