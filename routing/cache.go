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
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
)

// Snapshot is an immutable set of routes, sorted by their order.
type Snapshot struct {
	routes []*Route
	byID   map[string]*Route

	// Generation is incremented with every successful refresh.
	Generation uint64

	// Created is the time of the refresh that produced the snapshot.
	Created time.Time
}

func newSnapshot(routes []*Route, generation uint64) *Snapshot {
	byID := make(map[string]*Route, len(routes))
	for _, r := range routes {
		byID[r.Id] = r
	}

	return &Snapshot{
		routes:     routes,
		byID:       byID,
		Generation: generation,
		Created:    time.Now(),
	}
}

// Routes returns the routes of the snapshot. The returned slice must
// not be modified.
func (s *Snapshot) Routes() []*Route { return s.routes }

// Route returns the route with id.
func (s *Snapshot) Route(id string) (*Route, bool) {
	r, ok := s.byID[id]
	return r, ok
}

func (s *Snapshot) Len() int { return len(s.routes) }

// CacheOptions are used to initialize the route cache.
type CacheOptions struct {
	Observers []RefreshObserver
	Log       logging.Logger
	Metrics   metrics.Metrics
}

// Cache holds the current snapshot of the routes. Reads never block,
// refreshes are serialized.
type Cache struct {
	locator Locator
	log     logging.Logger
	metrics metrics.Metrics

	current atomic.Pointer[Snapshot]

	// serializes the refreshes
	mu sync.Mutex

	obsMu     sync.Mutex
	observers []RefreshObserver
}

// NewCache creates a route cache, with an empty initial snapshot.
func NewCache(l Locator, o CacheOptions) *Cache {
	c := &Cache{
		locator:   l,
		log:       o.Log,
		metrics:   o.Metrics,
		observers: slices.Clone(o.Observers),
	}

	if c.log == nil {
		c.log = logging.New("routing")
	}

	if c.metrics == nil {
		c.metrics = metrics.Default
	}

	c.current.Store(newSnapshot(nil, 0))
	return c
}

// Snapshot returns the current snapshot.
func (c *Cache) Snapshot() *Snapshot { return c.current.Load() }

// Routes returns the current routes.
func (c *Cache) Routes() []*Route { return c.Snapshot().Routes() }

// Route returns the current route with id.
func (c *Cache) Route(id string) (*Route, bool) { return c.Snapshot().Route(id) }

// Subscribe registers an observer for the subsequent refreshes. It can
// be called from an observer, too.
func (c *Cache) Subscribe(o RefreshObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

func sortRoutes(routes []*Route) {
	slices.SortStableFunc(routes, func(a, b *Route) int { return cmp.Compare(a.Order, b.Order) })
}

func (c *Cache) notify(e RefreshEvent) {
	c.obsMu.Lock()
	observers := slices.Clone(c.observers)
	c.obsMu.Unlock()

	for _, o := range observers {
		func() {
			defer func() {
				if err := recover(); err != nil {
					c.log.Errorf("Refresh observer panic: %v", err)
				}
			}()

			o.OnRefresh(e)
		}()
	}
}

func (c *Cache) failed(start time.Time, e RefreshEvent) error {
	c.metrics.MeasureRefresh(false, start)
	c.log.Errorf("Failed to refresh routes, keeping %d routes: %v", e.Snapshot.Len(), e.Err)
	c.notify(e)
	return e.Err
}

func (c *Cache) publish(start time.Time, routes []*Route, e RefreshEvent) {
	sortRoutes(routes)
	prev := c.Snapshot()
	next := newSnapshot(routes, prev.Generation+1)
	c.current.Store(next)

	c.metrics.MeasureRefresh(true, start)
	c.metrics.SetRoutes(next.Len())
	c.log.Infof("Routes refreshed, generation %d, %d routes", next.Generation, next.Len())

	e.Snapshot = next
	c.notify(e)
}

// Refresh loads and compiles every route, and replaces the current
// snapshot. On failure, the current snapshot is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	routes, err := c.locator.Routes(ctx)
	if err != nil {
		return c.failed(start, RefreshEvent{Snapshot: c.Snapshot(), Err: err})
	}

	c.publish(start, routes, RefreshEvent{})
	return nil
}

// RefreshScoped recompiles the routes whose metadata contains every
// entry of md, and keeps the other routes of the current snapshot.
func (c *Cache) RefreshScoped(ctx context.Context, md map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	e := RefreshEvent{Scoped: true, Metadata: md}
	scoped, err := c.locator.RoutesByMetadata(ctx, md)
	if err != nil {
		e.Snapshot = c.Snapshot()
		e.Err = err
		return c.failed(start, e)
	}

	var routes []*Route
	for _, r := range c.Routes() {
		if !MatchMetadata(r.Metadata, md) {
			routes = append(routes, r)
		}
	}

	routes = append(routes, scoped...)
	c.publish(start, routes, e)
	return nil
}
