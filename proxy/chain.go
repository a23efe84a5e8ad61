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

package proxy

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/routing"
)

// UnorderedGlobalFilter is the order of the global filters that do not
// implement filters.Ordered.
const UnorderedGlobalFilter = math.MaxInt

// GlobalFilter is applied to every route.
type GlobalFilter struct {
	Name   string
	Filter filters.Filter
}

// assembler merges the global filters with the filters of the routes.
type assembler struct {
	globals      []*routing.RouteFilter
	cacheEnabled bool

	// replaced on refresh
	cache atomic.Pointer[chainCache]
}

type chainCache struct {
	// nil until the first refresh
	snapshot *routing.Snapshot

	// *routing.Route -> []*routing.RouteFilter
	chains sync.Map
}

// tells whether rt belongs to the snapshot of the cache. Requests
// resolved against a replaced snapshot are not memoized.
func (c *chainCache) current(rt *routing.Route) bool {
	if c.snapshot == nil {
		return true
	}

	r, ok := c.snapshot.Route(rt.Id)
	return ok && r == rt
}

func newAssembler(globals []GlobalFilter, cacheEnabled bool) *assembler {
	a := &assembler{cacheEnabled: cacheEnabled}
	for _, g := range globals {
		order, ok := filters.OrderOf(g.Filter)
		if !ok {
			order = UnorderedGlobalFilter
		}

		a.globals = append(a.globals, &routing.RouteFilter{
			Filter: g.Filter,
			Name:   g.Name,
			Order:  order,
		})
	}

	a.cache.Store(&chainCache{})
	return a
}

func (a *assembler) combine(rt *routing.Route) []*routing.RouteFilter {
	chain := make([]*routing.RouteFilter, 0, len(a.globals)+len(rt.Filters))
	chain = append(chain, a.globals...)
	chain = append(chain, rt.Filters...)
	filters.SortStable(chain, func(f *routing.RouteFilter) int { return f.Order })
	return chain
}

// chain returns the sorted filters of the route.
func (a *assembler) chain(rt *routing.Route) []*routing.RouteFilter {
	if !a.cacheEnabled {
		return a.combine(rt)
	}

	cache := a.cache.Load()
	if c, ok := cache.chains.Load(rt); ok {
		return c.([]*routing.RouteFilter)
	}

	if !cache.current(rt) {
		return a.combine(rt)
	}

	c, _ := cache.chains.LoadOrStore(rt, a.combine(rt))
	return c.([]*routing.RouteFilter)
}

// OnRefresh drops the cached chains after the routes were replaced.
func (a *assembler) OnRefresh(e routing.RefreshEvent) {
	if e.Success() {
		a.cache.Store(&chainCache{snapshot: e.Snapshot})
	}
}

func (a *assembler) cached() int {
	var n int
	a.cache.Load().chains.Range(func(any, any) bool {
		n++
		return true
	})

	return n
}
