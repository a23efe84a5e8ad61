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

package weight

import (
	"math/rand/v2"
	"sort"
	"sync/atomic"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/routing"
)

type member struct {
	routeID string
	upper   float64
}

// group holds the cumulative, normalized weights of its routes, in
// route order.
type group struct {
	name    string
	members []member
}

// Calculator selects one route of every weight group for each request.
type Calculator struct {
	groups atomic.Pointer[[]group]
	rand   func() float64
	log    logging.Logger
}

var (
	_ routing.RefreshObserver = (*Calculator)(nil)
	_ routing.Hook            = (*Calculator)(nil)
)

func NewCalculator() *Calculator {
	c := &Calculator{
		rand: rand.Float64,
		log:  logging.New("weight"),
	}

	c.groups.Store(&[]group{})
	return c
}

// OnRefresh rebuilds the weight groups from the routes of a successful
// refresh.
func (c *Calculator) OnRefresh(e routing.RefreshEvent) {
	if !e.Success() || e.Snapshot == nil {
		return
	}

	type weighted struct {
		routeID string
		weight  int
	}

	var names []string
	byGroup := make(map[string][]weighted)
	for _, r := range e.Snapshot.Routes() {
		for _, l := range predicates.Leaves(r.Predicate) {
			p, ok := l.Predicate.(*predicate)
			if !ok {
				continue
			}

			if _, ok := byGroup[p.group]; !ok {
				names = append(names, p.group)
			}

			byGroup[p.group] = append(byGroup[p.group], weighted{routeID: p.routeID, weight: p.weight})
		}
	}

	groups := make([]group, 0, len(names))
	for _, name := range names {
		var sum int
		for _, w := range byGroup[name] {
			sum += w.weight
		}

		if sum == 0 {
			c.log.Warnf("Weight group %s has no positive weight, none of its routes will match", name)
			continue
		}

		g := group{name: name}
		var acc int
		for _, w := range byGroup[name] {
			if w.weight == 0 {
				continue
			}

			acc += w.weight
			g.members = append(g.members, member{routeID: w.routeID, upper: float64(acc) / float64(sum)})
		}

		groups = append(groups, g)
	}

	c.groups.Store(&groups)
	c.log.Debugf("Weight groups updated: %d", len(groups))
}

// BeforeResolve stores the selected route of every group in the state
// bag of the exchange.
func (c *Calculator) BeforeResolve(e exchange.Exchange) {
	groups := *c.groups.Load()
	if len(groups) == 0 {
		return
	}

	selected := make(map[string]string, len(groups))
	for _, g := range groups {
		r := c.rand()
		i := sort.Search(len(g.members), func(i int) bool { return r < g.members[i].upper })
		if i == len(g.members) {
			i = len(g.members) - 1
		}

		selected[g.name] = g.members[i].routeID
	}

	e.StateBag()[exchange.WeightKey] = selected
}
