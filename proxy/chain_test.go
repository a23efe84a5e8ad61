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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters/filtertest"
	"github.com/switchback/switchback/routing"
	"github.com/switchback/switchback/routing/testdataclient"
)

func chainNames(chain []*routing.RouteFilter) []string {
	var names []string
	for _, f := range chain {
		names = append(names, f.Name)
	}

	return names
}

func TestMergeAndSort(t *testing.T) {
	// D0 and D1 are default filters, compiled into the route
	rt := &routing.Route{
		Id: "r",
		Filters: []*routing.RouteFilter{
			{Name: "D0", Filter: &filtertest.Filter{}, Order: 0},
			{Name: "R1", Filter: &filtertest.Filter{}, Order: 2},
			{Name: "R0", Filter: &filtertest.Filter{}, Order: 2},
			{Name: "D1", Filter: &filtertest.Filter{}, Order: 5},
		},
	}

	a := newAssembler([]GlobalFilter{
		{Name: "Unordered", Filter: &filtertest.Filter{}},
		{Name: "G2", Filter: filtertest.WithOrder(&filtertest.Filter{}, 2)},
		{Name: "First", Filter: filtertest.WithOrder(&filtertest.Filter{}, -100)},
	}, false)

	expected := []string{"First", "D0", "G2", "R1", "R0", "D1", "Unordered"}
	for range 10 {
		assert.Equal(t, expected, chainNames(a.chain(rt)))
	}

	assert.Equal(t, 0, a.cached())
	assert.Equal(t, []string{"D0", "R1", "R0", "D1"}, chainNames(rt.Filters), "route filters must not be modified")
}

func TestGlobalOrders(t *testing.T) {
	a := newAssembler([]GlobalFilter{
		{Name: "Unordered", Filter: &filtertest.Filter{}},
		{Name: "Ordered", Filter: filtertest.WithOrder(&filtertest.Filter{}, 7)},
	}, false)

	assert.Equal(t, UnorderedGlobalFilter, a.globals[0].Order)
	assert.Equal(t, 7, a.globals[1].Order)
}

func TestChainCache(t *testing.T) {
	rt := &routing.Route{Id: "r", Filters: []*routing.RouteFilter{{Name: "F", Filter: &filtertest.Filter{}}}}
	a := newAssembler([]GlobalFilter{{Name: "G", Filter: &filtertest.Filter{}}}, true)

	c1 := a.chain(rt)
	c2 := a.chain(rt)
	assert.Same(t, &c1[0], &c2[0])
	assert.Equal(t, 1, a.cached())

	a.OnRefresh(routing.RefreshEvent{Err: errors.New("failed")})
	assert.Equal(t, 1, a.cached())

	a.OnRefresh(routing.RefreshEvent{})
	assert.Equal(t, 0, a.cached())

	c3 := a.chain(rt)
	assert.NotSame(t, &c1[0], &c3[0])
	assert.Equal(t, chainNames(c1), chainNames(c3))
}

func TestChainCacheSkipsReplacedRoutes(t *testing.T) {
	a := newAssembler([]GlobalFilter{{Name: "G", Filter: &filtertest.Filter{}}}, true)
	client := testdataclient.New([]*eskip.RouteDefinition{
		{Id: "r", URI: "https://www.example.org"},
	})

	cache := routing.NewCache(
		routing.NewCompiler(routing.CompilerOptions{Source: client}),
		routing.CacheOptions{Observers: []routing.RefreshObserver{a}},
	)

	require.NoError(t, cache.Refresh(context.Background()))
	old, ok := cache.Route("r")
	require.True(t, ok)

	a.chain(old)
	assert.Equal(t, 1, a.cached())

	client.Replace([]*eskip.RouteDefinition{{Id: "r", URI: "https://www.example.org", Order: 1}})
	require.NoError(t, cache.Refresh(context.Background()))
	assert.Equal(t, 0, a.cached())

	// a request resolved before the refresh
	assert.Equal(t, []string{"G"}, chainNames(a.chain(old)))
	assert.Equal(t, 0, a.cached())

	current, ok := cache.Route("r")
	require.True(t, ok)
	a.chain(current)
	assert.Equal(t, 1, a.cached())
}
