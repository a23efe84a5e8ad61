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
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/path"
	"github.com/switchback/switchback/predicates/predicatetest"
	"github.com/switchback/switchback/routing"
	"github.com/switchback/switchback/routing/testdataclient"
)

const doc = `
- id: blue
  uri: https://blue.example.org
  predicates:
  - Weight=service, 8
- id: green
  uri: https://green.example.org
  predicates:
  - Path=/**
  - Weight=service, 2
- id: disabled
  uri: https://disabled.example.org
  predicates:
  - Weight=off, 0
`

type fixedRand struct {
	values []float64
	next   int
}

func (f *fixedRand) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

type testSetup struct {
	client   *testdataclient.Client
	cache    *routing.Cache
	resolver *routing.Resolver
	calc     *Calculator
}

func setup(t *testing.T, doc string, rnd ...float64) *testSetup {
	t.Helper()

	client, err := testdataclient.NewDoc(doc)
	require.NoError(t, err)

	calc := NewCalculator()
	calc.rand = (&fixedRand{values: rnd}).Float64

	reg := make(predicates.Registry)
	reg.Register(New(), path.New())

	cache := routing.NewCache(
		routing.NewCompiler(routing.CompilerOptions{Source: client, Predicates: reg}),
		routing.CacheOptions{Observers: []routing.RefreshObserver{calc}},
	)

	require.NoError(t, cache.Refresh(context.Background()))

	return &testSetup{
		client:   client,
		cache:    cache,
		resolver: routing.NewResolver(routing.ResolverOptions{Table: cache, Hooks: []routing.Hook{calc}}),
		calc:     calc,
	}
}

func (s *testSetup) resolve(t *testing.T) (string, error) {
	t.Helper()

	rt, err := s.resolver.Resolve(predicatetest.NewExchange(httptest.NewRequest("GET", "/", nil)))
	if err != nil {
		return "", err
	}

	return rt.Id, nil
}

func TestCreate(t *testing.T) {
	for _, tc := range []struct {
		def     string
		isError bool
	}{
		{"Weight=group, 1", false},
		{"Weight=group, 0", false},
		{"Weight=group", true},
		{"Weight=group, -1", true},
		{"Weight=group, one", true},
	} {
		t.Run(tc.def, func(t *testing.T) {
			err := predicatetest.ParseErr(New(), tc.def)
			if tc.isError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredicateString(t *testing.T) {
	p := predicatetest.Parse(t, New(), "Weight=service, 3")
	assert.Equal(t, "Weight: group=service weight=3", p.String())
}

func TestPredicateWithoutSelection(t *testing.T) {
	p := predicatetest.Parse(t, New(), "Weight=service, 3")
	assert.False(t, predicatetest.Evaluate(t, p, httptest.NewRequest("GET", "/", nil)))
}

func TestSelection(t *testing.T) {
	for _, tc := range []struct {
		rand     float64
		expected string
	}{
		{0, "blue"},
		{0.5, "blue"},
		{0.79, "blue"},
		{0.8, "green"},
		{0.99, "green"},
	} {
		s := setup(t, doc, tc.rand)
		id, err := s.resolve(t)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, id, "rand: %v", tc.rand)
	}
}

func TestDistribution(t *testing.T) {
	var rnd []float64
	for i := range 100 {
		rnd = append(rnd, float64(i)/100)
	}

	s := setup(t, doc, rnd...)

	counts := make(map[string]int)
	for range 100 {
		id, err := s.resolve(t)
		require.NoError(t, err)
		counts[id]++
	}

	assert.Equal(t, map[string]int{"blue": 80, "green": 20}, counts)
}

func TestZeroSumGroupNeverMatches(t *testing.T) {
	const onlyDisabled = `
- id: disabled
  uri: https://disabled.example.org
  predicates:
  - Weight=off, 0
`

	s := setup(t, onlyDisabled, 0.5)
	_, err := s.resolve(t)
	assert.ErrorIs(t, err, routing.ErrNoRoute)
	assert.Empty(t, *s.calc.groups.Load())
}

func TestRefreshRebuildsGroups(t *testing.T) {
	s := setup(t, doc, 0.5)

	id, err := s.resolve(t)
	require.NoError(t, err)
	assert.Equal(t, "blue", id)

	defs, err := eskip.ParseDocument([]byte(`
- id: blue
  uri: https://blue.example.org
  predicates:
  - Weight=service, 1
`))
	require.NoError(t, err)
	s.client.Update(defs, nil)

	require.NoError(t, s.cache.Refresh(context.Background()))

	id, err = s.resolve(t)
	require.NoError(t, err)
	assert.Equal(t, "green", id)
}

func TestFailedRefreshKeepsGroups(t *testing.T) {
	s := setup(t, doc, 0.9)
	s.client.Fail(testdataclient.ErrInjected)

	require.Error(t, s.cache.Refresh(context.Background()))

	id, err := s.resolve(t)
	require.NoError(t, err)
	assert.Equal(t, "green", id)
}
