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

package filters_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/filters/filtertest"
)

func TestRegistry(t *testing.T) {
	r := make(filters.Registry)
	a := &filtertest.Filter{FilterName: "a"}
	b := &filtertest.Filter{FilterName: "b"}
	r.Register(b)
	r.Register(a)

	s, ok := r.Get("a")
	assert.True(t, ok)
	assert.Same(t, a, s)

	_, ok = r.Get("c")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, r.Names())

	replacement := &filtertest.Filter{FilterName: "a"}
	r.Register(replacement)
	s, _ = r.Get("a")
	assert.Same(t, replacement, s)
}

func TestOrderOf(t *testing.T) {
	_, ok := filters.OrderOf(&filtertest.Filter{})
	assert.False(t, ok)

	o, ok := filters.OrderOf(filtertest.WithOrder(&filtertest.Filter{}, -3))
	assert.True(t, ok)
	assert.Equal(t, -3, o)
}

func TestSortStable(t *testing.T) {
	type item struct {
		name  string
		order int
	}

	items := []item{{"a", 2}, {"b", 1}, {"c", 2}, {"d", 1}, {"e", 0}}
	filters.SortStable(items, func(i item) int { return i.order })

	var names []string
	for _, i := range items {
		names = append(names, i.name)
	}

	assert.Equal(t, []string{"e", "b", "d", "a", "c"}, names)
}

func TestParseStatus(t *testing.T) {
	for _, tc := range []struct {
		status   string
		expected int
		isError  bool
	}{
		{"401", http.StatusUnauthorized, false},
		{"UNAUTHORIZED", http.StatusUnauthorized, false},
		{"not_found", http.StatusNotFound, false},
		{"I_M_A_TEAPOT", 0, true},
		{"IM_A_TEAPOT", http.StatusTeapot, false},
		{"99", 0, true},
		{"600", 0, true},
		{"SOMETIMES", 0, true},
	} {
		code, err := filters.ParseStatus(tc.status)
		if tc.isError {
			assert.Error(t, err, tc.status)
			continue
		}

		require.NoError(t, err, tc.status)
		assert.Equal(t, tc.expected, code, tc.status)
	}
}
