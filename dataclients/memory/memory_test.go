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

package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/routing"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	r := New(
		&eskip.RouteDefinition{Id: "a", URI: "https://a.example.org"},
		&eskip.RouteDefinition{Id: "b", URI: "https://b.example.org"},
	)

	require.NoError(t, r.Save(ctx, &eskip.RouteDefinition{Id: "c", URI: "https://c.example.org"}))
	require.NoError(t, r.Save(ctx, &eskip.RouteDefinition{Id: "a", URI: "https://a2.example.org"}))

	defs, err := r.RouteDefinitions(ctx)
	require.NoError(t, err)

	expected := []*eskip.RouteDefinition{
		{Id: "a", URI: "https://a2.example.org"},
		{Id: "b", URI: "https://b.example.org"},
		{Id: "c", URI: "https://c.example.org"},
	}

	if diff := cmp.Diff(expected, defs); diff != "" {
		t.Errorf("unexpected definitions (-want +got):\n%s", diff)
	}

	require.NoError(t, r.Delete(ctx, "b"))
	assert.ErrorIs(t, r.Delete(ctx, "b"), routing.ErrNotFound)

	defs, _ = r.RouteDefinitions(ctx)
	assert.Len(t, defs, 2)
}

func TestSaveWithoutID(t *testing.T) {
	assert.Error(t, New().Save(context.Background(), &eskip.RouteDefinition{URI: "https://example.org"}))
}

func TestIsolation(t *testing.T) {
	ctx := context.Background()
	def := &eskip.RouteDefinition{Id: "a", URI: "https://a.example.org"}
	r := New()
	require.NoError(t, r.Save(ctx, def))

	def.URI = "https://modified.example.org"
	defs, _ := r.RouteDefinitions(ctx)
	defs[0].Order = 42

	defs, _ = r.RouteDefinitions(ctx)
	assert.Equal(t, "https://a.example.org", defs[0].URI)
	assert.Equal(t, 0, defs[0].Order)
}
