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

package flowid

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/filters/filtertest"
)

const testFlowID = "FLOW-ID-FOR-TESTING"

func run(f filters.Filter, r *http.Request) (*http.Request, *http.Response) {
	var forwarded *http.Request
	ctx := filtertest.NewContext(r)
	filtertest.Run(ctx, func(r *http.Request) *http.Response {
		forwarded = r
		return filtertest.Respond(http.StatusOK)(r)
	}, f)

	return forwarded, ctx.Response()
}

func TestNewFlowIDGeneration(t *testing.T) {
	f := filtertest.Parse(t, New(), "FlowId")
	forwarded, rsp := run(f, httptest.NewRequest("GET", "/", nil))

	id := forwarded.Header.Get(HeaderName)
	assert.NoError(t, uuid.Validate(id))
	assert.Equal(t, id, rsp.Header.Get(HeaderName))
}

func TestFlowIDReuseExisting(t *testing.T) {
	existing := uuid.NewString()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, existing)

	f := filtertest.Parse(t, New(), "FlowId=true")
	forwarded, rsp := run(f, r)
	assert.Equal(t, existing, forwarded.Header.Get(HeaderName))
	assert.Equal(t, existing, rsp.Header.Get(HeaderName))
}

func TestFlowIDIgnoreExisting(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, uuid.NewString())
	existing := r.Header.Get(HeaderName)

	f := filtertest.Parse(t, New(), "FlowId")
	forwarded, _ := run(f, r)
	assert.NotEqual(t, existing, forwarded.Header.Get(HeaderName))
}

func TestFlowIDRejectInvalidReusedFlowID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, testFlowID)

	f := filtertest.Parse(t, New(), "FlowId=true")
	forwarded, _ := run(f, r)
	assert.NotEqual(t, testFlowID, forwarded.Header.Get(HeaderName))
}

func TestStandardGenerator(t *testing.T) {
	f, err := filtertest.Create(New(), &eskip.FilterDefinition{
		Name: Name,
		Args: eskip.Named("generator", StandardGenerator, "length", "32"),
	})
	require.NoError(t, err)

	forwarded, _ := run(f, httptest.NewRequest("GET", "/", nil))
	id := forwarded.Header.Get(HeaderName)
	assert.Len(t, id, 32)
	assert.Regexp(t, standardFlowIDRegex, id)
}

func TestStandardGeneratorLength(t *testing.T) {
	for l := MinLength; l <= MaxLength; l++ {
		g, err := NewStandardGenerator(l)
		require.NoError(t, err)

		id, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, id, l)
		assert.True(t, g.IsValid(id))
	}

	for _, l := range []int{0, MinLength - 1, MaxLength + 1} {
		_, err := NewStandardGenerator(l)
		assert.ErrorIs(t, err, ErrInvalidLen)
	}
}

func TestInvalidParameters(t *testing.T) {
	for _, s := range []string{
		"FlowId=maybe",
		"FlowId=true, ulid",
		"FlowId=true, standard, 4",
		"FlowId=true, standard, long",
	} {
		_, err := filtertest.ParseErr(New(), s)
		assert.Error(t, err, s)
	}
}

func TestGlobal(t *testing.T) {
	f := NewGlobal(Options{Reuse: true})

	order, ok := filters.OrderOf(f)
	assert.True(t, ok)
	assert.Equal(t, math.MinInt, order)

	existing := uuid.NewString()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderName, existing)

	ctx := filtertest.NewContext(r)
	filtertest.Run(ctx, filtertest.Respond(http.StatusOK), f)
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, existing, id)
	assert.Equal(t, existing, ctx.Response().Header.Get(HeaderName))
}

func TestRouteFilterKeepsGlobalFlowID(t *testing.T) {
	ctx := filtertest.NewContext(httptest.NewRequest("GET", "/", nil))
	filtertest.Run(ctx, filtertest.Respond(http.StatusOK), NewGlobal(Options{}), filtertest.Parse(t, New(), "FlowId"))

	id, _ := FromContext(ctx)
	assert.Equal(t, id, ctx.Request().Header.Get(HeaderName))
}
