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

package builtin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/filters/filtertest"
)

func TestHeaderFilterNames(t *testing.T) {
	for _, tc := range []struct {
		spec filters.Spec
		name string
	}{
		{NewAddRequestHeader(), "AddRequestHeader"},
		{NewAddResponseHeader(), "AddResponseHeader"},
		{NewSetRequestHeader(), "SetRequestHeader"},
		{NewSetResponseHeader(), "SetResponseHeader"},
		{NewRemoveRequestHeader(), "RemoveRequestHeader"},
		{NewRemoveResponseHeader(), "RemoveResponseHeader"},
	} {
		assert.Equal(t, tc.name, tc.spec.Name())
	}
}

func TestHeaderFilterArgs(t *testing.T) {
	for _, tc := range []struct {
		spec    filters.Spec
		def     string
		isError bool
	}{
		{NewAddRequestHeader(), "AddRequestHeader=X-Foo, bar", false},
		{NewAddRequestHeader(), "AddRequestHeader=X-Foo", true},
		{NewAddRequestHeader(), "AddRequestHeader=X-Foo, bar, baz", true},
		{NewAddRequestHeader(), "AddRequestHeader=, bar", true},
		{NewRemoveResponseHeader(), "RemoveResponseHeader=X-Foo", false},
		{NewRemoveResponseHeader(), "RemoveResponseHeader=X-Foo, bar", true},
	} {
		t.Run(tc.def, func(t *testing.T) {
			_, err := filtertest.ParseErr(tc.spec, tc.def)
			assert.Equal(t, tc.isError, err != nil, "error: %v", err)
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	for _, tc := range []struct {
		msg      string
		spec     filters.Spec
		def      string
		header   http.Header
		expected http.Header
	}{{
		msg:      "add",
		spec:     NewAddRequestHeader(),
		def:      "AddRequestHeader=X-Foo, bar",
		header:   http.Header{"X-Foo": {"foo"}},
		expected: http.Header{"X-Foo": {"foo", "bar"}},
	}, {
		msg:      "add with uri variable",
		spec:     NewAddRequestHeader(),
		def:      "AddRequestHeader=X-Segment, seg-{segment}",
		header:   http.Header{},
		expected: http.Header{"X-Segment": {"seg-42"}},
	}, {
		msg:      "set",
		spec:     NewSetRequestHeader(),
		def:      "SetRequestHeader=X-Foo, bar",
		header:   http.Header{"X-Foo": {"foo", "baz"}},
		expected: http.Header{"X-Foo": {"bar"}},
	}, {
		msg:      "remove",
		spec:     NewRemoveRequestHeader(),
		def:      "RemoveRequestHeader=x-foo",
		header:   http.Header{"X-Foo": {"foo"}, "X-Bar": {"bar"}},
		expected: http.Header{"X-Bar": {"bar"}},
	}} {
		t.Run(tc.msg, func(t *testing.T) {
			f := filtertest.Parse(t, tc.spec, tc.def)

			r := httptest.NewRequest("GET", "/", nil)
			r.Header = tc.header
			ctx := filtertest.NewContext(r)
			exchange.PutURIVariables(ctx, map[string]string{"segment": "42"})

			f.Request(ctx)
			assert.Equal(t, tc.expected, ctx.Request().Header)
		})
	}
}

func TestSetHostHeader(t *testing.T) {
	f := filtertest.Parse(t, NewSetRequestHeader(), "SetRequestHeader=Host, www.example.org")
	ctx := filtertest.NewContext(httptest.NewRequest("GET", "http://localhost/", nil))
	f.Request(ctx)
	assert.Equal(t, "www.example.org", ctx.Request().Host)
}

func TestResponseHeaders(t *testing.T) {
	add := filtertest.Parse(t, NewAddResponseHeader(), "AddResponseHeader=X-Foo, bar")
	set := filtertest.Parse(t, NewSetResponseHeader(), "SetResponseHeader=Cache-Control, no-store")
	remove := filtertest.Parse(t, NewRemoveResponseHeader(), "RemoveResponseHeader=Server")

	ctx := filtertest.NewContext(httptest.NewRequest("GET", "/", nil))
	filtertest.Run(ctx, func(r *http.Request) *http.Response {
		rsp := filtertest.Respond(http.StatusOK)(r)
		rsp.Header.Set("X-Foo", "foo")
		rsp.Header.Set("Cache-Control", "max-age=60")
		rsp.Header.Set("Server", "backend")
		return rsp
	}, add, set, remove)

	require.NotNil(t, ctx.Response())
	assert.Equal(t, http.Header{
		"X-Foo":         {"foo", "bar"},
		"Cache-Control": {"no-store"},
	}, ctx.Response().Header)
}

func TestResponseHeaderWithoutResponse(t *testing.T) {
	f := filtertest.Parse(t, NewSetResponseHeader(), "SetResponseHeader=X-Foo, bar")
	ctx := filtertest.NewContext(httptest.NewRequest("GET", "/", nil))
	assert.NotPanics(t, func() { f.Response(ctx) })
}

func TestMakeRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"AddRequestHeader",
		"AddRequestParameter",
		"AddResponseHeader",
		"PrefixPath",
		"RedirectTo",
		"RemoveRequestHeader",
		"RemoveResponseHeader",
		"RewritePath",
		"SetPath",
		"SetRequestHeader",
		"SetResponseHeader",
		"SetStatus",
		"StripPrefix",
	}, MakeRegistry().Names())
}
