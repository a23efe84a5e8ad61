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

	"github.com/switchback/switchback/filters/filtertest"
)

func TestSetStatus(t *testing.T) {
	f := filtertest.Parse(t, NewSetStatus(), "SetStatus=UNAUTHORIZED")

	ctx := filtertest.NewContext(httptest.NewRequest("GET", "/", nil))
	filtertest.Run(ctx, filtertest.Respond(http.StatusOK), f)
	assert.Equal(t, http.StatusUnauthorized, ctx.Response().StatusCode)
	assert.Equal(t, "401 Unauthorized", ctx.Response().Status)
}

func TestAddRequestParameter(t *testing.T) {
	for _, tc := range []struct {
		query    string
		expected string
	}{
		{"", "foo=bar+baz"},
		{"a=1&b=2", "a=1&b=2&foo=bar+baz"},
	} {
		f := filtertest.Parse(t, NewAddRequestParameter(), "AddRequestParameter=foo, bar baz")

		r := httptest.NewRequest("GET", "/", nil)
		r.URL.RawQuery = tc.query
		ctx := filtertest.NewContext(r)

		f.Request(ctx)
		assert.Equal(t, tc.expected, ctx.Request().URL.RawQuery)
	}
}

func TestRedirectTo(t *testing.T) {
	for _, tc := range []struct {
		msg      string
		def      string
		target   string
		status   int
		location string
	}{
		{"plain", "RedirectTo=302, https://example.org", "/foo?a=1", http.StatusFound, "https://example.org"},
		{"named status", "RedirectTo=MOVED_PERMANENTLY, https://example.org/x", "/", http.StatusMovedPermanently, "https://example.org/x"},
		{"with params", "RedirectTo=302, https://example.org, true", "/foo?a=1", http.StatusFound, "https://example.org?a=1"},
		{"with params merged", "RedirectTo=302, https://example.org?b=2, true", "/foo?a=1", http.StatusFound, "https://example.org?b=2&a=1"},
	} {
		t.Run(tc.msg, func(t *testing.T) {
			f := filtertest.Parse(t, NewRedirectTo(), tc.def)
			ctx := filtertest.NewContext(httptest.NewRequest("GET", tc.target, nil))

			called := false
			filtertest.Run(ctx, func(r *http.Request) *http.Response {
				called = true
				return filtertest.Respond(http.StatusOK)(r)
			}, f)

			assert.False(t, called)
			assert.Equal(t, tc.status, ctx.Response().StatusCode)
			assert.Equal(t, tc.location, ctx.Response().Header.Get("Location"))
		})
	}
}

func TestRedirectToArgs(t *testing.T) {
	for _, def := range []string{
		"RedirectTo=200, https://example.org",
		"RedirectTo=302",
		"RedirectTo=302, https://example.org, maybe",
		"RedirectTo=302, ://",
	} {
		_, err := filtertest.ParseErr(NewRedirectTo(), def)
		assert.Error(t, err, def)
	}
}
