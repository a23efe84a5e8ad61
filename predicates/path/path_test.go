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

package path

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/predicatetest"
)

func TestPathCreate(t *testing.T) {
	for _, tt := range []struct {
		msg      string
		shortcut string
		err      bool
	}{
		{"no args", "Path", true},
		{"single", "Path=/foo", false},
		{"multiple", "Path=/foo/**, /bar/{id}", false},
		{"tail flag", "Path=/foo, false", false},
		{"invalid pattern", "Path=/foo/{id", true},
		{"capture not last", "Path=/foo/{*rest}/bar", true},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			err := predicatetest.ParseErr(New(), tt.shortcut)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPathNamedArgs(t *testing.T) {
	p, err := predicatetest.Create(New(), &eskip.PredicateDefinition{
		Name: predicates.PathName,
		Args: eskip.Named("patterns", "/foo", "matchTrailingSlash", "false"),
	})
	require.NoError(t, err)

	assert.True(t, predicatetest.Evaluate(t, p, httptest.NewRequest("GET", "/foo", nil)))
	assert.False(t, predicatetest.Evaluate(t, p, httptest.NewRequest("GET", "/foo/", nil)))
}

func TestPathUnexpectedArg(t *testing.T) {
	_, err := predicatetest.Create(New(), &eskip.PredicateDefinition{
		Name: predicates.PathName,
		Args: eskip.Named("patterns", "/foo", "caseSensitive", "true"),
	})
	assert.Error(t, err)
}

func TestPathMatch(t *testing.T) {
	for _, tt := range []struct {
		msg      string
		shortcut string
		path     string
		match    bool
	}{
		{"exact", "Path=/foo", "/foo", true},
		{"trailing slash", "Path=/foo", "/foo/", true},
		{"trailing slash disabled", "Path=/foo, false", "/foo/", false},
		{"subtree root", "Path=/foo/**", "/foo", true},
		{"subtree", "Path=/foo/**", "/foo/bar/baz", true},
		{"catch all", "Path=/**", "/baz", true},
		{"catch all root", "Path=/**", "/", true},
		{"second pattern", "Path=/foo, /bar/*", "/bar/baz", true},
		{"no match", "Path=/foo, /bar/*", "/baz", false},
		{"single char", "Path=/fo?", "/fox", true},
		{"regexp variable", `Path=/users/{id:\d+}`, "/users/abc", false},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			p := predicatetest.Parse(t, New(), tt.shortcut)
			assert.Equal(t, tt.match, predicatetest.Evaluate(t, p, httptest.NewRequest("GET", tt.path, nil)))
		})
	}
}

func TestPathVariables(t *testing.T) {
	p := predicatetest.Parse(t, New(), "Path=/red/{segment}, /files/{*rest}")

	e := predicatetest.NewExchange(httptest.NewRequest("GET", "/red/blue", nil))
	ok, err := p.Evaluate(e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"segment": "blue"}, exchange.URIVariables(e))

	e = predicatetest.NewExchange(httptest.NewRequest("GET", "/files/a/b.txt", nil))
	ok, err = p.Evaluate(e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"rest": "/a/b.txt"}, exchange.URIVariables(e))
}

func TestPathNoMatchKeepsVariables(t *testing.T) {
	p := predicatetest.Parse(t, New(), "Path=/red/{segment}")

	e := predicatetest.NewExchange(httptest.NewRequest("GET", "/blue/red", nil))
	ok, err := p.Evaluate(e)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, exchange.URIVariables(e))
}
