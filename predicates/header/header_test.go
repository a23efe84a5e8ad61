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

package header

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/predicatetest"
)

func TestHeaderCreate(t *testing.T) {
	for _, tt := range []struct {
		msg string
		def string
		err bool
	}{
		{"no args", "Header", true},
		{"empty name", "Header=", true},
		{"invalid regexp", `Header=X-Foo, \`, true},
		{"too many args", "Header=X-Foo, bar, baz", true},
		{"name only", "Header=X-Foo", false},
		{"name and regexp", `Header=X-Foo, \d+`, false},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			err := predicatetest.ParseErr(New(), tt.def)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHeaderMatch(t *testing.T) {
	for _, tt := range []struct {
		msg     string
		def     string
		headers map[string][]string
		match   bool
	}{
		{"missing", "Header=X-Foo", nil, false},
		{"present", "Header=x-foo", map[string][]string{"X-Foo": {"bar"}}, true},
		{"present empty", "Header=X-Foo", map[string][]string{"X-Foo": {""}}, true},
		{"value matches", `Header=X-Foo, ^\d+$`, map[string][]string{"X-Foo": {"42"}}, true},
		{"value does not match", `Header=X-Foo, ^\d+$`, map[string][]string{"X-Foo": {"bar"}}, false},
		{"any value matches", `Header=X-Foo, ^\d+$`, map[string][]string{"X-Foo": {"bar", "42"}}, true},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			p := predicatetest.Parse(t, New(), tt.def)

			r := httptest.NewRequest("GET", "/", nil)
			for k, vs := range tt.headers {
				for _, v := range vs {
					r.Header.Add(k, v)
				}
			}

			assert.Equal(t, tt.match, predicatetest.Evaluate(t, p, r))
		})
	}
}

func TestHeaderDefinitionHelper(t *testing.T) {
	p, err := predicatetest.Create(New(), predicates.Header("X-Foo", ""))
	assert.NoError(t, err)
	assert.Equal(t, "Header: X-Foo", p.String())
}
