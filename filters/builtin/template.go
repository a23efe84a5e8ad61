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
	"strings"

	"github.com/switchback/switchback/exchange"
)

// template is a string with {name} placeholders, replaced by the URI
// variables of the exchange. Missing variables are replaced by the
// empty string.
type template struct {
	raw   string
	parts []string
	names []string
}

func newTemplate(s string) *template {
	t := &template{raw: s}
	rest := s
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			break
		}

		t.parts = append(t.parts, rest[:start])
		t.names = append(t.names, rest[start+1:start+end])
		rest = rest[start+end+1:]
	}

	t.parts = append(t.parts, rest)
	return t
}

func (t *template) static() bool { return len(t.names) == 0 }

func (t *template) apply(vars map[string]string) string {
	if t.static() {
		return t.raw
	}

	var b strings.Builder
	for i, name := range t.names {
		b.WriteString(t.parts[i])
		b.WriteString(vars[name])
	}

	b.WriteString(t.parts[len(t.parts)-1])
	return b.String()
}

func (t *template) expand(ctx exchange.Exchange) string {
	if t.static() {
		return t.raw
	}

	return t.apply(exchange.URIVariables(ctx))
}
