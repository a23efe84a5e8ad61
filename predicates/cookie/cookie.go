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

/*
Package cookie implements predicate to check parsed cookie headers by name and value.
*/
package cookie

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/predicates"
)

const (
	nameField   = "name"
	regexpField = "regexp"
)

type (
	spec struct{}

	matcher struct {
		name     string
		valueExp *regexp.Regexp
	}
)

// New creates a predicate specification, whose instances can be used to match parsed request cookies.
//
// The cookie predicate accepts two arguments, the cookie name, with what a cookie must exist in the request,
// and an optional expression that the cookie value needs to match.
//
// Example:
//
//	- Cookie=tcial, ^enabled$
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.CookieName }

func (spec) ShortcutFieldOrder() []string { return []string{nameField, regexpField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	m := &matcher{
		name:     v.String(nameField),
		valueExp: v.OptionalRegexp(regexpField, nil),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if m.name == "" {
		return nil, fmt.Errorf("%w: cookie name is empty", predicates.ErrInvalidPredicateParameters)
	}

	return predicates.FromMatcherNamed(fmt.Sprintf("Cookie: name=%s regexp=%v", m.name, m.valueExp), m), nil
}

func (m *matcher) Match(r *http.Request) bool {
	for _, c := range r.Cookies() {
		if c.Name != m.name {
			continue
		}

		if m.valueExp == nil || m.valueExp.MatchString(c.Value) {
			return true
		}
	}

	return false
}
