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
Package query implements the Query predicate, matching a query
parameter by name and, optionally, by a regular expression that one of
its values needs to match.

The predicate matches when the query parameter exists, and when any of
its values matches the regular expression, if one is set.

Examples:

	# query parameter green must exist
	- Query=green

	# one of the values of the red query parameter must match gree.
	- Query=red, gree.
*/
package query

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/predicates"
)

const (
	paramField  = "param"
	regexpField = "regexp"
)

type spec struct{}

type matcher struct {
	param    string
	valueExp *regexp.Regexp
}

// New creates a new Query predicate specification.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.QueryName }

func (spec) ShortcutFieldOrder() []string { return []string{paramField, regexpField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	m := &matcher{
		param:    v.String(paramField),
		valueExp: v.OptionalRegexp(regexpField, nil),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if m.param == "" {
		return nil, fmt.Errorf("%w: query parameter name is empty", predicates.ErrInvalidPredicateParameters)
	}

	return predicates.FromMatcherNamed(m.String(), m), nil
}

func (m *matcher) Match(r *http.Request) bool {
	values, ok := r.URL.Query()[m.param]
	if !ok {
		return false
	}

	if m.valueExp == nil {
		return true
	}

	for _, v := range values {
		if m.valueExp.MatchString(v) {
			return true
		}
	}

	return false
}

func (m *matcher) String() string {
	if m.valueExp == nil {
		return fmt.Sprintf("Query: param=%s", m.param)
	}

	return fmt.Sprintf("Query: param=%s regexp=%s", m.param, m.valueExp)
}
