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
Package header implements the Header predicate, matching a request
header by name and, optionally, by a regular expression that one of its
values needs to match.

Examples:

	# the header X-Request-Id must exist
	- Header=X-Request-Id

	# one of the values of X-Request-Id must be a number
	- Header=X-Request-Id, \d+
*/
package header

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/predicates"
)

const (
	headerField = "header"
	regexpField = "regexp"
)

type spec struct{}

type matcher struct {
	name     string
	valueExp *regexp.Regexp
}

// New creates a predicate specification, whose instances match request
// headers.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.HeaderName }

func (spec) ShortcutFieldOrder() []string { return []string{headerField, regexpField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	m := &matcher{
		name:     http.CanonicalHeaderKey(v.String(headerField)),
		valueExp: v.OptionalRegexp(regexpField, nil),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if m.name == "" {
		return nil, fmt.Errorf("%w: header name is empty", predicates.ErrInvalidPredicateParameters)
	}

	return predicates.FromMatcherNamed(m.String(), m), nil
}

func (m *matcher) Match(r *http.Request) bool {
	values := r.Header.Values(m.name)
	if m.valueExp == nil {
		return len(values) > 0
	}

	for _, value := range values {
		if m.valueExp.MatchString(value) {
			return true
		}
	}

	return false
}

func (m *matcher) String() string {
	if m.valueExp == nil {
		return fmt.Sprintf("Header: %s", m.name)
	}

	return fmt.Sprintf("Header: %s regexp=%s", m.name, m.valueExp)
}
