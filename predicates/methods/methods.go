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
Package methods implements the Method predicate, matching routes by
the HTTP method of the request.

It supports multiple http methods, with case insensitive input.

Examples:

	# matches GET requests
	- Method=GET

	# matches GET or POST requests
	- Method=GET, post
*/
package methods

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/predicates"
)

const methodsField = "methods"

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

type (
	spec struct{}

	matcher struct {
		methods map[string]bool
		names   []string
	}
)

// New creates a new Method predicate specification
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.MethodName }

func (spec) ShortcutFieldOrder() []string    { return []string{methodsField} }
func (spec) ShortcutType() args.ShortcutType { return args.GatherList }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	methods := v.Strings(methodsField)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: at least one method should be specified", predicates.ErrInvalidPredicateParameters)
	}

	m := &matcher{methods: make(map[string]bool)}
	for _, method := range methods {
		method = strings.ToUpper(strings.TrimSpace(method))
		if !allowedMethods[method] {
			return nil, fmt.Errorf("%w: method %s is not allowed", predicates.ErrInvalidPredicateParameters, method)
		}

		if !m.methods[method] {
			m.methods[method] = true
			m.names = append(m.names, method)
		}
	}

	return predicates.FromMatcherNamed(fmt.Sprintf("Methods: %v", m.names), m), nil
}

func (m *matcher) Match(r *http.Request) bool {
	return m.methods[strings.ToUpper(r.Method)]
}
