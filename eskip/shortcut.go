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

package eskip

import (
	"fmt"
	"strings"
)

// parseShortcut splits the shortcut notation Name=v1, v2, v3. Every
// value is trimmed and stored under a generated key.
func parseShortcut(text string) (string, Args, error) {
	text = strings.TrimSpace(text)
	name, values, hasArgs := strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrEmptyName, text)
	}

	if !hasArgs {
		return name, nil, nil
	}

	parts := strings.Split(values, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return name, Positional(parts...), nil
}

// ParsePredicate parses a predicate in shortcut notation, e.g.
// Path=/foo/**, /bar/**.
func ParsePredicate(text string) (*PredicateDefinition, error) {
	name, args, err := parseShortcut(text)
	if err != nil {
		return nil, err
	}

	return &PredicateDefinition{Name: name, Args: args}, nil
}

// ParseFilter parses a filter in shortcut notation, e.g.
// AddRequestHeader=X-Request-Red, blue.
func ParseFilter(text string) (*FilterDefinition, error) {
	name, args, err := parseShortcut(text)
	if err != nil {
		return nil, err
	}

	return &FilterDefinition{Name: name, Args: args}, nil
}

// MustParseFilters parses a list of filters in shortcut notation and
// panics on the first error. Meant for tests and static setup.
func MustParseFilters(text ...string) []*FilterDefinition {
	f, err := ParseFilters(text...)
	if err != nil {
		panic(err)
	}

	return f
}

// MustParsePredicates parses a list of predicates in shortcut notation
// and panics on the first error.
func MustParsePredicates(text ...string) []*PredicateDefinition {
	p, err := ParsePredicates(text...)
	if err != nil {
		panic(err)
	}

	return p
}

// ParseFilters parses a list of filters in shortcut notation.
func ParseFilters(text ...string) ([]*FilterDefinition, error) {
	f := make([]*FilterDefinition, 0, len(text))
	for _, t := range text {
		fi, err := ParseFilter(t)
		if err != nil {
			return nil, err
		}

		f = append(f, fi)
	}

	return f, nil
}

// ParsePredicates parses a list of predicates in shortcut notation.
func ParsePredicates(text ...string) ([]*PredicateDefinition, error) {
	p := make([]*PredicateDefinition, 0, len(text))
	for _, t := range text {
		pi, err := ParsePredicate(t)
		if err != nil {
			return nil, err
		}

		p = append(p, pi)
	}

	return p, nil
}
