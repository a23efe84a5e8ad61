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

// Package predicatetest provides helpers to test predicate specs.
package predicatetest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
)

// RouteID is the route id the test predicates are created for.
const RouteID = "test-route"

// Create binds the arguments of a definition the same way the route
// compiler does, and creates the predicate.
func Create(spec predicates.Spec, def *eskip.PredicateDefinition) (predicates.Predicate, error) {
	return CreateForRoute(RouteID, spec, def)
}

// CreateForRoute is like Create, for a custom route id.
func CreateForRoute(routeID string, spec predicates.Spec, def *eskip.PredicateDefinition) (predicates.Predicate, error) {
	v := args.Bind(routeID, def.Args, spec)
	p, err := spec.Create(v)
	if err != nil {
		return nil, err
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

// Parse creates a predicate from the shortcut notation and fails the
// test on errors.
func Parse(t testing.TB, spec predicates.Spec, shortcut string) predicates.Predicate {
	t.Helper()

	def, err := eskip.ParsePredicate(shortcut)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", shortcut, err)
	}

	p, err := Create(spec, def)
	if err != nil {
		t.Fatalf("failed to create %q: %v", shortcut, err)
	}

	return p
}

// ParseErr returns the error of creating a predicate from the
// shortcut notation.
func ParseErr(spec predicates.Spec, shortcut string) error {
	def, err := eskip.ParsePredicate(shortcut)
	if err != nil {
		return err
	}

	_, err = Create(spec, def)
	return err
}

// NewExchange returns an exchange for the request with a response
// recorder.
func NewExchange(r *http.Request) *exchange.HTTPExchange {
	return exchange.New(httptest.NewRecorder(), r)
}

// Evaluate evaluates the predicate on a new exchange and fails the
// test on errors.
func Evaluate(t testing.TB, p predicates.Predicate, r *http.Request) bool {
	t.Helper()

	ok, err := p.Evaluate(NewExchange(r))
	if err != nil {
		t.Fatalf("failed to evaluate %s: %v", p, err)
	}

	return ok
}
