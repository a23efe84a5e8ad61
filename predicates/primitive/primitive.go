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

// Package primitive provides the True and False predicates, e.g. to
// disable a route temporarily without removing it.
package primitive

import (
	"net/http"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/predicates"
)

type trueSpec struct{}

type falseSpec struct{}

// NewTrue provides a predicate spec to create a Predicate instance that evaluates to true
func NewTrue() predicates.Spec { return &trueSpec{} }

func (*trueSpec) Name() string {
	return predicates.TrueName
}

// Create a predicate instance that always evaluates to true
func (*trueSpec) Create(v *args.Values) (predicates.Predicate, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	return predicates.FromMatcherNamed(predicates.TrueName, predicates.MatcherFunc(func(*http.Request) bool {
		return true
	})), nil
}

// NewFalse provides a predicate spec to create a Predicate instance that evaluates to false
func NewFalse() predicates.Spec { return &falseSpec{} }

func (*falseSpec) Name() string {
	return predicates.FalseName
}

// Create a predicate instance that always evaluates to false
func (*falseSpec) Create(v *args.Values) (predicates.Predicate, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	return predicates.FromMatcherNamed(predicates.FalseName, predicates.MatcherFunc(func(*http.Request) bool {
		return false
	})), nil
}
