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

import "reflect"

func eqArgs(left, right Args) bool {
	if len(left) != len(right) {
		return false
	}

	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}

	return true
}

// EqArgs compares two argument lists, including their order.
func EqArgs(left, right Args) bool {
	return eqArgs(left, right)
}

func eqPredicates(left, right []*PredicateDefinition) bool {
	if len(left) != len(right) {
		return false
	}

	for i := range left {
		if left[i].Name != right[i].Name || !eqArgs(left[i].Args, right[i].Args) {
			return false
		}
	}

	return true
}

func eqFilters(left, right []*FilterDefinition) bool {
	if len(left) != len(right) {
		return false
	}

	for i := range left {
		if left[i].Name != right[i].Name || !eqArgs(left[i].Args, right[i].Args) {
			return false
		}
	}

	return true
}

func eqMetadata(left, right map[string]any) bool {
	if len(left) == 0 && len(right) == 0 {
		return true
	}

	return reflect.DeepEqual(left, right)
}

func eq2(left, right *RouteDefinition) bool {
	if left == nil && right == nil {
		return true
	}

	if left == nil || right == nil {
		return false
	}

	return left.Id == right.Id &&
		left.URI == right.URI &&
		left.Order == right.Order &&
		left.DisableDefaultFilters == right.DisableDefaultFilters &&
		eqPredicates(left.Predicates, right.Predicates) &&
		eqFilters(left.Filters, right.Filters) &&
		eqMetadata(left.Metadata, right.Metadata)
}

// Eq implements canonical equivalence comparison of route definitions.
// It accepts any number of definitions, and returns true when all of
// them are equal.
func Eq(r ...*RouteDefinition) bool {
	for i := 1; i < len(r); i++ {
		if !eq2(r[i-1], r[i]) {
			return false
		}
	}

	return true
}

// EqLists compares lists of route definitions. The order of the
// definitions matters.
func EqLists(r ...[]*RouteDefinition) bool {
	for i := 1; i < len(r); i++ {
		if len(r[i-1]) != len(r[i]) {
			return false
		}

		for j := range r[i] {
			if !eq2(r[i-1][j], r[i][j]) {
				return false
			}
		}
	}

	return true
}
