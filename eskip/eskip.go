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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// GeneratedKeyPrefix is the key prefix of positional arguments parsed
// from the shortcut notation. The argument at position i is stored
// under GeneratedKeyPrefix + i.
const GeneratedKeyPrefix = "_genkey_"

var (
	ErrEmptyName       = errors.New("definition without a name")
	ErrInvalidDocument = errors.New("invalid route document")
)

// Arg is a single, named argument of a predicate or filter definition.
type Arg struct {
	Key   string
	Value string
}

// Args holds the arguments of a predicate or filter definition in the
// order they were declared. The same key may appear more than once, in
// which case the argument is list valued.
type Args []Arg

// A PredicateDefinition object represents a parsed, in-memory predicate
// expression, e.g. Path=/foo/**.
type PredicateDefinition struct {

	// name of the predicate specification, e.g. Path or Header
	Name string

	// arguments applied within a particular route
	Args Args
}

// A FilterDefinition object represents a parsed, in-memory filter
// expression, e.g. AddRequestHeader=X-Foo, bar.
type FilterDefinition struct {

	// name of the filter specification
	Name string

	// arguments applied within a particular route
	Args Args
}

// A RouteDefinition is the raw, data-only description of a route before
// it gets compiled with the predicate and filter registries.
//
// Definitions are never mutated after they were handed to the compiler,
// a route source replaces them wholesale.
type RouteDefinition struct {

	// Id of the route, unique within a set of routes.
	Id string `json:"id"`

	// URI of the target. The scheme can be symbolic, e.g. lb://service.
	URI string `json:"uri"`

	// Predicates are combined with logical AND, in the order of
	// declaration. A route without predicates matches every request.
	Predicates []*PredicateDefinition `json:"predicates,omitempty"`

	// Filters of the route, applied after the default filters, unless
	// their order says otherwise.
	Filters []*FilterDefinition `json:"filters,omitempty"`

	// Order of the route, lower sorts first.
	Order int `json:"order,omitempty"`

	// Metadata is free form, e.g. used for scoped refreshes.
	Metadata map[string]any `json:"metadata,omitempty"`

	// DisableDefaultFilters prevents the globally configured default
	// filters from being applied to the route.
	DisableDefaultFilters bool `json:"disableDefaultFilters,omitempty"`
}

// GeneratedKey returns the key of the positional argument at index i.
func GeneratedKey(i int) string {
	return GeneratedKeyPrefix + strconv.Itoa(i)
}

// IsGeneratedKey tells whether a key was generated for a positional
// argument, and if yes, returns its position.
func IsGeneratedKey(key string) (int, bool) {
	if !strings.HasPrefix(key, GeneratedKeyPrefix) {
		return 0, false
	}

	i, err := strconv.Atoi(key[len(GeneratedKeyPrefix):])
	if err != nil || i < 0 {
		return 0, false
	}

	return i, true
}

// Positional creates arguments with generated keys from values.
func Positional(values ...string) Args {
	a := make(Args, len(values))
	for i, v := range values {
		a[i] = Arg{Key: GeneratedKey(i), Value: v}
	}

	return a
}

// Named creates arguments from key value pairs. It panics when the
// number of the arguments is odd, it is meant for static definitions.
func Named(kv ...string) Args {
	if len(kv)%2 != 0 {
		panic("eskip: odd number of key value arguments")
	}

	a := make(Args, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		a = append(a, Arg{Key: kv[i], Value: kv[i+1]})
	}

	return a
}

// Get returns the first value stored with key.
func (a Args) Get(key string) (string, bool) {
	for _, ai := range a {
		if ai.Key == key {
			return ai.Value, true
		}
	}

	return "", false
}

// All returns every value stored with key, in declaration order.
func (a Args) All(key string) []string {
	var values []string
	for _, ai := range a {
		if ai.Key == key {
			values = append(values, ai.Value)
		}
	}

	return values
}

// Keys returns the distinct keys in declaration order.
func (a Args) Keys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, ai := range a {
		if !seen[ai.Key] {
			seen[ai.Key] = true
			keys = append(keys, ai.Key)
		}
	}

	return keys
}

// Values returns all the values in declaration order.
func (a Args) Values() []string {
	values := make([]string, len(a))
	for i, ai := range a {
		values[i] = ai.Value
	}

	return values
}

// Positional tells whether every argument has a generated key.
func (a Args) Positional() bool {
	for _, ai := range a {
		if _, ok := IsGeneratedKey(ai.Key); !ok {
			return false
		}
	}

	return true
}

func (a Args) String() string {
	parts := make([]string, len(a))
	positional := a.Positional()
	for i, ai := range a {
		if positional {
			parts[i] = ai.Value
		} else {
			parts[i] = ai.Key + "=" + ai.Value
		}
	}

	return strings.Join(parts, ", ")
}

func nameArgsString(name string, a Args) string {
	if len(a) == 0 {
		return name
	}

	if a.Positional() {
		return name + "=" + a.String()
	}

	return fmt.Sprintf("%s(%s)", name, a)
}

// String returns the shortcut notation of the predicate when possible.
func (p *PredicateDefinition) String() string {
	return nameArgsString(p.Name, p.Args)
}

// String returns the shortcut notation of the filter when possible.
func (f *FilterDefinition) String() string {
	return nameArgsString(f.Name, f.Args)
}
