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

package predicates

import (
	"errors"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
)

// ErrInvalidPredicateParameters is used in case of invalid predicate parameters.
var ErrInvalidPredicateParameters = errors.New("invalid predicate parameters")

// All Predicate names
const (
	PathName                 = "Path"
	HostName                 = "Host"
	MethodName               = "Method"
	HeaderName               = "Header"
	QueryName                = "Query"
	CookieName               = "Cookie"
	AfterName                = "After"
	BeforeName               = "Before"
	BetweenName              = "Between"
	RemoteAddrName           = "RemoteAddr"
	XForwardedRemoteAddrName = "XForwardedRemoteAddr"
	WeightName               = "Weight"
	ReadBodyName             = "ReadBody"
	CronName                 = "Cron"
	TrueName                 = "True"
	FalseName                = "False"
)

// Spec objects are the factories of a predicate kind. The predicate
// instances are created once per route, when the route is compiled.
//
// A Spec can implement args.ShortcutConfigurable and
// args.ShortcutTyped to accept positional arguments.
type Spec interface {

	// Name of the predicate as used in the route definitions.
	Name() string

	// Create a predicate instance with concrete arguments.
	Create(*args.Values) (Predicate, error)
}

// Registry used to lookup Spec objects while compiling the routes.
type Registry map[string]Spec

// Register a predicate spec. A spec registered with the name of an
// existing one replaces it.
func (r Registry) Register(specs ...Spec) {
	for _, s := range specs {
		name := s.Name()
		if _, ok := r[name]; ok {
			log.Warnf("Predicate spec %s is registered more than once, overriding.", name)
		}

		r[name] = s
	}
}

// Get returns the spec registered with name.
func (r Registry) Get(name string) (Spec, bool) {
	s, ok := r[name]
	return s, ok
}

// Names returns the registered names in alphabetical order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}

	slices.Sort(names)
	return names
}
