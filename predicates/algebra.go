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
	"fmt"
	"net/http"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/exchange"
)

// Predicate is a compiled boolean test over an exchange.
//
// Evaluate may block the calling goroutine, e.g. while reading the
// request body. Implementations that block need to return when the
// context of the exchange is canceled.
type Predicate interface {
	Evaluate(exchange.Exchange) (bool, error)
	String() string
}

// Matcher is a synchronous test over the request.
type Matcher interface {
	Match(*http.Request) bool
}

// MatcherFunc is an adapter to use ordinary functions as matchers.
type MatcherFunc func(*http.Request) bool

func (f MatcherFunc) Match(r *http.Request) bool { return f(r) }

// Composite is implemented by predicates that are built from other
// predicates. Walk uses it to descend into custom nodes.
type Composite interface {
	Children() []Predicate
}

type matcherPredicate struct {
	m    Matcher
	name string
}

// FromMatcher lifts a synchronous matcher into a predicate that never
// fails.
func FromMatcher(m Matcher) Predicate {
	return &matcherPredicate{m: m, name: fmt.Sprintf("%T", m)}
}

// FromMatcherNamed lifts a synchronous matcher into a predicate, with
// a description.
func FromMatcherNamed(name string, m Matcher) Predicate {
	return &matcherPredicate{m: m, name: name}
}

func (p *matcherPredicate) Evaluate(e exchange.Exchange) (bool, error) {
	return p.m.Match(e.Request()), nil
}

func (p *matcherPredicate) String() string { return p.name }

// Leaf is a predicate created by a Spec from a single predicate
// definition.
type Leaf struct {
	Name      string
	Args      eskip.Args
	Predicate Predicate
}

// NewLeaf wraps a created predicate with the definition it was created
// from.
func NewLeaf(def *eskip.PredicateDefinition, p Predicate) *Leaf {
	return &Leaf{Name: def.Name, Args: def.Args, Predicate: p}
}

func (l *Leaf) Evaluate(e exchange.Exchange) (bool, error) {
	return l.Predicate.Evaluate(e)
}

func (l *Leaf) String() string {
	return (&eskip.PredicateDefinition{Name: l.Name, Args: l.Args}).String()
}

// AndPredicate evaluates Right only when Left evaluated to true.
type AndPredicate struct {
	Left, Right Predicate
}

// OrPredicate evaluates Right only when Left evaluated to false.
type OrPredicate struct {
	Left, Right Predicate
}

// NotPredicate negates the result of Predicate.
type NotPredicate struct {
	Predicate Predicate
}

func And(left, right Predicate) *AndPredicate { return &AndPredicate{Left: left, Right: right} }
func Or(left, right Predicate) *OrPredicate   { return &OrPredicate{Left: left, Right: right} }
func Not(p Predicate) *NotPredicate           { return &NotPredicate{Predicate: p} }

func (p *AndPredicate) Evaluate(e exchange.Exchange) (bool, error) {
	ok, err := p.Left.Evaluate(e)
	if err != nil || !ok {
		return false, err
	}

	if err := e.Context().Err(); err != nil {
		return false, err
	}

	return p.Right.Evaluate(e)
}

func (p *AndPredicate) String() string {
	return fmt.Sprintf("(%s && %s)", p.Left, p.Right)
}

func (p *AndPredicate) Children() []Predicate { return []Predicate{p.Left, p.Right} }

func (p *OrPredicate) Evaluate(e exchange.Exchange) (bool, error) {
	ok, err := p.Left.Evaluate(e)
	if err != nil || ok {
		return ok, err
	}

	if err := e.Context().Err(); err != nil {
		return false, err
	}

	return p.Right.Evaluate(e)
}

func (p *OrPredicate) String() string {
	return fmt.Sprintf("(%s || %s)", p.Left, p.Right)
}

func (p *OrPredicate) Children() []Predicate { return []Predicate{p.Left, p.Right} }

func (p *NotPredicate) Evaluate(e exchange.Exchange) (bool, error) {
	ok, err := p.Predicate.Evaluate(e)
	if err != nil {
		return false, err
	}

	return !ok, nil
}

func (p *NotPredicate) String() string {
	return fmt.Sprintf("!(%s)", p.Predicate)
}

func (p *NotPredicate) Children() []Predicate { return []Predicate{p.Predicate} }

type always struct{}

func (always) Evaluate(exchange.Exchange) (bool, error) { return true, nil }
func (always) String() string                           { return "Always" }

// Always returns a predicate that matches every exchange. It is the
// predicate of routes without predicate definitions.
func Always() Predicate { return always{} }

// AndAll folds the predicates from left to right with And. An empty
// list results in Always.
func AndAll(p ...Predicate) Predicate {
	if len(p) == 0 {
		return Always()
	}

	result := p[0]
	for _, pi := range p[1:] {
		result = And(result, pi)
	}

	return result
}

// Walk visits the predicate tree in pre-order. When fn returns false,
// the children of the visited node are skipped.
func Walk(p Predicate, fn func(Predicate) bool) {
	if p == nil || !fn(p) {
		return
	}

	c, ok := p.(Composite)
	if !ok {
		return
	}

	for _, ci := range c.Children() {
		Walk(ci, fn)
	}
}

// Leaves returns the leaf predicates of a tree, from left to right.
func Leaves(p Predicate) []*Leaf {
	var leaves []*Leaf
	Walk(p, func(pi Predicate) bool {
		if l, ok := pi.(*Leaf); ok {
			leaves = append(leaves, l)
			return false
		}

		return true
	})

	return leaves
}
