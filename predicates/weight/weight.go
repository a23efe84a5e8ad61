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
Package weight implements the Weight predicate, splitting the traffic of
a group of routes by relative weights.

	- id: v1
	  uri: https://v1.example.org
	  predicates:
	  - Weight=service, 8
	- id: v2
	  uri: https://v2.example.org
	  predicates:
	  - Weight=service, 2

The predicates only compare the route id with the selection made for
the request. The selection is made by the Calculator, which needs to be
registered both as a refresh observer and as a resolution hook of the
routing.
*/
package weight

import (
	"fmt"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
)

const (
	groupField  = "group"
	weightField = "weight"
)

type spec struct{}

type predicate struct {
	group   string
	weight  int
	routeID string
}

// New creates the spec of the Weight predicate.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.WeightName }

func (spec) ShortcutFieldOrder() []string { return []string{groupField, weightField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	p := &predicate{
		group:   v.String(groupField),
		weight:  v.Int(weightField),
		routeID: v.RouteID(),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if p.group == "" {
		return nil, fmt.Errorf("%w: empty weight group", predicates.ErrInvalidPredicateParameters)
	}

	if p.weight < 0 {
		return nil, fmt.Errorf("%w: negative weight %d", predicates.ErrInvalidPredicateParameters, p.weight)
	}

	return p, nil
}

// Evaluate matches when the route was selected for its group.
func (p *predicate) Evaluate(e exchange.Exchange) (bool, error) {
	selected, _ := e.StateBag()[exchange.WeightKey].(map[string]string)
	return selected[p.group] == p.routeID, nil
}

func (p *predicate) String() string {
	return fmt.Sprintf("Weight: group=%s weight=%d", p.group, p.weight)
}
