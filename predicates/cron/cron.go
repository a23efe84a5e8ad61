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
Package cron implements custom predicates to match routes
only when they also match the system time matches the given
cron-like expressions.

Package includes a single predicate: Cron.

For supported & unsupported features refer to the "cronmask" package
documentation (https://github.com/sarslanhan/cronmask).

	# weekdays, between 9:00 and 17:59
	- Cron=* 9-17 * * 1-5
*/
package cron

import (
	"fmt"
	"time"

	"github.com/sarslanhan/cronmask"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
)

const expressionField = "expression"

type clock func() time.Time

type spec struct{}

func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.CronName }

func (spec) ShortcutFieldOrder() []string { return []string{expressionField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	expr := v.String(expressionField)
	if err := v.Err(); err != nil {
		return nil, err
	}

	mask, err := cronmask.New(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", predicates.ErrInvalidPredicateParameters, err)
	}

	return &predicate{
		expr:    expr,
		mask:    mask,
		getTime: time.Now,
	}, nil
}

type predicate struct {
	expr    string
	mask    *cronmask.CronMask
	getTime clock
}

func (p *predicate) Evaluate(exchange.Exchange) (bool, error) {
	return p.mask.Match(p.getTime()), nil
}

func (p *predicate) String() string {
	return fmt.Sprintf("Cron: %s", p.expr)
}
