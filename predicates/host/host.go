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

// Package host provides HTTP host header matching related predicates.
//
// The Host predicate accepts one or more host patterns, using the
// pattern language of the Path predicate with '.' as the separator.
// The port of the request host is ignored, and the matching is case
// insensitive. Captured variables are stored as URI variables.
//
//	predicates:
//	- Host=**.somehost.org, {sub}.anotherhost.org
package host

import (
	"fmt"
	"net"
	"strings"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/pathpattern"
	"github.com/switchback/switchback/predicates"
)

const patternsField = "patterns"

type spec struct{}

type predicate struct {
	patterns []*pathpattern.Pattern
}

// New creates a predicate specification, whose instances match the
// request host.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.HostName }

func (spec) ShortcutFieldOrder() []string    { return []string{patternsField} }
func (spec) ShortcutType() args.ShortcutType { return args.GatherList }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	patterns := v.Strings(patternsField)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: at least one host pattern is required", predicates.ErrInvalidPredicateParameters)
	}

	p := &predicate{}
	for _, s := range patterns {
		hp, err := pathpattern.CompileHost(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", predicates.ErrInvalidPredicateParameters, err)
		}

		p.patterns = append(p.patterns, hp)
	}

	return p, nil
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return host
}

func (p *predicate) Evaluate(e exchange.Exchange) (bool, error) {
	host := stripPort(e.Request().Host)
	for _, hp := range p.patterns {
		if vars, ok := hp.Match(host); ok {
			exchange.PutURIVariables(e, vars)
			return true, nil
		}
	}

	return false, nil
}

func (p *predicate) String() string {
	s := make([]string, len(p.patterns))
	for i, hp := range p.patterns {
		s[i] = hp.String()
	}

	return fmt.Sprintf("Hosts: [%s]", strings.Join(s, ", "))
}
