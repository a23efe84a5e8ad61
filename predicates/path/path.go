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
Package path implements the Path predicate, matching the request path
against one or more path patterns.

The patterns support the wildcards ? (a single character), * (zero or
more characters within a segment) and ** (zero or more segments), and
the template variables {name}, {name:regexp} and, as the last segment,
{*name}, capturing the rest of the path. The captured variables are
stored as the URI variables of the exchange, and filters like SetPath
can use them.

By default, a request path with a trailing slash matches a pattern
without one. The trailing flag of the shortcut notation disables it.

Examples:

	predicates:
	- Path=/red/{segment}, /blue/**
	- Path=/exact, false
	- name: Path
	  args:
	    patterns: /api/{*rest}
	    matchTrailingSlash: false
*/
package path

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/pathpattern"
	"github.com/switchback/switchback/predicates"
)

const (
	patternsField           = "patterns"
	matchTrailingSlashField = "matchTrailingSlash"
)

type spec struct{}

type predicate struct {
	patterns []*pathpattern.Pattern
}

// New creates the Path predicate spec.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.PathName }

func (spec) ShortcutFieldOrder() []string {
	return []string{patternsField, matchTrailingSlashField}
}

func (spec) ShortcutType() args.ShortcutType { return args.GatherListTailFlag }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	patterns := v.Strings(patternsField)
	matchTrailingSlash := v.OptionalBool(matchTrailingSlashField, true)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: at least one path pattern is required", predicates.ErrInvalidPredicateParameters)
	}

	p := &predicate{}
	for _, s := range patterns {
		pp, err := pathpattern.CompilePath(s, matchTrailingSlash)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", predicates.ErrInvalidPredicateParameters, err)
		}

		p.patterns = append(p.patterns, pp)
	}

	return p, nil
}

func requestPath(r *http.Request) string {
	if r.URL.Path == "" {
		return "/"
	}

	return r.URL.Path
}

func (p *predicate) Evaluate(e exchange.Exchange) (bool, error) {
	path := requestPath(e.Request())
	for _, pp := range p.patterns {
		if vars, ok := pp.Match(path); ok {
			exchange.PutURIVariables(e, vars)
			return true, nil
		}
	}

	return false, nil
}

func (p *predicate) String() string {
	s := make([]string, len(p.patterns))
	for i, pp := range p.patterns {
		s[i] = pp.String()
	}

	return fmt.Sprintf("Paths: [%s]", strings.Join(s, ", "))
}
