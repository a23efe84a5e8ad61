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
Package pathpattern implements the pattern language of the Path and
Host predicates.

A pattern is split into segments by a separator, '/' for paths and
'.' for hosts. A segment can contain:

	?             exactly one character
	*             zero or more characters
	**            zero or more whole segments
	{name}        one or more characters, captured as a variable
	{name:regex}  characters matching regex, captured as a variable
	{*name}       zero or more whole segments, captured as a variable,
	              only allowed as the last segment

Examples:

	/foo/**            /foo, /foo/bar, /foo/bar/baz
	/users/{id:\d+}    /users/42
	/static/*.css      /static/main.css
	/files/{*path}     /files/a/b.txt, with path=/a/b.txt
	**.example.org     www.example.org, a.b.example.org
*/
package pathpattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidPattern = errors.New("invalid pattern")

var varName = regexp.MustCompile("^[A-Za-z_][A-Za-z0-9_]*$")

type segmentKind int

const (
	literal segmentKind = iota
	expression
	multi
	captureRest
)

type segment struct {
	kind  segmentKind
	text  string
	rx    *regexp.Regexp
	names []string
}

// Pattern is a compiled path or host pattern. It is safe for concurrent
// use.
type Pattern struct {
	source             string
	separator          byte
	caseInsensitive    bool
	matchTrailingSlash bool
	segments           []segment
}

// Options of pattern compilation.
type Options struct {

	// Separator of the segments.
	Separator byte

	// CaseInsensitive matching, used for hosts.
	CaseInsensitive bool

	// MatchTrailingSlash allows an input with a trailing separator to
	// match a pattern without one.
	MatchTrailingSlash bool
}

// CompilePath compiles a path pattern.
func CompilePath(p string, matchTrailingSlash bool) (*Pattern, error) {
	return Compile(p, Options{Separator: '/', MatchTrailingSlash: matchTrailingSlash})
}

// CompileHost compiles a host pattern.
func CompileHost(p string) (*Pattern, error) {
	return Compile(p, Options{Separator: '.', CaseInsensitive: true})
}

// Compile compiles a pattern.
func Compile(p string, o Options) (*Pattern, error) {
	if o.Separator == 0 {
		o.Separator = '/'
	}

	source := p
	if o.CaseInsensitive {
		p = strings.ToLower(p)
	}

	pt := &Pattern{
		source:             source,
		separator:          o.Separator,
		caseInsensitive:    o.CaseInsensitive,
		matchTrailingSlash: o.MatchTrailingSlash,
	}

	parts := pt.split(p)
	for i, s := range parts {
		seg, err := compileSegment(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPattern, source, err)
		}

		if seg.kind == captureRest && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: %s: capture of the remaining segments must be last", ErrInvalidPattern, source)
		}

		pt.segments = append(pt.segments, seg)
	}

	return pt, nil
}

// MustCompilePath compiles a path pattern and panics on error.
func MustCompilePath(p string) *Pattern {
	pt, err := CompilePath(p, true)
	if err != nil {
		panic(err)
	}

	return pt
}

func (p *Pattern) split(s string) []string {
	if p.separator == '/' {
		s = strings.TrimPrefix(s, "/")
	}

	if s == "" {
		return nil
	}

	return strings.Split(s, string(p.separator))
}

func (p *Pattern) String() string {
	return p.source
}

// Match matches the input against the pattern, and returns the
// captured variables on success.
func (p *Pattern) Match(s string) (map[string]string, bool) {
	if p.caseInsensitive {
		s = strings.ToLower(s)
	}

	vars := make(map[string]string)
	if p.match(p.split(s), 0, vars) {
		return vars, true
	}

	sep := string(p.separator)
	if p.matchTrailingSlash && len(s) > 1 && strings.HasSuffix(s, sep) {
		clear(vars)
		if p.match(p.split(strings.TrimSuffix(s, sep)), 0, vars) {
			return vars, true
		}
	}

	return nil, false
}

func (p *Pattern) match(input []string, si int, vars map[string]string) bool {
	return p.matchFrom(0, input, si, vars)
}

func (p *Pattern) matchFrom(pi int, input []string, si int, vars map[string]string) bool {
	for pi < len(p.segments) {
		seg := p.segments[pi]
		switch seg.kind {
		case multi:
			// try every possible number of consumed segments, shortest first
			for k := si; k <= len(input); k++ {
				captured := make(map[string]string)
				if p.matchFrom(pi+1, input, k, captured) {
					for n, v := range captured {
						vars[n] = v
					}

					return true
				}
			}

			return false
		case captureRest:
			rest := ""
			if si < len(input) {
				rest = string(p.separator) + strings.Join(input[si:], string(p.separator))
			}

			vars[seg.names[0]] = rest
			return true
		}

		if si >= len(input) {
			return false
		}

		switch seg.kind {
		case literal:
			if input[si] != seg.text {
				return false
			}
		case expression:
			m := seg.rx.FindStringSubmatch(input[si])
			if m == nil {
				return false
			}

			for i, n := range seg.rx.SubexpNames() {
				if n != "" {
					vars[n] = m[i]
				}
			}
		}

		pi++
		si++
	}

	return si == len(input)
}

func compileSegment(s string) (segment, error) {
	switch {
	case s == "**":
		return segment{kind: multi}, nil
	case strings.HasPrefix(s, "{*") && strings.HasSuffix(s, "}"):
		name := s[2 : len(s)-1]
		if !varName.MatchString(name) {
			return segment{}, fmt.Errorf("invalid variable name: %q", name)
		}

		return segment{kind: captureRest, names: []string{name}}, nil
	case !strings.ContainsAny(s, "{}*?"):
		return segment{kind: literal, text: s}, nil
	}

	var (
		expr  strings.Builder
		names []string
	)

	expr.WriteString("^")
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '*':
			expr.WriteString(".*")
		case '?':
			expr.WriteString(".")
		case '{':
			end, err := closingBrace(s, i)
			if err != nil {
				return segment{}, err
			}

			name, rx, hasRx := strings.Cut(s[i+1:end], ":")
			if !varName.MatchString(name) {
				return segment{}, fmt.Errorf("invalid variable name: %q", name)
			}

			if !hasRx {
				rx = ".+?"
			}

			names = append(names, name)
			fmt.Fprintf(&expr, "(?P<%s>%s)", name, rx)
			i = end
		case '}':
			return segment{}, errors.New("unbalanced braces")
		default:
			expr.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	expr.WriteString("$")
	rx, err := regexp.Compile(expr.String())
	if err != nil {
		return segment{}, err
	}

	return segment{kind: expression, text: s, rx: rx, names: names}, nil
}

func closingBrace(s string, start int) (int, error) {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return 0, errors.New("unbalanced braces")
}
