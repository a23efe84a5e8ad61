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

package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

type pathBehavior int

const (
	stripPrefix pathBehavior = iota
	prefixPath
	setPath
	rewritePath
)

const (
	partsField       = "parts"
	prefixField      = "prefix"
	templateField    = "template"
	regexpField      = "regexp"
	replacementField = "replacement"
)

type modPath struct {
	behavior    pathBehavior
	parts       int
	prefix      *template
	template    *template
	rx          *regexp.Regexp
	replacement string
}

// NewStripPrefix returns a filter specification that removes the first
// n segments of the request path. Instances expect the number of the
// segments, default 1.
func NewStripPrefix() filters.Spec { return &modPath{behavior: stripPrefix} }

// NewPrefixPath returns a filter specification that prepends a prefix
// to the request path.
func NewPrefixPath() filters.Spec { return &modPath{behavior: prefixPath} }

// NewSetPath returns a filter specification that replaces the request
// path with a template, e.g. /v2/{segment}.
func NewSetPath() filters.Spec { return &modPath{behavior: setPath} }

// NewRewritePath returns a filter specification that replaces the
// matches of a regular expression in the request path. The replacement
// can refer to named groups as ${name}. The form $\{name} is accepted
// too, for configuration formats that would interpolate ${name}.
func NewRewritePath() filters.Spec { return &modPath{behavior: rewritePath} }

func (spec *modPath) Name() string {
	switch spec.behavior {
	case stripPrefix:
		return StripPrefixName
	case prefixPath:
		return PrefixPathName
	case setPath:
		return SetPathName
	default:
		return RewritePathName
	}
}

func (spec *modPath) ShortcutFieldOrder() []string {
	switch spec.behavior {
	case stripPrefix:
		return []string{partsField}
	case prefixPath:
		return []string{prefixField}
	case setPath:
		return []string{templateField}
	default:
		return []string{regexpField, replacementField}
	}
}

func (spec *modPath) CreateFilter(v *args.Values) (filters.Filter, error) {
	f := &modPath{behavior: spec.behavior}
	switch spec.behavior {
	case stripPrefix:
		f.parts = v.OptionalInt(partsField, 1)
	case prefixPath:
		f.prefix = newTemplate(v.String(prefixField))
	case setPath:
		f.template = newTemplate(v.String(templateField))
	default:
		f.rx = v.Regexp(regexpField)
		f.replacement = strings.ReplaceAll(v.OptionalString(replacementField, ""), `$\`, "$")
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if f.parts < 0 {
		return nil, fmt.Errorf("%w: negative number of parts: %d", filters.ErrInvalidFilterParameters, f.parts)
	}

	return f, nil
}

func strip(path string, n int) string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if n >= len(segments) {
		return "/"
	}

	p := "/" + strings.Join(segments[n:], "/")
	if strings.HasSuffix(path, "/") {
		p += "/"
	}

	return p
}

func (f *modPath) Request(ctx filters.FilterContext) {
	u := ctx.Request().URL
	switch f.behavior {
	case stripPrefix:
		u.Path = strip(u.Path, f.parts)
	case prefixPath:
		u.Path = f.prefix.expand(ctx) + u.Path
	case setPath:
		u.Path = f.template.expand(ctx)
	default:
		u.Path = f.rx.ReplaceAllString(u.Path, f.replacement)
	}

	// the raw path would not match the new path anymore
	u.RawPath = ""
}

func (*modPath) Response(filters.FilterContext) {}
