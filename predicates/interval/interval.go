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
Package interval implements custom predicates to match routes
only during some period of time. Package includes three predicates:
Between, Before and After. All predicates can be created using the date
represented as a string in RFC3339 format, optionally followed by a
zone id in brackets, or as a number of seconds since the Unix epoch.

Between predicate matches only if current date is inside the specified
range of dates. Range is a closed range, so boundaries are included in
the range. Between predicate requires two dates to be constructed.
Upper boundary must be after lower boundary.

Before predicate matches only if current date is before the specified
date. Boundary is not included in the range.

After predicate matches only if current date is after the specified
date. Boundary is not included in the range.

Examples:

	- Between=2016-01-01T12:00:00+02:00, 2016-02-01T12:00:00+02:00
	- Between=1451642400, 1454320800
	- Before=2017-01-20T17:42:47.789-07:00[America/Denver]
	- After=1451642400
*/
package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
)

type intervalType int

const (
	between intervalType = iota
	before
	after
)

const (
	datetimeField  = "datetime"
	datetime1Field = "datetime1"
	datetime2Field = "datetime2"
)

type spec struct {
	typ intervalType
}

type predicate struct {
	typ   intervalType
	begin time.Time
	end   time.Time
	now   func() time.Time
}

// Creates Between predicate.
func NewBetween() predicates.Spec { return &spec{between} }

// Creates Before predicate.
func NewBefore() predicates.Spec { return &spec{before} }

// Creates After predicate.
func NewAfter() predicates.Spec { return &spec{after} }

func (s *spec) Name() string {
	switch s.typ {
	case between:
		return predicates.BetweenName
	case before:
		return predicates.BeforeName
	case after:
		return predicates.AfterName
	default:
		panic("invalid interval predicate type")
	}
}

func (s *spec) ShortcutFieldOrder() []string {
	if s.typ == between {
		return []string{datetime1Field, datetime2Field}
	}

	return []string{datetimeField}
}

func (s *spec) Create(v *args.Values) (predicates.Predicate, error) {
	var raw []string
	if s.typ == between {
		raw = []string{v.String(datetime1Field), v.String(datetime2Field)}
	} else {
		raw = []string{v.String(datetimeField)}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	times := make([]time.Time, len(raw))
	for i, r := range raw {
		t, err := parseTime(r)
		if err != nil {
			return nil, err
		}

		times[i] = t
	}

	p := &predicate{typ: s.typ, now: time.Now}
	switch s.typ {
	case between:
		p.begin, p.end = times[0], times[1]
		if !p.begin.Before(p.end) {
			return nil, fmt.Errorf("%w: %s must be before %s", predicates.ErrInvalidPredicateParameters, raw[0], raw[1])
		}
	case before:
		p.end = times[0]
	case after:
		p.begin = times[0]
	}

	return p, nil
}

// parseTime accepts RFC3339 dates, with an optional zone id suffix
// like [Europe/Berlin], and seconds since the epoch.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '['); i > 0 && strings.HasSuffix(s, "]") {
		loc, err := time.LoadLocation(s[i+1 : len(s)-1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", predicates.ErrInvalidPredicateParameters, err)
		}

		t, err := parseTime(s[:i])
		if err != nil {
			return time.Time{}, err
		}

		return t.In(loc), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))), nil
	}

	return time.Time{}, fmt.Errorf("%w: invalid date: %q", predicates.ErrInvalidPredicateParameters, s)
}

func (p *predicate) Evaluate(exchange.Exchange) (bool, error) {
	now := p.now()

	switch p.typ {
	case between: // Between is inclusive and Before and After are exclusive
		return !now.Before(p.begin) && !now.After(p.end), nil
	case before:
		return now.Before(p.end), nil
	case after:
		return now.After(p.begin), nil
	}

	return false, nil
}

func (p *predicate) String() string {
	switch p.typ {
	case between:
		return fmt.Sprintf("Between: %s and %s", p.begin.Format(time.RFC3339), p.end.Format(time.RFC3339))
	case before:
		return fmt.Sprintf("Before: %s", p.end.Format(time.RFC3339))
	default:
		return fmt.Sprintf("After: %s", p.begin.Format(time.RFC3339))
	}
}
