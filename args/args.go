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
Package args binds the raw arguments of predicate and filter
definitions to the named fields of their factories.

Positional arguments of the shortcut notation are mapped to field
names by the factory's shortcut field order, and the shortcut type
decides how:

	Default             the i-th value binds to the i-th field
	GatherList          all values bind to the first field, as a list
	GatherListTailFlag  like GatherList, but a trailing true or false
	                    binds to the second field

The accessors of Values convert and validate the bound arguments.
Every failed conversion, every missing required field, and every
argument that no accessor asked for, is reported by Err().

Example usage:

	v := args.Bind(routeID, def.Args, spec)
	header, re := v.String("header"), v.OptionalRegexp("regexp", nil)
	if err := v.Err(); err != nil {
		return nil, err
	}
*/
package args

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/switchback/switchback/eskip"
)

type ShortcutType int

const (
	Default ShortcutType = iota
	GatherList
	GatherListTailFlag
)

func (t ShortcutType) String() string {
	switch t {
	case GatherList:
		return "GATHER_LIST"
	case GatherListTailFlag:
		return "GATHER_LIST_TAIL_FLAG"
	default:
		return "DEFAULT"
	}
}

// ShortcutConfigurable is implemented by factories that accept the
// positional arguments of the shortcut notation.
type ShortcutConfigurable interface {
	ShortcutFieldOrder() []string
}

// ShortcutTyped is implemented by factories that bind the positional
// arguments other than one by one.
type ShortcutTyped interface {
	ShortcutType() ShortcutType
}

var ErrInvalidArguments = errors.New("invalid arguments")

// Values holds the normalized arguments of a single predicate or
// filter definition.
type Values struct {
	routeID string
	keys    []string
	values  map[string][]string
	read    map[string]bool
	errs    []error
}

type positional struct {
	index int
	value string
}

// Bind normalizes the arguments of a definition. The hints argument is
// typically the factory itself, and it can implement
// ShortcutConfigurable and ShortcutTyped.
func Bind(routeID string, a eskip.Args, hints any) *Values {
	v := &Values{
		routeID: routeID,
		values:  make(map[string][]string),
		read:    make(map[string]bool),
	}

	var pos []positional
	for _, ai := range a {
		if i, ok := eskip.IsGeneratedKey(ai.Key); ok {
			pos = append(pos, positional{index: i, value: ai.Value})
			continue
		}

		v.add(ai.Key, ai.Value)
	}

	if len(pos) == 0 {
		return v
	}

	slices.SortStableFunc(pos, func(a, b positional) int { return a.index - b.index })

	var fields []string
	if sc, ok := hints.(ShortcutConfigurable); ok {
		fields = sc.ShortcutFieldOrder()
	}

	st := Default
	if t, ok := hints.(ShortcutTyped); ok {
		st = t.ShortcutType()
	}

	if len(fields) == 0 {
		v.error(fmt.Errorf("positional arguments are not supported"))
		return v
	}

	switch st {
	case GatherList, GatherListTailFlag:
		if st == GatherListTailFlag && len(fields) > 1 {
			last := pos[len(pos)-1].value
			if strings.EqualFold(last, "true") || strings.EqualFold(last, "false") {
				pos = pos[:len(pos)-1]
				v.add(fields[1], strings.ToLower(last))
			}
		}

		// an empty list still counts as set
		if len(pos) == 0 {
			v.setEmpty(fields[0])
		}

		for _, p := range pos {
			v.add(fields[0], p.value)
		}
	default:
		for i, p := range pos {
			if i >= len(fields) {
				v.error(fmt.Errorf("too many positional arguments: %d, expected at most %d", len(pos), len(fields)))
				break
			}

			v.add(fields[i], p.value)
		}
	}

	return v
}

func (v *Values) add(key, value string) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}

	v.values[key] = append(v.values[key], value)
}

func (v *Values) setEmpty(key string) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
		v.values[key] = nil
	}
}

func (v *Values) error(err error) {
	v.errs = append(v.errs, err)
}

func (v *Values) get(key string) (string, bool) {
	v.read[key] = true
	values, ok := v.values[key]
	if !ok || len(values) == 0 {
		return "", ok
	}

	if len(values) > 1 {
		v.error(fmt.Errorf("argument %s: expected a single value, got %d", key, len(values)))
	}

	return values[0], true
}

func (v *Values) required(key string) (string, bool) {
	s, ok := v.get(key)
	if !ok {
		v.error(fmt.Errorf("missing argument: %s", key))
	}

	return s, ok
}

// RouteID returns the id of the route that the arguments belong to.
func (v *Values) RouteID() string {
	return v.routeID
}

// Has tells whether an argument was set, without marking it as read.
func (v *Values) Has(key string) bool {
	_, ok := v.values[key]
	return ok
}

// Keys returns the bound field names in the order of declaration.
func (v *Values) Keys() []string {
	return slices.Clone(v.keys)
}

func (v *Values) String(key string) string {
	s, _ := v.required(key)
	return s
}

func (v *Values) OptionalString(key, defaultValue string) string {
	if s, ok := v.get(key); ok {
		return s
	}

	return defaultValue
}

// Strings returns every value of a list valued argument. A missing
// argument is an error, an empty list is not.
func (v *Values) Strings(key string) []string {
	v.read[key] = true
	values, ok := v.values[key]
	if !ok {
		v.error(fmt.Errorf("missing argument: %s", key))
		return nil
	}

	return slices.Clone(values)
}

func (v *Values) OptionalStrings(key string) []string {
	v.read[key] = true
	return slices.Clone(v.values[key])
}

func (v *Values) parseInt(key, s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		v.error(fmt.Errorf("argument %s: %q is not an integer", key, s))
	}

	return i
}

func (v *Values) Int(key string) int {
	if s, ok := v.required(key); ok {
		return v.parseInt(key, s)
	}

	return 0
}

func (v *Values) OptionalInt(key string, defaultValue int) int {
	if s, ok := v.get(key); ok {
		return v.parseInt(key, s)
	}

	return defaultValue
}

func (v *Values) parseFloat(key, s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		v.error(fmt.Errorf("argument %s: %q is not a number", key, s))
	}

	return f
}

func (v *Values) Float64(key string) float64 {
	if s, ok := v.required(key); ok {
		return v.parseFloat(key, s)
	}

	return 0
}

func (v *Values) OptionalFloat64(key string, defaultValue float64) float64 {
	if s, ok := v.get(key); ok {
		return v.parseFloat(key, s)
	}

	return defaultValue
}

func (v *Values) parseBool(key, s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		v.error(fmt.Errorf("argument %s: %q is not a boolean", key, s))
	}

	return b
}

func (v *Values) Bool(key string) bool {
	if s, ok := v.required(key); ok {
		return v.parseBool(key, s)
	}

	return false
}

func (v *Values) OptionalBool(key string, defaultValue bool) bool {
	if s, ok := v.get(key); ok {
		return v.parseBool(key, s)
	}

	return defaultValue
}

// parseDuration accepts Go durations, and plain numbers as seconds.
// Negative durations are rejected.
func (v *Values) parseDuration(key, s string) time.Duration {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		n, nerr := strconv.ParseFloat(s, 64)
		if nerr != nil {
			v.error(fmt.Errorf("argument %s: %q is not a duration", key, s))
			return 0
		}

		d = time.Duration(n * float64(time.Second))
	}

	if d < 0 {
		v.error(fmt.Errorf("argument %s: duration %v is negative", key, s))
		return 0
	}

	return d
}

func (v *Values) Duration(key string) time.Duration {
	if s, ok := v.required(key); ok {
		return v.parseDuration(key, s)
	}

	return 0
}

func (v *Values) OptionalDuration(key string, defaultValue time.Duration) time.Duration {
	if s, ok := v.get(key); ok {
		return v.parseDuration(key, s)
	}

	return defaultValue
}

func (v *Values) parseRegexp(key, s string) *regexp.Regexp {
	rx, err := regexp.Compile(s)
	if err != nil {
		v.error(fmt.Errorf("argument %s: %w", key, err))
	}

	return rx
}

func (v *Values) Regexp(key string) *regexp.Regexp {
	if s, ok := v.required(key); ok {
		return v.parseRegexp(key, s)
	}

	return nil
}

// OptionalRegexp returns the default value when the argument is
// missing or empty.
func (v *Values) OptionalRegexp(key string, defaultValue *regexp.Regexp) *regexp.Regexp {
	if s, ok := v.get(key); ok && s != "" {
		return v.parseRegexp(key, s)
	}

	return defaultValue
}

// Err returns the accumulated errors, including the arguments that no
// accessor asked for. Call it after every argument was read.
func (v *Values) Err() error {
	errs := slices.Clone(v.errs)
	for _, k := range v.keys {
		if !v.read[k] {
			errs = append(errs, fmt.Errorf("unexpected argument: %s", k))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidArguments, errors.Join(errs...))
}
