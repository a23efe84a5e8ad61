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

// Package filtertest implements mock versions of the Filter, Spec and
// FilterContext interfaces used during tests.
package filtertest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/filters"
)

// Filter is a noop filter and filter spec, that stores the arguments
// it was created with.
type Filter struct {
	FilterName string

	// Fields, when set, enable the shortcut notation.
	Fields []string

	Args map[string][]string
}

func (spec *Filter) Name() string                 { return spec.FilterName }
func (spec *Filter) ShortcutFieldOrder() []string { return spec.Fields }
func (f *Filter) Request(filters.FilterContext)   {}
func (f *Filter) Response(filters.FilterContext)  {}

func (spec *Filter) CreateFilter(v *args.Values) (filters.Filter, error) {
	a := make(map[string][]string)
	for _, k := range v.Keys() {
		a[k] = v.OptionalStrings(k)
	}

	return &Filter{FilterName: spec.FilterName, Args: a}, nil
}

// NewContext creates an exchange for the request, with a response
// recorder.
func NewContext(r *http.Request) *exchange.HTTPExchange {
	return exchange.New(httptest.NewRecorder(), r)
}

// Func adapts ordinary functions to the Filter interface. Either of the
// functions can be nil.
type Func struct {
	RequestFunc  func(filters.FilterContext)
	ResponseFunc func(filters.FilterContext)
}

func (f Func) Request(ctx filters.FilterContext) {
	if f.RequestFunc != nil {
		f.RequestFunc(ctx)
	}
}

func (f Func) Response(ctx filters.FilterContext) {
	if f.ResponseFunc != nil {
		f.ResponseFunc(ctx)
	}
}

type ordered struct {
	filters.Filter
	order int
}

func (o ordered) Order() int { return o.order }

// WithOrder wraps a filter with an explicit order.
func WithOrder(f filters.Filter, order int) filters.Filter {
	return ordered{Filter: f, order: order}
}

// Serve returns a filter that serves a response with the status code
// in its request phase.
func Serve(status int) filters.Filter {
	return Func{RequestFunc: func(ctx filters.FilterContext) {
		ctx.Serve(&http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       http.NoBody,
		})
	}}
}

// Panic returns a filter that panics in its request phase.
func Panic(msg string) filters.Filter {
	return Func{RequestFunc: func(filters.FilterContext) { panic(msg) }}
}

// Trace records the phases of the filters created by it, in the order
// they ran.
type Trace struct {
	mu     sync.Mutex
	events []string
}

func (t *Trace) record(e string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

// Filter returns a filter that records "<name>.request" and
// "<name>.response" events.
func (t *Trace) Filter(name string) filters.Filter {
	return Func{
		RequestFunc:  func(filters.FilterContext) { t.record(fmt.Sprintf("%s.request", name)) },
		ResponseFunc: func(filters.FilterContext) { t.record(fmt.Sprintf("%s.response", name)) },
	}
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

// Spec returns a spec that creates the same filter instance for every
// definition, ignoring the arguments.
func Spec(name string, f filters.Filter) filters.Spec {
	return &fixedSpec{name: name, filter: f}
}

type fixedSpec struct {
	name   string
	filter filters.Filter
}

func (s *fixedSpec) Name() string { return s.name }

func (s *fixedSpec) CreateFilter(v *args.Values) (filters.Filter, error) {
	for _, k := range v.Keys() {
		v.OptionalStrings(k)
	}

	return s.filter, nil
}

// RouteID is the route id the test filters are created for.
const RouteID = "test-route"

// Create binds the arguments of a definition the same way the route
// compiler does, and creates the filter.
func Create(spec filters.Spec, def *eskip.FilterDefinition) (filters.Filter, error) {
	v := args.Bind(RouteID, def.Args, spec)
	f, err := spec.CreateFilter(v)
	if err != nil {
		return nil, err
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return f, nil
}

// Parse creates a filter from the shortcut notation and fails the test
// on errors.
func Parse(t testing.TB, spec filters.Spec, shortcut string) filters.Filter {
	t.Helper()

	f, err := ParseErr(spec, shortcut)
	if err != nil {
		t.Fatalf("failed to create %q: %v", shortcut, err)
	}

	return f
}

// ParseErr creates a filter from the shortcut notation.
func ParseErr(spec filters.Spec, shortcut string) (filters.Filter, error) {
	def, err := eskip.ParseFilter(shortcut)
	if err != nil {
		return nil, err
	}

	return Create(spec, def)
}

// Run runs the request phase of the filters in order until one serves,
// then the response phase of those that ran, in reverse order. When no
// filter serves, backend provides the response.
func Run(ctx *exchange.HTTPExchange, backend func(*http.Request) *http.Response, fs ...filters.Filter) {
	var ran []filters.Filter
	for _, f := range fs {
		ran = append(ran, f)
		f.Request(ctx)
		if ctx.Served() {
			break
		}
	}

	if !ctx.Served() && backend != nil {
		ctx.Serve(backend(ctx.Request()))
	}

	ctx.ResetServed()
	for i := len(ran) - 1; i >= 0; i-- {
		ran[i].Response(ctx)
	}
}

// Respond returns a backend function for Run, responding with the
// status code.
func Respond(status int) func(*http.Request) *http.Response {
	return func(r *http.Request) *http.Response {
		return &http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       http.NoBody,
			Request:    r,
		}
	}
}
