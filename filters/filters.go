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
Package filters contains the definitions of the filter specifications
and the filter instances, and the registry to look up the
specifications by name.

A filter has two phases. The Request phase runs in the order of the
filter chain, before the request is forwarded to the backend. The
Response phase runs in reverse order, after the backend responded, and
only for those filters whose Request phase ran.

A filter stops the request phase by serving a response:

	func (f *deny) Request(ctx filters.FilterContext) {
		ctx.Serve(&http.Response{StatusCode: http.StatusForbidden})
	}

The filters that follow it in the chain are skipped, including the
backend, but the response phase of the filters that already ran, and
of the serving filter itself, still runs.

The position of a filter in the chain is decided by its order. Filters
that implement Ordered have an explicit order, the others get a
synthetic one from their position in the route definition. Lower
orders run earlier in the request phase.

To create a custom filter, implement the Spec and Filter interfaces,
and register the spec in the Registry used by the route compiler.
*/
package filters

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
)

// ErrInvalidFilterParameters is used in case of invalid filter parameters.
var ErrInvalidFilterParameters = errors.New("invalid filter parameters")

// FilterContext is the exchange of a single request, as seen by the
// filters.
type FilterContext = exchange.Exchange

// Filters are created by the Spec components, optionally using filter
// specific settings. When implementing filters, it needs to be taken
// into consideration, that filter instances are route specific and not
// request specific, so any state stored with a filter is shared between
// all requests for the same route and can cause concurrency issues.
type Filter interface {

	// The Request method is called while processing the incoming
	// request.
	Request(FilterContext)

	// The Response method is called while processing the response to
	// be returned.
	Response(FilterContext)
}

// Ordered is implemented by filters that need an explicit position in
// the filter chain, independent from their position in the route
// definition.
type Ordered interface {
	Order() int
}

// Spec objects are specifications for filters. When initializing the
// routes, the Filter instances are created using the Spec objects found
// in the registry.
//
// A Spec can implement args.ShortcutConfigurable and
// args.ShortcutTyped to accept positional arguments.
type Spec interface {

	// Name gives the name of the Spec. It is used to identify filters
	// in a route definition.
	Name() string

	// CreateFilter creates a Filter instance. Called with the bound
	// arguments of the definition, when the route is compiled.
	CreateFilter(*args.Values) (Filter, error)
}

// Registry is used to store and lookup filter specifications.
type Registry map[string]Spec

// Register a filter specification. A spec registered with the name of
// an existing one replaces it.
func (r Registry) Register(s Spec) {
	name := s.Name()
	if _, ok := r[name]; ok {
		log.Infof("Replacing %s filter specification", name)
	}

	r[name] = s
}

// Get returns the spec registered with name.
func (r Registry) Get(name string) (Spec, bool) {
	s, ok := r[name]
	return s, ok
}

// Names returns the registered names in alphabetical order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}

	slices.Sort(names)
	return names
}

// OrderOf returns the explicit order of a filter, if it has one.
func OrderOf(f Filter) (int, bool) {
	if o, ok := f.(Ordered); ok {
		return o.Order(), true
	}

	return 0, false
}

// SortStable sorts the items of a filter chain by their order. Items
// with equal order keep their relative position.
func SortStable[T any](items []T, order func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(order(a), order(b))
	})
}

// ServeStatus stops the request phase with an empty response. The
// header can be nil.
func ServeStatus(ctx FilterContext, status int, header http.Header) {
	if header == nil {
		header = make(http.Header)
	}

	ctx.Serve(&http.Response{
		StatusCode: status,
		Header:     header,
		Body:       http.NoBody,
		Request:    ctx.Request(),
	})
}

// ParseStatus accepts the numeric status codes between 100 and 599, and
// the upper case names of the known codes, with underscores for spaces.
func ParseStatus(s string) (int, error) {
	if code, err := strconv.Atoi(s); err == nil {
		if code < 100 || code > 599 {
			return 0, fmt.Errorf("%w: status code out of range: %d", ErrInvalidFilterParameters, code)
		}

		return code, nil
	}

	for code := 100; code < 600; code++ {
		text := http.StatusText(code)
		if text == "" {
			continue
		}

		name := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
		if name == strings.ToUpper(s) {
			return code, nil
		}
	}

	return 0, fmt.Errorf("%w: invalid status: %s", ErrInvalidFilterParameters, s)
}
