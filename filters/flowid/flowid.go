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
Package flowid implements a filter identifying the requests through
their complete lifecycle, for logging and monitoring.

The filter sets a flow id in the X-Flow-Id header of the request
forwarded to the backend, and of the response returned to the client.
The backend can pass the same id to the services it calls, so their
logs can be correlated with the gateway logs.

The filter is installed as a global filter by default, but it can also
be used in a route:

	filters:
	- name: FlowId
	  args:
	    reuse: "true"
	    generator: standard
	    length: "32"

With reuse, a valid flow id received from the client is kept. The
default generator creates random UUIDs, the standard generator creates
random ids with the configured length, between 8 and 64 characters.
*/
package flowid

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

const (
	Name       = "FlowId"
	HeaderName = "X-Flow-Id"

	UUIDGenerator     = "uuid"
	StandardGenerator = "standard"

	// Order of the global flow id filter, it runs before any other.
	Order = math.MinInt

	reuseField     = "reuse"
	generatorField = "generator"
	lengthField    = "length"

	stateKey = "switchback:flowId"
)

// Options of the global filter.
type Options struct {
	// Reuse keeps the valid flow ids received from the client.
	Reuse bool

	// Generator creates the flow ids. Defaults to random UUIDs.
	Generator Generator
}

type spec struct{}

type filter struct {
	reuse     bool
	generator Generator
	order     int
}

type ordered struct{ *filter }

func (o ordered) Order() int { return o.order }

// New returns the spec of the route filter.
func New() filters.Spec { return spec{} }

// NewGlobal returns the flow id filter applied to every route.
func NewGlobal(o Options) filters.Filter {
	if o.Generator == nil {
		o.Generator = NewUUIDGenerator()
	}

	return ordered{&filter{reuse: o.Reuse, generator: o.Generator, order: Order}}
}

func (spec) Name() string { return Name }

func (spec) ShortcutFieldOrder() []string { return []string{reuseField, generatorField, lengthField} }

func (spec) CreateFilter(v *args.Values) (filters.Filter, error) {
	reuse := v.OptionalBool(reuseField, false)
	generator := v.OptionalString(generatorField, UUIDGenerator)
	length := v.OptionalInt(lengthField, DefaultLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var (
		g   Generator
		err error
	)

	switch generator {
	case UUIDGenerator:
		g = NewUUIDGenerator()
	case StandardGenerator:
		g, err = NewStandardGenerator(length)
	default:
		err = fmt.Errorf("unknown generator: %s", generator)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	return &filter{reuse: reuse, generator: g}, nil
}

func (f *filter) Request(ctx filters.FilterContext) {
	r := ctx.Request()
	if id, ok := ctx.StateBag()[stateKey].(string); ok {
		r.Header.Set(HeaderName, id)
		return
	}

	id := r.Header.Get(HeaderName)
	if !f.reuse || !f.generator.IsValid(id) {
		var err error
		if id, err = f.generator.Generate(); err != nil {
			log.Errorf("Failed to generate flow id: %v", err)
			return
		}
	}

	r.Header.Set(HeaderName, id)
	ctx.StateBag()[stateKey] = id
}

func (f *filter) Response(ctx filters.FilterContext) {
	id, ok := ctx.StateBag()[stateKey].(string)
	rsp := ctx.Response()
	if !ok || rsp == nil || rsp.Header == nil {
		return
	}

	rsp.Header.Set(HeaderName, id)
}

// FromContext returns the flow id of the request, if it was set.
func FromContext(ctx filters.FilterContext) (string, bool) {
	id, ok := ctx.StateBag()[stateKey].(string)
	return id, ok
}
