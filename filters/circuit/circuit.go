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
Package circuit provides the CircuitBreaker filter.

The filter guards the routes with the breakers of the circuit package.
When the breaker of the route is open, the request is rejected with
503 Service Unavailable, and the backend is not called.

	- id: checkout
	  uri: https://checkout.example.org
	  filters:
	  - name: CircuitBreaker
	    args:
	      type: rate
	      failures: 30
	      window: 100
	      timeout: 30s

The breaker is identified by the name argument, or by the route id when
the name is not set. Unset arguments are taken from the configured
breaker settings.

By default, a missing response and the 5xx status codes count as
failures. The statusCodes argument replaces the default set.
*/
package circuit

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/circuit"
	"github.com/switchback/switchback/filters"
)

const (
	Name = "CircuitBreaker"

	stateBagKey = "switchback:circuitBreakerDone"
)

const (
	nameField             = "name"
	typeField             = "type"
	failuresField         = "failures"
	windowField           = "window"
	timeoutField          = "timeout"
	halfOpenRequestsField = "halfOpenRequests"
	statusCodesField      = "statusCodes"
)

type spec struct {
	registry *circuit.Registry
}

type filter struct {
	registry    *circuit.Registry
	settings    circuit.Settings
	statusCodes []int
}

// New creates the spec of the CircuitBreaker filter. The breakers are
// taken from the registry.
func New(r *circuit.Registry) filters.Spec {
	if r == nil {
		r = circuit.NewRegistry()
	}

	return &spec{registry: r}
}

func (*spec) Name() string { return Name }

func (*spec) ShortcutFieldOrder() []string { return []string{nameField} }

func (s *spec) CreateFilter(v *args.Values) (filters.Filter, error) {
	settings := circuit.Settings{
		Name:             v.OptionalString(nameField, v.RouteID()),
		Failures:         v.OptionalInt(failuresField, 0),
		Window:           v.OptionalInt(windowField, 0),
		Timeout:          v.OptionalDuration(timeoutField, 0),
		HalfOpenRequests: v.OptionalInt(halfOpenRequestsField, 0),
	}

	typ := v.OptionalString(typeField, "")
	codes := v.OptionalStrings(statusCodesField)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if typ != "" {
		t, err := circuit.ParseType(typ)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
		}

		settings.Type = t
	}

	if settings.Failures < 0 || settings.Window < 0 || settings.HalfOpenRequests < 0 {
		return nil, fmt.Errorf("%w: negative breaker setting", filters.ErrInvalidFilterParameters)
	}

	f := &filter{registry: s.registry, settings: settings}
	for _, c := range codes {
		code, err := strconv.Atoi(c)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("%w: invalid status code %q", filters.ErrInvalidFilterParameters, c)
		}

		f.statusCodes = append(f.statusCodes, code)
	}

	return f, nil
}

func (f *filter) failed(rsp *http.Response) bool {
	if rsp == nil {
		return true
	}

	if len(f.statusCodes) > 0 {
		return slices.Contains(f.statusCodes, rsp.StatusCode)
	}

	return rsp.StatusCode >= http.StatusInternalServerError
}

func (f *filter) Request(ctx filters.FilterContext) {
	b := f.registry.Get(f.settings)
	if b == nil {
		return
	}

	done, ok := b.Allow()
	if !ok {
		log.Debugf("Circuit breaker %s is open", f.settings.Name)
		h := make(http.Header)
		h.Set("X-Circuit-Open", "true")
		filters.ServeStatus(ctx, http.StatusServiceUnavailable, h)
		return
	}

	ctx.StateBag()[stateBagKey+f.settings.Name] = done
}

func (f *filter) Response(ctx filters.FilterContext) {
	done, ok := ctx.StateBag()[stateBagKey+f.settings.Name].(circuit.Done)
	if !ok {
		return
	}

	delete(ctx.StateBag(), stateBagKey+f.settings.Name)

	// a canceled client request tells nothing about the backend
	if ctx.Context().Err() != nil {
		done(true)
		return
	}

	done(!f.failed(ctx.Response()))
}
