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

// Package exchange defines the per-request object that is threaded
// through predicate evaluation and filter execution.
package exchange

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
)

// Well-known keys of the state bag.
const (
	// RouteKey holds the matched route.
	RouteKey = "switchback:route"

	// PredicateRouteKey holds the id of the route whose predicate is
	// being evaluated.
	PredicateRouteKey = "switchback:predicateRouteId"

	// RouteIDKey can be set by a pre-resolution hook to select a route
	// by id, skipping predicate evaluation.
	RouteIDKey = "switchback:routeId"

	// HandlerMapperKey tells which component resolved the route.
	HandlerMapperKey = "switchback:handlerMapper"

	// URIVariablesKey holds the variables captured by path and host
	// patterns.
	URIVariablesKey = "switchback:uriTemplateVariables"

	// WeightKey holds the route selected for each weight group.
	WeightKey = "switchback:weights"

	// CachedBodyKey holds the request body once it was read by a
	// predicate or a filter.
	CachedBodyKey = "switchback:cachedRequestBody"
)

// DefaultMaxBodySize limits the size of the cached request body.
const DefaultMaxBodySize = 1 << 20

var ErrBodyTooLarge = errors.New("request body too large")

// Exchange provides the request and response objects and a mutable
// state bag to the predicates and filters of a single request.
type Exchange interface {

	// The incoming request. Filters may modify it in place before
	// it is forwarded.
	Request() *http.Request

	// The writer of the client response. Filters that write the
	// response directly need to call MarkServed.
	ResponseWriter() http.ResponseWriter

	// The response of the backend or the response set by a serving
	// filter. It is nil during the request phase until served.
	Response() *http.Response

	// Serve sets the response and stops the request phase of the
	// filter chain.
	Serve(*http.Response)

	// Served tells whether the request phase was stopped.
	Served() bool

	// MarkServed stops the request phase without setting a response.
	MarkServed()

	// StateBag can be used to pass values between predicates and
	// filters of the same request.
	StateBag() map[string]any

	// Context of the request, canceled when the client goes away.
	Context() context.Context
}

// HTTPExchange is the default implementation of Exchange.
type HTTPExchange struct {
	w        http.ResponseWriter
	r        *http.Request
	response *http.Response
	served   bool
	stateBag map[string]any
}

var _ Exchange = (*HTTPExchange)(nil)

func New(w http.ResponseWriter, r *http.Request) *HTTPExchange {
	return &HTTPExchange{
		w:        w,
		r:        r,
		stateBag: make(map[string]any),
	}
}

func (e *HTTPExchange) Request() *http.Request              { return e.r }
func (e *HTTPExchange) ResponseWriter() http.ResponseWriter { return e.w }
func (e *HTTPExchange) Response() *http.Response            { return e.response }
func (e *HTTPExchange) Served() bool                        { return e.served }
func (e *HTTPExchange) MarkServed()                         { e.served = true }
func (e *HTTPExchange) StateBag() map[string]any            { return e.stateBag }

func (e *HTTPExchange) Serve(rsp *http.Response) {
	e.response = rsp
	e.served = true
}

func (e *HTTPExchange) Context() context.Context {
	return e.r.Context()
}

// SetRequest replaces the request, e.g. to attach a derived context.
func (e *HTTPExchange) SetRequest(r *http.Request) {
	e.r = r
}

// ResetServed clears the served flag, keeping the response. The proxy
// calls it after the request phase, so response filters can serve a
// replacement response.
func (e *HTTPExchange) ResetServed() {
	e.served = false
}

// URIVariables returns the variables captured by the patterns of the
// matched route. The returned map must not be modified.
func URIVariables(e Exchange) map[string]string {
	v, _ := e.StateBag()[URIVariablesKey].(map[string]string)
	return v
}

// PutURIVariables merges captured variables into the state bag.
func PutURIVariables(e Exchange, vars map[string]string) {
	if len(vars) == 0 {
		return
	}

	current := URIVariables(e)
	merged := make(map[string]string, len(current)+len(vars))
	maps.Copy(merged, current)
	maps.Copy(merged, vars)
	e.StateBag()[URIVariablesKey] = merged
}

// CachedBody reads the request body at most once, stores it in the state
// bag, and replaces the request body with a reader of the cached bytes,
// so it can be forwarded. The read honours the request context.
func CachedBody(e Exchange, maxSize int64) ([]byte, error) {
	if b, ok := e.StateBag()[CachedBodyKey].([]byte); ok {
		return b, nil
	}

	r := e.Request()
	if r.Body == nil || r.Body == http.NoBody {
		e.StateBag()[CachedBodyKey] = []byte{}
		return nil, nil
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	type result struct {
		body []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxSize+1))
		done <- result{body: b, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-r.Context().Done():
		r.Body.Close()
		return nil, r.Context().Err()
	}

	if res.err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", res.err)
	}

	if int64(len(res.body)) > maxSize {
		// the rest of the body stays readable for the backend
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(res.body), r.Body), r.Body}

		return nil, ErrBodyTooLarge
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(res.body))

	e.StateBag()[CachedBodyKey] = res.body
	return res.body, nil
}
