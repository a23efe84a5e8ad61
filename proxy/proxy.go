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

package proxy

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/metrics"
	"github.com/switchback/switchback/routing"
)

const proxyBufferSize = 8192

// Resolver finds the route of a request, e.g. *routing.Routing.
type Resolver interface {
	Resolve(exchange.Exchange) (*routing.Route, error)
}

// Options of the proxy.
type Options struct {

	// Routing resolves the routes of the requests.
	Routing Resolver

	// GlobalFilters are applied to every route.
	GlobalFilters []GlobalFilter

	// RouteFilterCacheEnabled caches the filter chain of the routes
	// until the next route refresh.
	RouteFilterCacheEnabled bool

	// Backend defaults to NewBackend with the default options.
	Backend Backend

	Log     logging.Logger
	Metrics metrics.Metrics
}

// Proxy is the HTTP handler of the gateway. It needs to be subscribed
// to the route refreshes, when the filter chain cache is enabled.
type Proxy struct {
	routing   Resolver
	assembler *assembler
	backend   Backend
	log       logging.Logger
	metrics   metrics.Metrics
}

var (
	_ http.Handler            = (*Proxy)(nil)
	_ routing.RefreshObserver = (*Proxy)(nil)
)

func New(o Options) *Proxy {
	if o.Log == nil {
		o.Log = logging.New("proxy")
	}

	if o.Metrics == nil {
		o.Metrics = metrics.Default
	}

	if o.Backend == nil {
		o.Backend = NewBackend(BackendOptions{Log: o.Log})
	}

	return &Proxy{
		routing:   o.Routing,
		assembler: newAssembler(o.GlobalFilters, o.RouteFilterCacheEnabled),
		backend:   o.Backend,
		log:       o.Log,
		metrics:   o.Metrics,
	}
}

// OnRefresh invalidates the cached filter chains.
func (p *Proxy) OnRefresh(e routing.RefreshEvent) {
	p.assembler.OnRefresh(e)
}

// Filters returns the filter chain of the route, including the global
// filters, in the order of the request phase.
func (p *Proxy) Filters(rt *routing.Route) []*routing.RouteFilter {
	return p.assembler.chain(rt)
}

// GlobalFilters returns the global filters with their orders.
func (p *Proxy) GlobalFilters() []*routing.RouteFilter {
	return append([]*routing.RouteFilter(nil), p.assembler.globals...)
}

var caughtPanic atomic.Bool

// tryCatch executes function `f` and `onErr` if `f` panics
// onErr will receive a stack trace string of the first panic
// further panics are ignored for efficiency reasons
func tryCatch(f func(), onErr func(err any, stack string)) {
	defer func() {
		if err := recover(); err != nil {
			s := ""
			if caughtPanic.CompareAndSwap(false, true) {
				buf := make([]byte, 1024)
				l := runtime.Stack(buf, false)
				s = string(buf[:l])
			}

			onErr(err, s)
		}
	}()

	f()
}

func textResponse(r *http.Request, code int) *http.Response {
	body := http.StatusText(code) + "\n"
	return &http.Response{
		StatusCode: code,
		Header: http.Header{
			"Content-Type":           []string{"text/plain; charset=utf-8"},
			"X-Content-Type-Options": []string{"nosniff"},
		},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       r,
	}
}

// replaces the current response with a 500, closing the body of the
// replaced one
func serveFilterPanic(ctx *exchange.HTTPExchange) {
	if rsp := ctx.Response(); rsp != nil && rsp.Body != nil {
		rsp.Body.Close()
	}

	ctx.Serve(textResponse(ctx.Request(), http.StatusInternalServerError))
}

// applies filters to a request, until one serves a response, and
// returns those that ran
func (p *Proxy) applyFiltersToRequest(rt *routing.Route, chain []*routing.RouteFilter, ctx *exchange.HTTPExchange) []*routing.RouteFilter {
	if len(chain) == 0 {
		return nil
	}

	filtersStart := time.Now()
	ran := make([]*routing.RouteFilter, 0, len(chain))
	for _, fi := range chain {
		start := time.Now()
		tryCatch(func() {
			fi.Request(ctx)
			p.metrics.MeasureFilterRequest(fi.Name, start)
		}, func(err any, stack string) {
			p.log.Errorf("error while processing filter during request: %s: %v (%s)", fi.Name, err, stack)
			p.metrics.IncFilterPanics(fi.Name)
			serveFilterPanic(ctx)
		})

		ran = append(ran, fi)
		if ctx.Served() {
			break
		}
	}

	p.metrics.MeasureAllFiltersRequest(rt.Id, filtersStart)
	return ran
}

// applies filters to a response in reverse order
func (p *Proxy) applyFiltersToResponse(rt *routing.Route, ran []*routing.RouteFilter, ctx *exchange.HTTPExchange) {
	if len(ran) == 0 {
		return
	}

	filtersStart := time.Now()
	for i := len(ran) - 1; i >= 0; i-- {
		fi := ran[i]
		start := time.Now()
		tryCatch(func() {
			fi.Response(ctx)
			p.metrics.MeasureFilterResponse(fi.Name, start)
		}, func(err any, stack string) {
			p.log.Errorf("error while processing filter during response: %s: %v (%s)", fi.Name, err, stack)
			p.metrics.IncFilterPanics(fi.Name)
			serveFilterPanic(ctx)
		})
	}

	p.metrics.MeasureAllFiltersResponse(rt.Id, filtersStart)
}

func (p *Proxy) forward(rt *routing.Route, ctx *exchange.HTTPExchange) {
	start := time.Now()
	rsp, err := p.backend.Forward(ctx, rt)
	p.metrics.MeasureBackend(rt.Id, start)

	switch {
	case err == nil:
		ctx.Serve(rsp)
	case ctx.Context().Err() != nil:
		p.log.Debugf("client canceled the request of route %s: %v", rt.Id, err)
		ctx.MarkServed()
	case errors.Is(err, errBackendTimeout):
		p.log.Errorf("backend timeout of route %s: %v", rt.Id, err)
		p.metrics.IncErrorsBackend(rt.Id)
		ctx.Serve(textResponse(ctx.Request(), http.StatusGatewayTimeout))
	default:
		p.log.Errorf("error during backend roundtrip of route %s: %v", rt.Id, err)
		p.metrics.IncErrorsBackend(rt.Id)
		ctx.Serve(textResponse(ctx.Request(), http.StatusBadGateway))
	}
}

// execute runs the filter chain of the route and the backend, and
// leaves the response in the exchange.
func (p *Proxy) execute(rt *routing.Route, chain []*routing.RouteFilter, ctx *exchange.HTTPExchange) {
	ran := p.applyFiltersToRequest(rt, chain, ctx)
	if !ctx.Served() {
		p.forward(rt, ctx)
	}

	ctx.ResetServed()
	p.applyFiltersToResponse(rt, ran, ctx)
}

// copies a stream with flushing on every successful read operation
// (similar to io.Copy but with flushing)
func copyStream(to http.ResponseWriter, from io.Reader) error {
	rc := http.NewResponseController(to)
	b := make([]byte, proxyBufferSize)

	for {
		l, rerr := from.Read(b)
		if rerr != nil && rerr != io.EOF {
			return rerr
		}

		if l > 0 {
			if _, werr := to.Write(b[:l]); werr != nil {
				return werr
			}

			// not every writer supports flushing
			_ = rc.Flush()
		}

		if rerr == io.EOF {
			return nil
		}
	}
}

func (p *Proxy) serveResponse(rt *routing.Route, ctx *exchange.HTTPExchange, rsp *http.Response) int {
	if rsp.Body != nil {
		defer rsp.Body.Close()
	}

	w := ctx.ResponseWriter()
	h := w.Header()
	for k, v := range rsp.Header {
		if !hopHeaders[http.CanonicalHeaderKey(k)] {
			h[http.CanonicalHeaderKey(k)] = v
		}
	}

	code := rsp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	w.WriteHeader(code)
	if rsp.Body == nil {
		return code
	}

	if err := copyStream(w, rsp.Body); err != nil {
		if ctx.Context().Err() != nil {
			p.log.Debugf("client canceled while streaming the response of route %s: %v", rt.Id, err)
		} else {
			p.log.Errorf("error while copying the response stream of route %s: %v", rt.Id, err)
		}
	}

	return code
}

// send a premature error response
func (p *Proxy) sendError(w http.ResponseWriter, r *http.Request, id string, code int, start time.Time) {
	http.Error(w, http.StatusText(code), code)
	p.metrics.MeasureServe(id, r.Method, code, start)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := exchange.New(w, r)

	rt, err := p.routing.Resolve(ctx)
	switch {
	case err == nil:
	case r.Context().Err() != nil:
		p.log.Debugf("client canceled during route lookup: %v", err)
		return
	case errors.Is(err, routing.ErrNoRoute):
		p.sendError(w, r, "", http.StatusNotFound, start)
		return
	default:
		p.log.Errorf("route lookup failed: %v", err)
		p.sendError(w, r, "", http.StatusInternalServerError, start)
		return
	}

	logging.SetRouteID(r.Context(), rt.Id)
	p.execute(rt, p.assembler.chain(rt), ctx)

	rsp := ctx.Response()
	if r.Context().Err() != nil {
		if rsp != nil && rsp.Body != nil {
			rsp.Body.Close()
		}

		p.log.Debugf("client canceled the request of route %s", rt.Id)
		return
	}

	if rsp == nil {
		// the response was written by a filter
		return
	}

	code := p.serveResponse(rt, ctx, rsp)
	p.metrics.MeasureServe(rt.Id, r.Method, code, start)
}

func (p *Proxy) String() string {
	return fmt.Sprintf("Proxy{globalFilters=%d, routeFilterCache=%t}", len(p.assembler.globals), p.assembler.cacheEnabled)
}
