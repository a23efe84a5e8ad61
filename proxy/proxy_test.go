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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/filters/filtertest"
	"github.com/switchback/switchback/logging/loggingtest"
	"github.com/switchback/switchback/metrics/metricstest"
	"github.com/switchback/switchback/routing"
)

type staticResolver struct {
	route *routing.Route
	err   error
}

func (r staticResolver) Resolve(exchange.Exchange) (*routing.Route, error) {
	return r.route, r.err
}

type backendFunc func(exchange.Exchange, *routing.Route) (*http.Response, error)

func (f backendFunc) Forward(e exchange.Exchange, rt *routing.Route) (*http.Response, error) {
	return f(e, rt)
}

type countingBackend struct {
	calls int
}

func (b *countingBackend) Forward(e exchange.Exchange, _ *routing.Route) (*http.Response, error) {
	b.calls++
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"X-Backend": []string{"true"}},
		Body:       io.NopCloser(strings.NewReader("hello")),
		Request:    e.Request(),
	}, nil
}

// records whether anything was written
type recordingWriter struct {
	header  http.Header
	written bool
}

func (w *recordingWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}

	return w.header
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.written = true
	return len(b), nil
}

func (w *recordingWriter) WriteHeader(int) { w.written = true }

func testRoute(fs ...filters.Filter) *routing.Route {
	rt := &routing.Route{Id: "test", URI: &url.URL{Scheme: "http", Host: "backend.example.org"}}
	for i, f := range fs {
		rt.Filters = append(rt.Filters, &routing.RouteFilter{Filter: f, Name: fmt.Sprintf("F%d", i), Order: i + 1})
	}

	return rt
}

func newTestProxy(t *testing.T, r Resolver, b Backend, globals ...GlobalFilter) (*Proxy, *metricstest.MockMetrics, *loggingtest.TestLogger) {
	t.Helper()
	m := &metricstest.MockMetrics{}
	l := loggingtest.New()
	t.Cleanup(l.Close)
	return New(Options{Routing: r, Backend: b, GlobalFilters: globals, Log: l, Metrics: m}), m, l
}

func serve(p *Proxy, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	p.ServeHTTP(w, r)
	return w
}

func TestChainSingleInvocation(t *testing.T) {
	tr := &filtertest.Trace{}
	b := &countingBackend{}
	p, m, _ := newTestProxy(t,
		staticResolver{route: testRoute(tr.Filter("a"), tr.Filter("b"))},
		b,
		GlobalFilter{Name: "G", Filter: tr.Filter("g")},
	)

	w := serve(p, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "true", w.Header().Get("X-Backend"))
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, []string{
		"a.request", "b.request", "g.request",
		"g.response", "b.response", "a.response",
	}, tr.Events())

	assert.Equal(t, 1, m.Measures("serve.test.GET.200"))
	assert.Equal(t, 1, m.Measures("backend.test"))
	assert.Equal(t, 1, m.Measures("filter.request.G"))
	assert.Equal(t, 1, m.Measures("filter.response.F0"))
}

func TestShortCircuit(t *testing.T) {
	tr := &filtertest.Trace{}
	b := &countingBackend{}
	p, _, _ := newTestProxy(t, staticResolver{route: testRoute(tr.Filter("a"), filtertest.Serve(http.StatusForbidden), tr.Filter("c"))}, b)

	w := serve(p, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, b.calls)
	assert.Equal(t, []string{"a.request", "a.response"}, tr.Events())
}

func TestResponseFilterReplacesResponse(t *testing.T) {
	replace := filtertest.Func{ResponseFunc: func(ctx filters.FilterContext) {
		ctx.Response().StatusCode = http.StatusTeapot
	}}

	p, _, _ := newTestProxy(t, staticResolver{route: testRoute(replace)}, &countingBackend{})
	assert.Equal(t, http.StatusTeapot, serve(p, httptest.NewRequest("GET", "/", nil)).Code)
}

func TestLongChain(t *testing.T) {
	var count int
	var fs []filters.Filter
	for range 500 {
		fs = append(fs, filtertest.Func{RequestFunc: func(filters.FilterContext) { count++ }})
	}

	p, _, _ := newTestProxy(t, staticResolver{route: testRoute(fs...)}, &countingBackend{})
	assert.Equal(t, http.StatusOK, serve(p, httptest.NewRequest("GET", "/", nil)).Code)
	assert.Equal(t, 500, count)
}

func TestFilterPanic(t *testing.T) {
	tr := &filtertest.Trace{}
	b := &countingBackend{}
	p, m, l := newTestProxy(t, staticResolver{route: testRoute(tr.Filter("a"), filtertest.Panic("boom"), tr.Filter("c"))}, b)

	w := serve(p, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, b.calls)
	assert.Equal(t, []string{"a.request", "a.response"}, tr.Events())
	assert.Equal(t, int64(1), m.Counter("filter.panics.F1"))
	assert.Equal(t, 1, l.Count("boom"))
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestResponseFilterPanicClosesBackendBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("hello")}
	b := backendFunc(func(e exchange.Exchange, _ *routing.Route) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: body, Request: e.Request()}, nil
	})

	panicking := filtertest.Func{ResponseFunc: func(filters.FilterContext) { panic("response boom") }}
	p, m, l := newTestProxy(t, staticResolver{route: testRoute(panicking)}, b)

	w := serve(p, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hello")
	assert.True(t, body.closed)
	assert.Equal(t, int64(1), m.Counter("filter.panics.F0"))
	assert.Equal(t, 1, l.Count("response boom"))
}

func TestNoRoute(t *testing.T) {
	p, m, _ := newTestProxy(t, staticResolver{err: routing.ErrNoRoute}, &countingBackend{})

	w := serve(p, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, m.Measures("serve..GET.404"))
}

func TestRouteLookupFailure(t *testing.T) {
	p, _, _ := newTestProxy(t, staticResolver{err: errors.New("failed")}, &countingBackend{})
	assert.Equal(t, http.StatusInternalServerError, serve(p, httptest.NewRequest("GET", "/", nil)).Code)
}

func TestBackendErrors(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{errors.New("connection refused"), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", errBackendTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{ErrUnsupportedScheme, http.StatusBadGateway},
	} {
		t.Run(tc.err.Error(), func(t *testing.T) {
			tr := &filtertest.Trace{}
			p, m, _ := newTestProxy(t, staticResolver{route: testRoute(tr.Filter("a"))}, backendFunc(func(exchange.Exchange, *routing.Route) (*http.Response, error) {
				return nil, tc.err
			}))

			w := serve(p, httptest.NewRequest("GET", "/", nil))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, []string{"a.request", "a.response"}, tr.Events())
			assert.Equal(t, int64(1), m.Counter("backend.errors.test"))
		})
	}
}

func TestClientCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)

	tr := &filtertest.Trace{}
	p, m, _ := newTestProxy(t, staticResolver{route: testRoute(tr.Filter("a"))}, backendFunc(func(e exchange.Exchange, _ *routing.Route) (*http.Response, error) {
		cancel()
		return nil, e.Context().Err()
	}))

	w := &recordingWriter{}
	p.ServeHTTP(w, r)
	assert.False(t, w.written)
	assert.Equal(t, []string{"a.request", "a.response"}, tr.Events())
	assert.Equal(t, int64(0), m.Counter("backend.errors.test"))
}

func TestCanceledDuringLookup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _, _ := newTestProxy(t, staticResolver{err: context.Canceled}, &countingBackend{})
	w := &recordingWriter{}
	p.ServeHTTP(w, httptest.NewRequest("GET", "/", nil).WithContext(ctx))
	assert.False(t, w.written)
}

func TestFilterWritesResponse(t *testing.T) {
	direct := filtertest.Func{RequestFunc: func(ctx filters.FilterContext) {
		ctx.ResponseWriter().WriteHeader(http.StatusAccepted)
		ctx.MarkServed()
	}}

	b := &countingBackend{}
	p, _, _ := newTestProxy(t, staticResolver{route: testRoute(direct)}, b)
	assert.Equal(t, http.StatusAccepted, serve(p, httptest.NewRequest("GET", "/", nil)).Code)
	assert.Equal(t, 0, b.calls)
}

func TestFiltersOfRoute(t *testing.T) {
	p, _, _ := newTestProxy(t, staticResolver{}, &countingBackend{}, GlobalFilter{Name: "G", Filter: &filtertest.Filter{}})
	require.Len(t, p.GlobalFilters(), 1)
	assert.Equal(t, []string{"F0", "G"}, chainNames(p.Filters(testRoute(&filtertest.Filter{}))))
}
