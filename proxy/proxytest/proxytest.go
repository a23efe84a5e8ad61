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

// Package proxytest starts a proxy with test routes, serving on a
// local test server.
package proxytest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	filtersbuiltin "github.com/switchback/switchback/filters/builtin"
	"github.com/switchback/switchback/logging/loggingtest"
	"github.com/switchback/switchback/metrics"
	predicatesbuiltin "github.com/switchback/switchback/predicates/builtin"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/proxy"
	"github.com/switchback/switchback/routing"
	"github.com/switchback/switchback/routing/testdataclient"
)

const defaultWaitTime = 3 * time.Second

type TestProxy struct {
	URL    string
	Log    *loggingtest.TestLogger
	Client *testdataclient.Client

	Routing *routing.Routing
	Proxy   *proxy.Proxy

	server *httptest.Server
}

type Config struct {

	// Routes is a YAML or JSON route document.
	Routes string

	// Predicates default to the builtin predicates.
	Predicates predicates.Registry

	// Filters default to the builtin filters.
	Filters filters.Registry

	DefaultFilters          []*eskip.FilterDefinition
	GlobalFilters           []proxy.GlobalFilter
	RouteFilterCacheEnabled bool
	Backend                 proxy.Backend
	Hooks                   []routing.Hook
	Observers               []routing.RefreshObserver
	Metrics                 metrics.Metrics

	// WaitTime limits the time of the initial route load, defaults
	// to 3s.
	WaitTime time.Duration
}

// Create starts the proxy, and waits for the initial route load. It
// panics when the routes cannot be loaded.
func (c Config) Create() *TestProxy {
	if c.Predicates == nil {
		c.Predicates = predicatesbuiltin.MakeRegistry()
	}

	if c.Filters == nil {
		c.Filters = filtersbuiltin.MakeRegistry()
	}

	if c.WaitTime <= 0 {
		c.WaitTime = defaultWaitTime
	}

	dc, err := testdataclient.NewDoc(c.Routes)
	if err != nil {
		panic(err)
	}

	tl := loggingtest.New()
	rt := routing.New(routing.Options{
		Sources:        []routing.DefinitionSource{dc},
		Predicates:     c.Predicates,
		Filters:        c.Filters,
		DefaultFilters: c.DefaultFilters,
		Hooks:          c.Hooks,
		Observers:      c.Observers,
		Log:            tl,
		Metrics:        c.Metrics,
	})

	pr := proxy.New(proxy.Options{
		Routing:                 rt,
		GlobalFilters:           c.GlobalFilters,
		RouteFilterCacheEnabled: c.RouteFilterCacheEnabled,
		Backend:                 c.Backend,
		Log:                     tl,
		Metrics:                 c.Metrics,
	})

	select {
	case <-rt.FirstLoad():
	case <-time.After(c.WaitTime):
		rt.Close()
		panic(fmt.Sprintf("routes not loaded in %v", c.WaitTime))
	}

	// the chains are cached after the first load only
	rt.Subscribe(pr)
	server := httptest.NewServer(pr)
	return &TestProxy{
		URL:     server.URL,
		Log:     tl,
		Client:  dc,
		Routing: rt,
		Proxy:   pr,
		server:  server,
	}
}

// Get sends a GET request to the proxy.
func (p *TestProxy) Get(path string) (*http.Response, error) {
	return p.server.Client().Get(p.URL + path)
}

// Do sends a request to the proxy.
func (p *TestProxy) Do(r *http.Request) (*http.Response, error) {
	return p.server.Client().Do(r)
}

func (p *TestProxy) Close() {
	p.server.Close()
	p.Routing.Close()
	p.Log.Close()
}
