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

package proxy_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/filters/filtertest"
	"github.com/switchback/switchback/proxy"
	"github.com/switchback/switchback/proxy/proxytest"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Path", r.URL.Path)
		w.Header().Set("X-Request-Header", r.Header.Get("X-Request-Header"))
		io.WriteString(w, "backend")
	}))

	t.Cleanup(s.Close)
	return s
}

func TestProxy(t *testing.T) {
	backend := newBackend(t)
	p := proxytest.Config{Routes: `
routes:
- id: foo
  uri: ` + backend.URL + `
  order: 1
  predicates:
  - Path=/foo/**
  filters:
  - StripPrefix=1
  - AddRequestHeader=X-Request-Header, foo
- id: teapot
  uri: no://op
  order: 2
  predicates:
  - Path=/teapot
  filters:
  - SetStatus=418
`}.Create()
	defer p.Close()

	rsp, err := p.Get("/foo/bar")
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, _ := io.ReadAll(rsp.Body)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "backend", string(body))
	assert.Equal(t, "/bar", rsp.Header.Get("X-Path"))
	assert.Equal(t, "foo", rsp.Header.Get("X-Request-Header"))

	rsp, err = p.Get("/teapot")
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusTeapot, rsp.StatusCode)

	rsp, err = p.Get("/baz")
	require.NoError(t, err)
	rsp.Body.Close()
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
}

func TestProxyChainCacheInvalidatedOnRefresh(t *testing.T) {
	backend := newBackend(t)
	p := proxytest.Config{
		RouteFilterCacheEnabled: true,
		Routes: `
routes:
- id: r
  uri: ` + backend.URL + `
  filters:
  - AddRequestHeader=X-Request-Header, v1
`}.Create()
	defer p.Close()

	get := func() string {
		rsp, err := p.Get("/")
		require.NoError(t, err)
		rsp.Body.Close()
		return rsp.Header.Get("X-Request-Header")
	}

	assert.Equal(t, "v1", get())
	assert.Equal(t, "v1", get())

	require.NoError(t, p.Client.UpdateDoc(`
routes:
- id: r
  uri: `+backend.URL+`
  filters:
  - AddRequestHeader=X-Request-Header, v2
`, nil))
	require.NoError(t, p.Routing.Refresh(context.Background()))

	assert.Equal(t, "v2", get())
}

func TestProxyGlobalFilters(t *testing.T) {
	backend := newBackend(t)
	tr := &filtertest.Trace{}
	p := proxytest.Config{
		GlobalFilters: []proxy.GlobalFilter{{Name: "Trace", Filter: tr.Filter("global")}},
		Routes: `
routes:
- id: r
  uri: ` + backend.URL + `
`}.Create()
	defer p.Close()

	rsp, err := p.Get("/")
	require.NoError(t, err)
	rsp.Body.Close()

	assert.Equal(t, []string{"global.request", "global.response"}, tr.Events())
}
