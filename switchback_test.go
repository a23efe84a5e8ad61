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

package switchback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/dataclients/redis"
	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters/flowid"
	"github.com/switchback/switchback/net/redistest"
)

const inlineRoutes = `
routes:
- id: hello
  uri: no://op
  predicates:
  - Path=/hello
  filters:
  - SetStatus=204
`

func startGateway(t *testing.T, o Options) (*gateway, *httptest.Server, *httptest.Server) {
	t.Helper()

	g, err := newGateway(o)
	require.NoError(t, err)
	t.Cleanup(g.close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, g.waitFirstLoad(ctx))

	proxy := httptest.NewServer(g.handler)
	t.Cleanup(proxy.Close)

	admin := httptest.NewServer(g.admin)
	t.Cleanup(admin.Close)
	return g, proxy, admin
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	rsp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { rsp.Body.Close() })
	return rsp
}

func saveRoute(t *testing.T, adminURL, id, body string) {
	t.Helper()

	rsp, err := http.Post(adminURL+"/routes/"+id, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer rsp.Body.Close()
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
}

func eventuallyStatus(t *testing.T, url string, status int) {
	t.Helper()

	assert.Eventually(t, func() bool {
		rsp, err := http.Get(url)
		if err != nil {
			return false
		}

		rsp.Body.Close()
		return rsp.StatusCode == status
	}, 3*time.Second, 10*time.Millisecond)
}

func TestInlineRoutes(t *testing.T) {
	_, proxy, _ := startGateway(t, Options{InlineRoutes: []string{inlineRoutes}})

	assert.Equal(t, http.StatusNoContent, get(t, proxy.URL+"/hello").StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, proxy.URL+"/other").StatusCode)
}

func TestInvalidInlineRoutes(t *testing.T) {
	_, err := newGateway(Options{InlineRoutes: []string{"routes: ["}})
	assert.Error(t, err)
}

func TestAdminManagedRoutes(t *testing.T) {
	_, proxy, admin := startGateway(t, Options{InlineRoutes: []string{inlineRoutes}})

	saveRoute(t, admin.URL, "bar", `{"uri": "no://op", "predicates": ["Path=/bar"], "filters": ["SetStatus=202"]}`)
	eventuallyStatus(t, proxy.URL+"/bar", http.StatusAccepted)

	// overrides the inline route with the same id
	saveRoute(t, admin.URL, "hello", `{"uri": "no://op", "predicates": ["Path=/hello"], "filters": ["SetStatus=418"]}`)
	eventuallyStatus(t, proxy.URL+"/hello", http.StatusTeapot)
}

func TestRedisRoutes(t *testing.T) {
	s := redistest.NewTestServer(t)
	g, proxy, admin := startGateway(t, Options{
		RedisAddrs:        []string{s.Addr()},
		EnableRedisRoutes: true,
	})

	_, ok := g.repository.(*redis.Repository)
	require.True(t, ok)

	saveRoute(t, admin.URL, "bar", `{"uri": "no://op", "predicates": ["Path=/bar"], "filters": ["SetStatus=202"]}`)
	fields, err := s.HKeys(redis.DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, fields, "bar")
	eventuallyStatus(t, proxy.URL+"/bar", http.StatusAccepted)
}

func TestRedisRoutesRequireAddress(t *testing.T) {
	_, err := newGateway(Options{EnableRedisRoutes: true})
	assert.Error(t, err)
}

func TestClusterRatelimit(t *testing.T) {
	s := redistest.NewTestServer(t)
	_, proxy, _ := startGateway(t, Options{
		RedisAddrs: []string{s.Addr()},
		InlineRoutes: []string{`
routes:
- id: limited
  uri: no://op
  filters:
  - RequestRateLimiter=1, 1
`},
	})

	assert.Equal(t, http.StatusOK, get(t, proxy.URL+"/").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, get(t, proxy.URL+"/").StatusCode)
}

func TestFlowID(t *testing.T) {
	_, proxy, _ := startGateway(t, Options{
		InlineRoutes: []string{inlineRoutes},
		EnableFlowID: true,
	})

	rsp := get(t, proxy.URL+"/hello")
	assert.NotEmpty(t, rsp.Header.Get(flowid.HeaderName))

	req, err := http.NewRequest("GET", proxy.URL+"/hello", nil)
	require.NoError(t, err)
	req.Header.Set(flowid.HeaderName, "4f6b8c9e-0b8a-4d7e-9b8e-0a1c2d3e4f5a")

	rsp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()
	assert.NotEqual(t, "4f6b8c9e-0b8a-4d7e-9b8e-0a1c2d3e4f5a", rsp.Header.Get(flowid.HeaderName))
}

func TestInvalidFlowIDGenerator(t *testing.T) {
	_, err := newGateway(Options{EnableFlowID: true, FlowIDGenerator: "foo"})
	assert.Error(t, err)
}

func TestDefaultFilters(t *testing.T) {
	_, proxy, _ := startGateway(t, Options{
		InlineRoutes: []string{`
routes:
- id: foo
  uri: no://op
  predicates:
  - Path=/foo
- id: bar
  uri: no://op
  disableDefaultFilters: true
  predicates:
  - Path=/bar
`},
		DefaultFilters: eskip.MustParseFilters("AddResponseHeader=X-Default, foo"),
	})

	assert.Equal(t, "foo", get(t, proxy.URL+"/foo").Header.Get("X-Default"))
	assert.Empty(t, get(t, proxy.URL+"/bar").Header.Get("X-Default"))
}

func TestMetricsHandler(t *testing.T) {
	g, proxy, _ := startGateway(t, Options{
		InlineRoutes:    []string{inlineRoutes},
		MetricsListener: ":0",
	})

	get(t, proxy.URL+"/hello")

	s := httptest.NewServer(g.metricsHandler())
	defer s.Close()

	rsp := get(t, s.URL+"/metrics")
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	b, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "switchback_")
}

func TestRunContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunContext(ctx, Options{
			Address:           "127.0.0.1:0",
			InlineRoutes:      []string{inlineRoutes},
			AccessLogDisabled: true,
		})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("failed to stop")
	}
}
