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

package eskipfile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
)

const testDocument = `
routes:
- id: foo
  uri: https://foo.example.org
  predicates:
  - Path=/foo/**
- id: bar
  uri: https://bar.example.org
`

func ids(defs []*eskip.RouteDefinition) []string {
	var ids []string
	for _, d := range defs {
		ids = append(ids, d.Id)
	}

	return ids
}

func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeFile(t, path, testDocument, time.Now())

	c, err := Open(path)
	require.NoError(t, err)

	defs, err := c.RouteDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, ids(defs))
	assert.Equal(t, "Path", defs[0].Predicates[0].Name)
}

func TestOpenFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "invalid.yaml")
	writeFile(t, path, "routes: [", time.Now())
	_, err = Open(path)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	c := Watch(path)

	defs, err := c.RouteDefinitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)

	t0 := time.Now().Add(-time.Hour)
	writeFile(t, path, testDocument, t0)
	defs, err = c.RouteDefinitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, ids(defs))

	writeFile(t, path, `
routes:
- id: baz
  uri: https://baz.example.org
`, t0.Add(time.Minute))
	defs, err = c.RouteDefinitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"baz"}, ids(defs))

	writeFile(t, path, "routes: [", t0.Add(2*time.Minute))
	_, err = c.RouteDefinitions(ctx)
	assert.Error(t, err)

	require.NoError(t, os.Remove(path))
	defs, err = c.RouteDefinitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestWatchReturnsCopies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeFile(t, path, testDocument, time.Now())
	c := Watch(path)

	defs, err := c.RouteDefinitions(context.Background())
	require.NoError(t, err)
	defs[0].Id = "modified"

	defs, err = c.RouteDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "foo", defs[0].Id)
}

func TestRemoteWatch(t *testing.T) {
	var requests, notModified atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(testDocument))
	}))
	defer server.Close()

	c, err := RemoteWatch(RemoteWatchOptions{RemoteFile: server.URL + "/routes.yaml", FailOnStartup: true})
	require.NoError(t, err)

	defs, err := c.RouteDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, ids(defs))
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestRemoteWatchFails(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := RemoteWatch(RemoteWatchOptions{RemoteFile: server.URL, FailOnStartup: true})
	assert.Error(t, err)

	c, err := RemoteWatch(RemoteWatchOptions{RemoteFile: server.URL})
	require.NoError(t, err)
	_, err = c.RouteDefinitions(context.Background())
	assert.Error(t, err)
}

func TestRemoteWatchLocalFile(t *testing.T) {
	c, err := RemoteWatch(RemoteWatchOptions{RemoteFile: filepath.Join(t.TempDir(), "routes.yaml")})
	require.NoError(t, err)
	assert.IsType(t, &WatchClient{}, c)
}
