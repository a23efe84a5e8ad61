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
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/routing"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxDocumentSize    = 16 << 20
)

// RemoteWatchOptions configure RemoteWatch.
type RemoteWatchOptions struct {

	// RemoteFile is the URL of the route document, or a local path.
	RemoteFile string

	// FailOnStartup makes RemoteWatch fail, when the initial download
	// fails.
	FailOnStartup bool

	// HTTPTimeout of the downloads, defaults to 10s.
	HTTPTimeout time.Duration

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

type remoteClient struct {
	url  string
	http *http.Client

	mu     sync.Mutex
	etag   string
	routes []*eskip.RouteDefinition
}

func isFileRemote(remotePath string) bool {
	return strings.HasPrefix(remotePath, "http://") || strings.HasPrefix(remotePath, "https://")
}

// RemoteWatch returns a source downloading the route document from an
// HTTP URL. When the file is not a URL, it returns a WatchClient.
func RemoteWatch(o RemoteWatchOptions) (routing.DefinitionSource, error) {
	if !isFileRemote(o.RemoteFile) {
		return Watch(o.RemoteFile), nil
	}

	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = defaultHTTPTimeout
	}

	c := &remoteClient{
		url:  o.RemoteFile,
		http: &http.Client{Timeout: o.HTTPTimeout, Transport: o.Transport},
	}

	if o.FailOnStartup {
		if _, err := c.RouteDefinitions(context.Background()); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RouteDefinitions downloads the document. When the server responds
// with 304 Not Modified to the ETag of the previous download, the
// previous definitions are returned.
func (c *remoteClient) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", c.url, err)
	}

	defer rsp.Body.Close()

	switch rsp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return eskip.CopyRoutes(c.routes), nil
	default:
		return nil, fmt.Errorf("failed to download %s: %s", c.url, rsp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(rsp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", c.url, err)
	}

	routes, err := eskip.ParseDocument(content)
	if err != nil {
		return nil, err
	}

	log.Infof("Route document %s downloaded with %d routes", c.url, len(routes))
	c.etag = rsp.Header.Get("ETag")
	c.routes = routes
	return eskip.CopyRoutes(routes), nil
}
