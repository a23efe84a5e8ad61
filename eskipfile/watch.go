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
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/eskip"
)

// WatchClient implements a route definition source with file watching.
// Use the Watch function to initialize instances of it.
type WatchClient struct {
	fileName string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	loaded  bool
	routes  []*eskip.RouteDefinition
}

// Watch creates a route definition source with file watching. Watch
// doesn't follow file system nodes, it always reads from the file
// identified by the initially provided file name.
func Watch(name string) *WatchClient {
	return &WatchClient{fileName: name}
}

// RouteDefinitions returns the parsed route definitions found in the
// file. The file is parsed again only when its modification time or
// size changed. When the file does not exist, there are no routes.
// When the file cannot be parsed, an error is returned, and the
// previous definitions are kept for the next call.
func (c *WatchClient) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.fileName)
	if errors.Is(err, fs.ErrNotExist) {
		if c.loaded && len(c.routes) > 0 {
			log.Warnf("Route file %s was removed, deleting all routes", c.fileName)
		}

		c.routes, c.loaded, c.modTime, c.size = nil, true, time.Time{}, 0
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if c.loaded && info.ModTime().Equal(c.modTime) && info.Size() == c.size {
		return eskip.CopyRoutes(c.routes), nil
	}

	content, err := os.ReadFile(c.fileName)
	if err != nil {
		return nil, err
	}

	routes, err := eskip.ParseDocument(content)
	if err != nil {
		return nil, err
	}

	log.Infof("Route file %s loaded with %d routes", c.fileName, len(routes))
	c.routes, c.loaded, c.modTime, c.size = routes, true, info.ModTime(), info.Size()
	return eskip.CopyRoutes(routes), nil
}
