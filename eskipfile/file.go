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
	"os"

	"github.com/switchback/switchback/eskip"
)

// Client serves the routes of a file read once.
type Client struct {
	routes []*eskip.RouteDefinition
}

// Open reads and parses the route document.
func Open(path string) (*Client, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	routes, err := eskip.ParseDocument(content)
	if err != nil {
		return nil, err
	}

	return &Client{routes: routes}, nil
}

func (c *Client) RouteDefinitions(context.Context) ([]*eskip.RouteDefinition, error) {
	return eskip.CopyRoutes(c.routes), nil
}
