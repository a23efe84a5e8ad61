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

/*
Package testdataclient provides a test implementation for the
routing.DefinitionSource interface, with update and failure injection.

It is used by the tests of the routing and the proxy, and it can be
used by the tests of custom predicates and filters.
*/
package testdataclient

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/switchback/switchback/eskip"
)

// ErrInjected is returned by the client while failing, when no custom
// error was set.
var ErrInjected = errors.New("injected failure")

// Client is an in-memory route definition source.
type Client struct {
	mu    sync.Mutex
	defs  []*eskip.RouteDefinition
	err   error
	calls int
}

// New creates a client with the given definitions.
func New(defs []*eskip.RouteDefinition) *Client {
	return &Client{defs: eskip.CopyRoutes(defs)}
}

// NewDoc creates a client from a JSON or YAML route document.
func NewDoc(doc string) (*Client, error) {
	defs, err := eskip.ParseDocument([]byte(doc))
	if err != nil {
		return nil, err
	}

	return New(defs), nil
}

// RouteDefinitions returns a copy of the current definitions.
func (c *Client) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.err != nil {
		return nil, c.err
	}

	return eskip.CopyRoutes(c.defs), nil
}

// Update upserts definitions by id and deletes the definitions with
// the given ids. Upserted definitions keep the position of the
// definition that they replace.
func (c *Client) Update(upsert []*eskip.RouteDefinition, deletedIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.defs = slices.DeleteFunc(c.defs, func(d *eskip.RouteDefinition) bool {
		return slices.Contains(deletedIDs, d.Id)
	})

	for _, u := range upsert {
		u = eskip.Copy(u)
		i := slices.IndexFunc(c.defs, func(d *eskip.RouteDefinition) bool { return d.Id == u.Id })
		if i >= 0 {
			c.defs[i] = u
		} else {
			c.defs = append(c.defs, u)
		}
	}
}

// UpdateDoc is like Update, with the upserted definitions parsed from a
// route document.
func (c *Client) UpdateDoc(upsertDoc string, deletedIDs []string) error {
	defs, err := eskip.ParseDocument([]byte(upsertDoc))
	if err != nil {
		return err
	}

	c.Update(defs, deletedIDs)
	return nil
}

// Replace sets the complete set of definitions.
func (c *Client) Replace(defs []*eskip.RouteDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = eskip.CopyRoutes(defs)
}

// Fail makes the client return err, or ErrInjected when err is nil,
// until Recover is called.
func (c *Client) Fail(err error) {
	if err == nil {
		err = ErrInjected
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Recover stops the injected failures.
func (c *Client) Recover() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

// Calls returns how many times the definitions were requested.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
