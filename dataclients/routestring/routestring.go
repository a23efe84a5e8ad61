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

// Package routestring provides a route definition source for setting
// the route configuration inline, in the form of a YAML or JSON route
// document.
//
// Usage from the command line:
//
//	switchback -inline-routes '[{"id": "hello", "uri": "no://op", "filters": ["SetStatus=204"]}]'
package routestring

import (
	"context"
	"fmt"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/routing"
)

type routes struct {
	parsed []*eskip.RouteDefinition
}

// New creates a source that parses a route document and serves it for
// the routing package.
func New(doc string) (routing.DefinitionSource, error) {
	parsed, err := eskip.ParseDocument([]byte(doc))
	if err != nil {
		return nil, err
	}

	return &routes{parsed: parsed}, nil
}

// NewList creates a source that parses a list of route documents and
// serves their routes together.
func NewList(docs []string) (routing.DefinitionSource, error) {
	var parsed []*eskip.RouteDefinition
	for i, doc := range docs {
		pr, err := eskip.ParseDocument([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("#%d: %w", i, err)
		}

		parsed = append(parsed, pr...)
	}

	return &routes{parsed: parsed}, nil
}

func (r *routes) RouteDefinitions(context.Context) ([]*eskip.RouteDefinition, error) {
	return eskip.CopyRoutes(r.parsed), nil
}
