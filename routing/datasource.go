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

package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/logging"
)

// ErrNotFound is returned by repositories when a route definition with
// the requested id does not exist.
var ErrNotFound = errors.New("route definition not found")

// DefinitionSource provides the complete set of route definitions. It
// is called on every refresh. The returned definitions must not be
// modified afterwards, neither by the source nor by the caller.
type DefinitionSource interface {
	RouteDefinitions(context.Context) ([]*eskip.RouteDefinition, error)
}

// DefinitionSourceFunc adapts ordinary functions to the
// DefinitionSource interface.
type DefinitionSourceFunc func(context.Context) ([]*eskip.RouteDefinition, error)

func (f DefinitionSourceFunc) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	return f(ctx)
}

// Repository is a writable source of route definitions, used by the
// administrative API. The changes take effect with the next refresh.
type Repository interface {
	DefinitionSource
	Save(context.Context, *eskip.RouteDefinition) error
	Delete(ctx context.Context, id string) error
}

type composite struct {
	sources []DefinitionSource
	log     logging.Logger

	mu   sync.Mutex
	last map[int][]*eskip.RouteDefinition
}

// Composite merges the definitions of multiple sources by route id.
// When the same id is provided by more than one source, the definition
// of the later source wins, at the position of the first occurrence.
//
// The sources are called concurrently. When a source fails, its last
// successful result is used. The composite fails only when every
// source failed without a previous result.
func Composite(log logging.Logger, sources ...DefinitionSource) DefinitionSource {
	if log == nil {
		log = logging.New("routing")
	}

	return &composite{
		sources: sources,
		log:     log,
		last:    make(map[int][]*eskip.RouteDefinition),
	}
}

func (c *composite) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	results := make([][]*eskip.RouteDefinition, len(c.sources))
	errs := make([]error, len(c.sources))

	var g errgroup.Group
	for i, s := range c.sources {
		g.Go(func() error {
			results[i], errs[i] = s.RouteDefinitions(ctx)
			return nil
		})
	}

	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var failed []error
	for i, err := range errs {
		if err == nil {
			c.last[i] = results[i]
			continue
		}

		prev, ok := c.last[i]
		if ok {
			c.log.Warnf("Failed to load route definitions from source %d, using the previous result: %v", i, err)
			results[i] = prev
			continue
		}

		c.log.Errorf("Failed to load route definitions from source %d: %v", i, err)
		failed = append(failed, fmt.Errorf("source %d: %w", i, err))
	}

	if len(c.sources) > 0 && len(failed) == len(c.sources) {
		return nil, errors.Join(failed...)
	}

	return mergeDefinitions(c.log, results), nil
}

func mergeDefinitions(log logging.Logger, results [][]*eskip.RouteDefinition) []*eskip.RouteDefinition {
	var merged []*eskip.RouteDefinition
	index := make(map[string]int)
	for _, defs := range results {
		for _, def := range defs {
			if i, ok := index[def.Id]; ok && def.Id != "" {
				log.Warnf("Route definition %s is defined more than once, using the last one.", def.Id)
				merged[i] = def
				continue
			}

			index[def.Id] = len(merged)
			merged = append(merged, def)
		}
	}

	return merged
}
