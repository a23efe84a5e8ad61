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

// Package memory provides a writable in-memory route definition
// repository.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/routing"
)

var errMissingID = errors.New("route definition without id")

// Repository keeps the definitions in the order they were first saved.
type Repository struct {
	mu   sync.RWMutex
	defs []*eskip.RouteDefinition
}

var _ routing.Repository = (*Repository)(nil)

// New creates a repository with initial definitions.
func New(defs ...*eskip.RouteDefinition) *Repository {
	r := &Repository{}
	for _, d := range defs {
		r.save(d)
	}

	return r
}

func (r *Repository) save(def *eskip.RouteDefinition) {
	def = eskip.Copy(def)
	i := slices.IndexFunc(r.defs, func(d *eskip.RouteDefinition) bool { return d.Id == def.Id })
	if i < 0 {
		r.defs = append(r.defs, def)
		return
	}

	r.defs[i] = def
}

func (r *Repository) RouteDefinitions(context.Context) ([]*eskip.RouteDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return eskip.CopyRoutes(r.defs), nil
}

// Save inserts or replaces the definition with the same id.
func (r *Repository) Save(_ context.Context, def *eskip.RouteDefinition) error {
	if def == nil || def.Id == "" {
		return errMissingID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(def)
	return nil
}

// Delete removes the definition with id, or returns routing.ErrNotFound.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.defs, func(d *eskip.RouteDefinition) bool { return d.Id == id })
	if i < 0 {
		return routing.ErrNotFound
	}

	r.defs = slices.Delete(r.defs, i, i+1)
	return nil
}
