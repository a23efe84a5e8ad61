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
Package redis provides a route definition repository stored in Redis,
shared by the instances of a cluster.

The definitions are stored as JSON documents in a single hash, with the
route ids as fields. The routes are returned ordered by id, the routing
sorts them by their order.
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/net"
	"github.com/switchback/switchback/routing"
)

// DefaultKey is the key of the hash holding the definitions.
const DefaultKey = "switchback:routes"

var errMissingID = errors.New("route definition without id")

// Options of the repository.
type Options struct {

	// Key of the hash, defaults to DefaultKey.
	Key string

	// Log defaults to the logger of the redis component.
	Log logging.Logger
}

// Repository stores the route definitions in a Redis hash.
type Repository struct {
	client *net.RedisRingClient
	key    string
	log    logging.Logger
}

var _ routing.Repository = (*Repository)(nil)

func New(client *net.RedisRingClient, o Options) *Repository {
	if o.Key == "" {
		o.Key = DefaultKey
	}

	if o.Log == nil {
		o.Log = logging.New("redis-routes")
	}

	return &Repository{client: client, key: o.Key, log: o.Log}
}

// RouteDefinitions loads all the definitions. Definitions that cannot be
// decoded are skipped with a log line.
func (r *Repository) RouteDefinitions(ctx context.Context) ([]*eskip.RouteDefinition, error) {
	all, err := r.client.HGetAll(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load route definitions from %s: %w", r.key, err)
	}

	defs := make([]*eskip.RouteDefinition, 0, len(all))
	for id, doc := range all {
		var def eskip.RouteDefinition
		if err := json.Unmarshal([]byte(doc), &def); err != nil {
			r.log.Errorf("Failed to decode route definition %s: %v", id, err)
			continue
		}

		def.Id = id
		defs = append(defs, &def)
	}

	slices.SortFunc(defs, func(a, b *eskip.RouteDefinition) int { return strings.Compare(a.Id, b.Id) })
	return defs, nil
}

// Save inserts or replaces the definition with the same id.
func (r *Repository) Save(ctx context.Context, def *eskip.RouteDefinition) error {
	if def == nil || def.Id == "" {
		return errMissingID
	}

	doc, err := json.Marshal(def)
	if err != nil {
		return err
	}

	return r.client.HSet(ctx, r.key, def.Id, string(doc))
}

// Delete removes the definition with id, or returns routing.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	deleted, err := r.client.HDel(ctx, r.key, id)
	if err != nil {
		return err
	}

	if !deleted {
		return routing.ErrNotFound
	}

	return nil
}
