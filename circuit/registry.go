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

package circuit

import (
	"sync"
	"time"
)

const DefaultIdleTTL = time.Hour

// Registry holds the active breakers, applies the default settings and
// releases the idle breakers.
type Registry struct {
	defaults Settings
	named    map[string]Settings

	mu      sync.Mutex
	lookup  map[Settings]*Breaker
	nowFunc func() time.Time
}

// NewRegistry initializes a registry. Settings with an empty Name are
// the global defaults. Settings with the same Name are merged, the
// later ones taking precedence.
func NewRegistry(settings ...Settings) *Registry {
	var (
		defaults Settings
		named    []Settings
	)

	for _, s := range settings {
		if s.Name == "" {
			defaults = defaults.merge(s)
			continue
		}

		named = append(named, s)
	}

	if defaults.IdleTTL <= 0 {
		defaults.IdleTTL = DefaultIdleTTL
	}

	byName := make(map[string]Settings)
	for _, s := range named {
		if current, ok := byName[s.Name]; ok {
			byName[s.Name] = s.merge(current)
		} else {
			byName[s.Name] = s.merge(defaults)
		}
	}

	return &Registry{
		defaults: defaults,
		named:    byName,
		lookup:   make(map[Settings]*Breaker),
		nowFunc:  time.Now,
	}
}

func (r *Registry) dropIdle(now time.Time) {
	for s, b := range r.lookup {
		if b.idle(now) {
			delete(r.lookup, s)
		}
	}
}

// Get returns the breaker for the settings, merged with the configured
// defaults. Typically it is enough to set the Name field:
//
//	r.Get(Settings{Name: routeID})
//
// It returns nil when the settings don't define a breaker, or when the
// breaker is disabled.
func (r *Registry) Get(s Settings) *Breaker {
	if s.Type == Disabled || s.Name == "" {
		return nil
	}

	defaults, ok := r.named[s.Name]
	if !ok {
		defaults = r.defaults
	}

	s = s.merge(defaults)
	if s.Type == TypeNone || s.Type == Disabled {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	b, ok := r.lookup[s]
	if !ok || b.idle(now) {
		r.dropIdle(now)
		b = newBreaker(s)
		r.lookup[s] = b
	}

	b.touch(now)
	return b
}

// Len returns the number of active breakers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lookup)
}
