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

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Done reports the outcome of a request allowed by a breaker. It must be
// called exactly once.
type Done func(success bool)

type implementation interface {
	Allow() (Done, bool)
	State() gobreaker.State
}

// Breaker is a single circuit breaker with a fixed set of settings.
// Use the Get method of the Registry to get initialized breakers.
type Breaker struct {
	settings Settings
	impl     implementation

	mu       sync.Mutex
	lastUsed time.Time
}

func newTwoStep(s Settings, readyToTrip func(gobreaker.Counts) bool) *gobreaker.TwoStepCircuitBreaker {
	return gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: uint32(s.HalfOpenRequests),
		Timeout:     s.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("Circuit breaker %s went from %v to %v", name, from, to)
		},
	})
}

func newBreaker(s Settings) *Breaker {
	var impl implementation
	switch s.Type {
	case FailureRate:
		impl = newRate(s)
	default:
		impl = newConsecutive(s)
	}

	return &Breaker{settings: s, impl: impl}
}

// Allow tells whether the breaker lets a request through. When it does,
// it returns the function to report the outcome of the request.
func (b *Breaker) Allow() (Done, bool) { return b.impl.Allow() }

// State returns the name of the current state: closed, half-open or
// open.
func (b *Breaker) State() string { return b.impl.State().String() }

func (b *Breaker) Settings() Settings { return b.settings }

func (b *Breaker) touch(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUsed = now
}

func (b *Breaker) idle(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastUsed) > b.settings.IdleTTL
}

type consecutive struct {
	gb *gobreaker.TwoStepCircuitBreaker
}

func newConsecutive(s Settings) *consecutive {
	return &consecutive{gb: newTwoStep(s, func(c gobreaker.Counts) bool {
		return int(c.ConsecutiveFailures) >= s.Failures
	})}
}

func (c *consecutive) Allow() (Done, bool) {
	done, err := c.gb.Allow()

	// the error can only mean that the breaker is open, or that too
	// many requests are in flight while half-open
	if err != nil {
		return nil, false
	}

	return Done(done), true
}

func (c *consecutive) State() gobreaker.State { return c.gb.State() }

// rate counts the outcomes in a sliding window, and lets the underlying
// breaker trip when the failures in the window reach the limit.
type rate struct {
	settings Settings
	gb       *gobreaker.TwoStepCircuitBreaker

	mu     sync.Mutex
	window *failureWindow
}

func newRate(s Settings) *rate {
	r := &rate{settings: s}
	r.gb = newTwoStep(s, func(gobreaker.Counts) bool { return r.readyToTrip() })
	return r
}

func (r *rate) readyToTrip() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.window == nil || r.window.failures < r.settings.Failures {
		return false
	}

	// the window starts over after the breaker closed again
	r.window = nil
	return true
}

func (r *rate) count(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.window == nil {
		r.window = newFailureWindow(r.settings.Window)
	}

	r.window.tick(!success)
}

func (r *rate) Allow() (Done, bool) {
	done, err := r.gb.Allow()
	if err != nil {
		return nil, false
	}

	return func(success bool) {
		r.count(success)
		done(success)
	}, true
}

func (r *rate) State() gobreaker.State { return r.gb.State() }
