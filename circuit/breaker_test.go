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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func times(n int, f func()) {
	for range n {
		f()
	}
}

func report(t *testing.T, success bool, b *Breaker) func() {
	return func() {
		if t.Failed() {
			return
		}

		done, ok := b.Allow()
		if !ok {
			t.Error("breaker is unexpectedly open")
			return
		}

		done(success)
	}
}

func succeed(t *testing.T, b *Breaker) func() { return report(t, true, b) }
func fail(t *testing.T, b *Breaker) func()    { return report(t, false, b) }

func checkClosed(t *testing.T, b *Breaker) {
	t.Helper()
	if _, ok := b.Allow(); !ok {
		t.Error("breaker is not closed")
	}
}

func checkOpen(t *testing.T, b *Breaker) {
	t.Helper()
	if _, ok := b.Allow(); ok {
		t.Error("breaker is not open")
	}
}

func TestConsecutiveFailures(t *testing.T) {
	s := Settings{
		Type:             ConsecutiveFailures,
		Name:             "route1",
		Failures:         3,
		HalfOpenRequests: 3,
		Timeout:          15 * time.Millisecond,
	}

	t.Run("new breaker closed", func(t *testing.T) {
		b := newBreaker(s)
		checkClosed(t, b)
		assert.Equal(t, "closed", b.State())
	})

	t.Run("does not open on not enough failures", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures-1, fail(t, b))
		checkClosed(t, b)
	})

	t.Run("a success resets the count", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures-1, fail(t, b))
		times(1, succeed(t, b))
		times(s.Failures-1, fail(t, b))
		checkClosed(t, b)
	})

	t.Run("open on failures", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures, fail(t, b))
		checkOpen(t, b)
		assert.Equal(t, "open", b.State())
	})

	t.Run("half open, close after the required successes", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures, fail(t, b))
		time.Sleep(s.Timeout)
		times(s.HalfOpenRequests, succeed(t, b))
		checkClosed(t, b)
	})

	t.Run("half open, reopen on a failure", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures, fail(t, b))
		time.Sleep(s.Timeout)
		times(s.HalfOpenRequests-1, succeed(t, b))
		times(1, fail(t, b))
		checkOpen(t, b)
	})
}

func TestRateBreaker(t *testing.T) {
	s := Settings{
		Type:             FailureRate,
		Name:             "route1",
		Window:           6,
		Failures:         3,
		HalfOpenRequests: 3,
		Timeout:          3 * time.Millisecond,
	}

	t.Run("new breaker closed", func(t *testing.T) {
		checkClosed(t, newBreaker(s))
	})

	t.Run("does not open if the failures are not within a window", func(t *testing.T) {
		b := newBreaker(s)
		for range 3 {
			times(1, fail(t, b))
			times(2, succeed(t, b))
			checkClosed(t, b)
		}
	})

	t.Run("opens on reaching the rate", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Window, succeed(t, b))
		times(s.Failures, fail(t, b))
		checkOpen(t, b)
	})

	t.Run("closes again after the timeout", func(t *testing.T) {
		b := newBreaker(s)
		times(s.Failures, fail(t, b))
		checkOpen(t, b)
		time.Sleep(2 * s.Timeout)
		times(s.HalfOpenRequests, succeed(t, b))
		checkClosed(t, b)
	})
}

func TestFailureWindow(t *testing.T) {
	for _, size := range []int{1, 3, 64, 65, 130} {
		w := newFailureWindow(size)

		times(size, func() { w.tick(true) })
		assert.Equal(t, size, w.failures, "size %d", size)

		times(size-1, func() { w.tick(false) })
		assert.Equal(t, 1, w.failures, "size %d", size)

		w.tick(false)
		assert.Equal(t, 0, w.failures, "size %d", size)
	}
}

func TestSettingsString(t *testing.T) {
	s := Settings{
		Type:             FailureRate,
		Name:             "checkout",
		Failures:         30,
		Window:           300,
		Timeout:          time.Minute,
		HalfOpenRequests: 15,
		IdleTTL:          time.Hour,
	}

	assert.Equal(t,
		"type=rate,name=checkout,window=300,failures=30,timeout=1m0s,half-open-requests=15,idle-ttl=1h0m0s",
		s.String(),
	)

	assert.Equal(t, "disabled", Settings{Type: Disabled}.String())
	assert.Equal(t, "none", Settings{}.String())
}
