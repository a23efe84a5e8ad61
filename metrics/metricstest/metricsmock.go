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

package metricstest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/switchback/switchback/metrics"
)

// MockMetrics records the measurements under string keys, e.g.
// "routing.failures" or "filter.request.SetPath".
type MockMetrics struct {
	mu sync.Mutex

	counters      map[string]int64
	gauges        map[string]float64
	measures      map[string][]time.Duration
	invalidRoutes map[string]string

	// Now, when set, is used as the end of the measured durations.
	Now time.Time
}

var _ metrics.Metrics = (*MockMetrics)(nil)

func (m *MockMetrics) init() {
	if m.counters == nil {
		m.counters = make(map[string]int64)
		m.gauges = make(map[string]float64)
		m.measures = make(map[string][]time.Duration)
		m.invalidRoutes = make(map[string]string)
	}
}

//
// Public thread safe access to metrics
//

func (m *MockMetrics) WithCounters(f func(counters map[string]int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	f(m.counters)
}

func (m *MockMetrics) WithGauges(f func(gauges map[string]float64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	f(m.gauges)
}

func (m *MockMetrics) WithMeasures(f func(measures map[string][]time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	f(m.measures)
}

// Counter returns the value of a counter.
func (m *MockMetrics) Counter(key string) (v int64) {
	m.WithCounters(func(c map[string]int64) { v = c[key] })
	return
}

// Gauge returns the value of a gauge.
func (m *MockMetrics) Gauge(key string) (v float64) {
	m.WithGauges(func(g map[string]float64) { v = g[key] })
	return
}

// Measures returns the number of measurements recorded with key.
func (m *MockMetrics) Measures(key string) (n int) {
	m.WithMeasures(func(ms map[string][]time.Duration) { n = len(ms[key]) })
	return
}

// InvalidRoutes returns a copy of the invalid routes and their reasons.
func (m *MockMetrics) InvalidRoutes() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()

	c := make(map[string]string, len(m.invalidRoutes))
	for k, v := range m.invalidRoutes {
		c[k] = v
	}

	return c
}

func (m *MockMetrics) add(key string, v int64) {
	m.WithCounters(func(c map[string]int64) { c[key] += v })
}

func (m *MockMetrics) measure(key string, start time.Time) {
	now := m.Now
	if now.IsZero() {
		now = time.Now()
	}

	m.WithMeasures(func(ms map[string][]time.Duration) {
		ms[key] = append(ms[key], now.Sub(start))
	})
}

//
// Interface Metrics
//

func (m *MockMetrics) MeasureSince(key string, start time.Time) { m.measure(key, start) }
func (m *MockMetrics) IncCounter(key string)                    { m.add(key, 1) }
func (m *MockMetrics) IncCounterBy(key string, value int64)     { m.add(key, value) }

func (m *MockMetrics) UpdateGauge(key string, v float64) {
	m.WithGauges(func(g map[string]float64) { g[key] = v })
}

func (m *MockMetrics) MeasureRouteLookup(start time.Time) { m.measure("route.lookup", start) }
func (m *MockMetrics) IncRoutingFailures()                { m.add("routing.failures", 1) }

func (m *MockMetrics) IncPredicateErrors(routeID string) {
	m.add("predicate.errors."+routeID, 1)
}

func (m *MockMetrics) SetInvalidRoute(routeID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.invalidRoutes[routeID] = reason
}

func (m *MockMetrics) DeleteInvalidRoute(routeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	delete(m.invalidRoutes, routeID)
}

func (m *MockMetrics) MeasureRefresh(success bool, start time.Time) {
	if success {
		m.measure("routing.refresh.success", start)
	} else {
		m.measure("routing.refresh.failure", start)
	}
}

func (m *MockMetrics) SetRoutes(n int) { m.UpdateGauge("routing.routes", float64(n)) }

func (m *MockMetrics) MeasureFilterRequest(filterName string, start time.Time) {
	m.measure("filter.request."+filterName, start)
}

func (m *MockMetrics) MeasureFilterResponse(filterName string, start time.Time) {
	m.measure("filter.response."+filterName, start)
}

func (m *MockMetrics) MeasureAllFiltersRequest(routeID string, start time.Time) {
	m.measure("filters.request."+routeID, start)
}

func (m *MockMetrics) MeasureAllFiltersResponse(routeID string, start time.Time) {
	m.measure("filters.response."+routeID, start)
}

func (m *MockMetrics) IncFilterPanics(filterName string) {
	m.add("filter.panics."+filterName, 1)
}

func (m *MockMetrics) MeasureBackend(routeID string, start time.Time) {
	m.measure("backend."+routeID, start)
}

func (m *MockMetrics) IncErrorsBackend(routeID string) {
	m.add("backend.errors."+routeID, 1)
}

func (m *MockMetrics) MeasureServe(routeID, method string, code int, start time.Time) {
	m.measure(fmt.Sprintf("serve.%s.%s.%d", routeID, method, code), start)
}

func (m *MockMetrics) RegisterHandler(string, *http.ServeMux) {}
