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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the generic interface that all the required backends
// should implement.
type Metrics interface {
	MeasureSince(key string, start time.Time)
	IncCounter(key string)
	IncCounterBy(key string, value int64)
	UpdateGauge(key string, value float64)

	MeasureRouteLookup(start time.Time)
	IncRoutingFailures()
	IncPredicateErrors(routeID string)
	SetInvalidRoute(routeID, reason string)
	DeleteInvalidRoute(routeID string)
	MeasureRefresh(success bool, start time.Time)
	SetRoutes(n int)

	MeasureFilterRequest(filterName string, start time.Time)
	MeasureFilterResponse(filterName string, start time.Time)
	MeasureAllFiltersRequest(routeID string, start time.Time)
	MeasureAllFiltersResponse(routeID string, start time.Time)
	IncFilterPanics(filterName string)

	MeasureBackend(routeID string, start time.Time)
	IncErrorsBackend(routeID string)
	MeasureServe(routeID, method string, code int, start time.Time)

	RegisterHandler(path string, mux *http.ServeMux)
}

// Options for initializing metrics collection.
type Options struct {

	// Common prefix for the keys of the different collected
	// metrics. Defaults to switchback.
	Prefix string

	// If set, Go runtime and process metrics are collected in
	// addition to the gateway metrics.
	EnableRuntimeMetrics bool

	// If set, the filter durations are measured per route, too.
	EnableAllFiltersMetrics bool

	// If set, the backend durations are measured per route.
	EnableRouteBackendMetrics bool

	// HistogramBuckets defines buckets into which the observations
	// are counted. Defaults to the Prometheus default buckets.
	HistogramBuckets []float64

	// PrometheusRegistry is the registry to register the metrics
	// with. When not set, a new registry is created.
	PrometheusRegistry *prometheus.Registry
}

// Default is used by the components when no metrics backend was
// configured.
var Default Metrics = Void{}

// Void discards every measurement.
type Void struct{}

var _ Metrics = Void{}

func (Void) MeasureSince(string, time.Time)              {}
func (Void) IncCounter(string)                           {}
func (Void) IncCounterBy(string, int64)                  {}
func (Void) UpdateGauge(string, float64)                 {}
func (Void) MeasureRouteLookup(time.Time)                {}
func (Void) IncRoutingFailures()                         {}
func (Void) IncPredicateErrors(string)                   {}
func (Void) SetInvalidRoute(string, string)              {}
func (Void) DeleteInvalidRoute(string)                   {}
func (Void) MeasureRefresh(bool, time.Time)              {}
func (Void) SetRoutes(int)                               {}
func (Void) MeasureFilterRequest(string, time.Time)      {}
func (Void) MeasureFilterResponse(string, time.Time)     {}
func (Void) MeasureAllFiltersRequest(string, time.Time)  {}
func (Void) MeasureAllFiltersResponse(string, time.Time) {}
func (Void) IncFilterPanics(string)                      {}
func (Void) MeasureBackend(string, time.Time)            {}
func (Void) IncErrorsBackend(string)                     {}
func (Void) MeasureServe(string, string, int, time.Time) {}
func (Void) RegisterHandler(string, *http.ServeMux)      {}
