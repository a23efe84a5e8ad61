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
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	promNamespace         = "switchback"
	promRouteSubsystem    = "route"
	promFilterSubsystem   = "filter"
	promProxySubsystem    = "backend"
	promServeSubsystem    = "serve"
	promCustomSubsystem   = "custom"
	promRoutingSubsystem  = "routing"
	promPredicateSubystem = "predicate"
)

// Prometheus implements the prometheus metrics backend.
type Prometheus struct {
	routeLookupM        *prometheus.HistogramVec
	routeErrorsM        *prometheus.CounterVec
	predicateErrorsM    *prometheus.CounterVec
	invalidRoutesM      *prometheus.GaugeVec
	refreshM            *prometheus.HistogramVec
	routesM             prometheus.Gauge
	filterRequestM      *prometheus.HistogramVec
	filterResponseM     *prometheus.HistogramVec
	filterAllRequestM   *prometheus.HistogramVec
	filterAllResponseM  *prometheus.HistogramVec
	filterPanicsM       *prometheus.CounterVec
	proxyBackendM       *prometheus.HistogramVec
	proxyBackendErrorsM *prometheus.CounterVec
	serveRouteM         *prometheus.HistogramVec
	customHistogramM    *prometheus.HistogramVec
	customCounterM      *prometheus.CounterVec
	customGaugeM        *prometheus.GaugeVec

	// invalid route gauges are set per route with the reason label,
	// the reason is remembered to be able to delete the series
	mu            sync.Mutex
	invalidReason map[string]string

	opts     Options
	registry *prometheus.Registry
	handler  http.Handler
}

var _ Metrics = (*Prometheus)(nil)

// NewPrometheus returns a new Prometheus metric backend.
func NewPrometheus(opts Options) *Prometheus {
	namespace := promNamespace
	if opts.Prefix != "" {
		namespace = strings.TrimSuffix(opts.Prefix, ".")
	}

	if len(opts.HistogramBuckets) == 0 {
		opts.HistogramBuckets = prometheus.DefBuckets
	}

	histogram := func(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   opts.HistogramBuckets,
		}, labels)
	}

	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	p := &Prometheus{
		routeLookupM:     histogram(promRouteSubsystem, "lookup_duration_seconds", "Duration in seconds of a route lookup."),
		routeErrorsM:     counter(promRouteSubsystem, "error_total", "The total of requests without a matching route."),
		predicateErrorsM: counter(promPredicateSubystem, "error_total", "The total of failed predicate evaluations.", "route"),
		invalidRoutesM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: promRoutingSubsystem,
			Name:      "invalid_routes",
			Help:      "Number of invalid route definitions by reason.",
		}, []string{"route", "reason"}),
		refreshM: histogram(promRoutingSubsystem, "refresh_duration_seconds", "Duration in seconds of a route refresh.", "result"),
		routesM: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: promRoutingSubsystem,
			Name:      "routes",
			Help:      "Number of active routes.",
		}),
		filterRequestM:      histogram(promFilterSubsystem, "request_duration_seconds", "Duration in seconds of a filter request.", "filter"),
		filterResponseM:     histogram(promFilterSubsystem, "response_duration_seconds", "Duration in seconds of a filter response.", "filter"),
		filterAllRequestM:   histogram(promFilterSubsystem, "all_request_duration_seconds", "Duration in seconds of the request phase of all filters.", "route"),
		filterAllResponseM:  histogram(promFilterSubsystem, "all_response_duration_seconds", "Duration in seconds of the response phase of all filters.", "route"),
		filterPanicsM:       counter(promFilterSubsystem, "panic_total", "The total of recovered filter panics.", "filter"),
		proxyBackendM:       histogram(promProxySubsystem, "duration_seconds", "Duration in seconds of a proxy backend.", "route"),
		proxyBackendErrorsM: counter(promProxySubsystem, "error_total", "Total number of backend route errors.", "route"),
		serveRouteM:         histogram(promServeSubsystem, "route_duration_seconds", "Duration in seconds of serving a route.", "code", "method", "route"),
		customHistogramM:    histogram(promCustomSubsystem, "duration_seconds", "Duration in seconds of custom metrics.", "key"),
		customCounterM:      counter(promCustomSubsystem, "total", "Total number of custom metrics.", "key"),
		customGaugeM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: promCustomSubsystem,
			Name:      "gauges",
			Help:      "Gauges number of custom metrics.",
		}, []string{"key"}),

		invalidReason: make(map[string]string),
		registry:      opts.PrometheusRegistry,
		opts:          opts,
	}

	if p.registry == nil {
		p.registry = prometheus.NewRegistry()
	}

	p.registerMetrics()
	return p
}

// sinceS returns the seconds passed since the start time until now.
func (p *Prometheus) sinceS(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (p *Prometheus) registerMetrics() {
	p.registry.MustRegister(
		p.routeLookupM,
		p.routeErrorsM,
		p.predicateErrorsM,
		p.invalidRoutesM,
		p.refreshM,
		p.routesM,
		p.filterRequestM,
		p.filterResponseM,
		p.filterAllRequestM,
		p.filterAllResponseM,
		p.filterPanicsM,
		p.proxyBackendM,
		p.proxyBackendErrorsM,
		p.serveRouteM,
		p.customHistogramM,
		p.customCounterM,
		p.customGaugeM,
	)

	if p.opts.EnableRuntimeMetrics {
		p.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		p.registry.MustRegister(collectors.NewGoCollector())
	}
}

func (p *Prometheus) CreateHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) getHandler() http.Handler {
	if p.handler != nil {
		return p.handler
	}

	p.handler = p.CreateHandler()
	return p.handler
}

// RegisterHandler satisfies Metrics interface.
func (p *Prometheus) RegisterHandler(path string, mux *http.ServeMux) {
	mux.Handle(path, p.getHandler())
}

// MeasureSince satisfies Metrics interface.
func (p *Prometheus) MeasureSince(key string, start time.Time) {
	p.customHistogramM.WithLabelValues(key).Observe(p.sinceS(start))
}

// IncCounter satisfies Metrics interface.
func (p *Prometheus) IncCounter(key string) {
	p.customCounterM.WithLabelValues(key).Inc()
}

// IncCounterBy satisfies Metrics interface.
func (p *Prometheus) IncCounterBy(key string, value int64) {
	p.customCounterM.WithLabelValues(key).Add(float64(value))
}

// UpdateGauge satisfies Metrics interface.
func (p *Prometheus) UpdateGauge(key string, v float64) {
	p.customGaugeM.WithLabelValues(key).Set(v)
}

// MeasureRouteLookup satisfies Metrics interface.
func (p *Prometheus) MeasureRouteLookup(start time.Time) {
	p.routeLookupM.WithLabelValues().Observe(p.sinceS(start))
}

// IncRoutingFailures satisfies Metrics interface.
func (p *Prometheus) IncRoutingFailures() {
	p.routeErrorsM.WithLabelValues().Inc()
}

// IncPredicateErrors satisfies Metrics interface.
func (p *Prometheus) IncPredicateErrors(routeID string) {
	p.predicateErrorsM.WithLabelValues(routeID).Inc()
}

// SetInvalidRoute satisfies Metrics interface.
func (p *Prometheus) SetInvalidRoute(routeID, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if previous, ok := p.invalidReason[routeID]; ok && previous != reason {
		p.invalidRoutesM.DeleteLabelValues(routeID, previous)
	}

	p.invalidReason[routeID] = reason
	p.invalidRoutesM.WithLabelValues(routeID, reason).Set(1)
}

// DeleteInvalidRoute satisfies Metrics interface.
func (p *Prometheus) DeleteInvalidRoute(routeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reason, ok := p.invalidReason[routeID]; ok {
		p.invalidRoutesM.DeleteLabelValues(routeID, reason)
		delete(p.invalidReason, routeID)
	}
}

// MeasureRefresh satisfies Metrics interface.
func (p *Prometheus) MeasureRefresh(success bool, start time.Time) {
	p.refreshM.WithLabelValues(refreshResult(success)).Observe(p.sinceS(start))
}

// SetRoutes satisfies Metrics interface.
func (p *Prometheus) SetRoutes(n int) {
	p.routesM.Set(float64(n))
}

// MeasureFilterRequest satisfies Metrics interface.
func (p *Prometheus) MeasureFilterRequest(filterName string, start time.Time) {
	p.filterRequestM.WithLabelValues(filterName).Observe(p.sinceS(start))
}

// MeasureFilterResponse satisfies Metrics interface.
func (p *Prometheus) MeasureFilterResponse(filterName string, start time.Time) {
	p.filterResponseM.WithLabelValues(filterName).Observe(p.sinceS(start))
}

// MeasureAllFiltersRequest satisfies Metrics interface.
func (p *Prometheus) MeasureAllFiltersRequest(routeID string, start time.Time) {
	if p.opts.EnableAllFiltersMetrics {
		p.filterAllRequestM.WithLabelValues(routeID).Observe(p.sinceS(start))
	}
}

// MeasureAllFiltersResponse satisfies Metrics interface.
func (p *Prometheus) MeasureAllFiltersResponse(routeID string, start time.Time) {
	if p.opts.EnableAllFiltersMetrics {
		p.filterAllResponseM.WithLabelValues(routeID).Observe(p.sinceS(start))
	}
}

// IncFilterPanics satisfies Metrics interface.
func (p *Prometheus) IncFilterPanics(filterName string) {
	p.filterPanicsM.WithLabelValues(filterName).Inc()
}

// MeasureBackend satisfies Metrics interface.
func (p *Prometheus) MeasureBackend(routeID string, start time.Time) {
	if !p.opts.EnableRouteBackendMetrics {
		routeID = ""
	}

	p.proxyBackendM.WithLabelValues(routeID).Observe(p.sinceS(start))
}

// IncErrorsBackend satisfies Metrics interface.
func (p *Prometheus) IncErrorsBackend(routeID string) {
	p.proxyBackendErrorsM.WithLabelValues(routeID).Inc()
}

// MeasureServe satisfies Metrics interface.
func (p *Prometheus) MeasureServe(routeID, method string, code int, start time.Time) {
	p.serveRouteM.WithLabelValues(fmt.Sprint(code), measuredMethod(method), routeID).Observe(p.sinceS(start))
}
