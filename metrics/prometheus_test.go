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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, p *Prometheus) string {
	t.Helper()

	mux := http.NewServeMux()
	p.RegisterHandler("/metrics", mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(b)
}

func TestPrometheusMetrics(t *testing.T) {
	p := NewPrometheus(Options{EnableAllFiltersMetrics: true})
	start := time.Now().Add(-10 * time.Millisecond)

	p.MeasureRouteLookup(start)
	p.IncRoutingFailures()
	p.IncPredicateErrors("r1")
	p.MeasureRefresh(true, start)
	p.MeasureRefresh(false, start)
	p.SetRoutes(3)
	p.MeasureFilterRequest("SetPath", start)
	p.MeasureAllFiltersRequest("r1", start)
	p.IncFilterPanics("SetPath")
	p.MeasureBackend("r1", start)
	p.IncErrorsBackend("r1")
	p.MeasureServe("r1", "FOO", 200, start)
	p.IncCounter("foo")

	out := scrape(t, p)
	for _, expected := range []string{
		"switchback_route_lookup_duration_seconds_count 1",
		"switchback_route_error_total 1",
		`switchback_predicate_error_total{route="r1"} 1`,
		`switchback_routing_refresh_duration_seconds_count{result="success"} 1`,
		`switchback_routing_refresh_duration_seconds_count{result="failure"} 1`,
		"switchback_routing_routes 3",
		`switchback_filter_request_duration_seconds_count{filter="SetPath"} 1`,
		`switchback_filter_all_request_duration_seconds_count{route="r1"} 1`,
		`switchback_filter_panic_total{filter="SetPath"} 1`,
		`switchback_backend_duration_seconds_count{route=""} 1`,
		`switchback_backend_error_total{route="r1"} 1`,
		`switchback_serve_route_duration_seconds_count{code="200",method="_unknownmethod_",route="r1"} 1`,
		`switchback_custom_total{key="foo"} 1`,
	} {
		assert.Contains(t, out, expected)
	}
}

func TestPrometheusInvalidRoutes(t *testing.T) {
	p := NewPrometheus(Options{Prefix: "gw."})

	p.SetInvalidRoute("r1", "unknown_filter")
	p.SetInvalidRoute("r1", "invalid_uri")
	p.SetInvalidRoute("r2", "unknown_predicate")
	p.DeleteInvalidRoute("r2")
	p.DeleteInvalidRoute("r3")

	out := scrape(t, p)
	assert.Contains(t, out, `gw_routing_invalid_routes{reason="invalid_uri",route="r1"} 1`)
	assert.NotContains(t, out, `reason="unknown_filter"`)
	assert.NotContains(t, out, `route="r2"`)
}
