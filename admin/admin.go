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
Package admin provides the administrative HTTP API of the gateway.

Endpoints:

	GET    /routes                      compiled routes
	GET    /routes/{id}                 definition of a compiled route
	GET    /routes/{id}/combinedfilters global and route filters of a route, with their order
	POST   /routes/{id}                 save a definition in the repository
	DELETE /routes/{id}                 delete a definition from the repository
	POST   /refresh                     reload the routes, optionally scoped by metadata
	GET    /globalfilters               global filters with their order
	GET    /routepredicates             names of the available predicates
	GET    /routefilters                names of the available filters

The write endpoints are available only when a repository is configured.
A scoped refresh accepts one or more metadata query parameters, e.g.
/refresh?metadata=group:canary.
*/
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/filters"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/proxy"
	"github.com/switchback/switchback/routing"
)

const maxDefinitionSize = 1 << 20

// Routes provides the current routes, and reloads them on request.
type Routes interface {
	Routes() []*routing.Route
	Route(id string) (*routing.Route, bool)
	Compile(*eskip.RouteDefinition) (*routing.Route, error)
	Refresh(context.Context) error
	RefreshScoped(context.Context, map[string]any) error
	Signal()
}

// Chains provides the effective filter chain of the routes.
type Chains interface {
	Filters(*routing.Route) []*routing.RouteFilter
	GlobalFilters() []*routing.RouteFilter
}

type Options struct {
	Routes Routes
	Chains Chains

	// Repository enables the write endpoints when set.
	Repository routing.Repository

	Predicates predicates.Registry
	Filters    filters.Registry

	Log logging.Logger
}

type handler struct {
	options Options
	log     logging.Logger
}

// RouteView is the representation of a compiled route.
type RouteView struct {
	Id         string                 `json:"route_id"`
	Order      int                    `json:"order"`
	URI        string                 `json:"uri"`
	Predicate  string                 `json:"predicate"`
	Filters    []string               `json:"filters,omitempty"`
	Definition *eskip.RouteDefinition `json:"route_definition,omitempty"`
}

// NewHandler creates the router of the admin API.
func NewHandler(o Options) http.Handler {
	if o.Log == nil {
		o.Log = logging.New("admin")
	}

	h := &handler{options: o, log: o.Log}
	r := mux.NewRouter()
	r.HandleFunc("/routes", h.routes).Methods(http.MethodGet)
	r.HandleFunc("/routes/{id}", h.route).Methods(http.MethodGet)
	r.HandleFunc("/routes/{id}/combinedfilters", h.combinedFilters).Methods(http.MethodGet)
	if o.Repository != nil {
		r.HandleFunc("/routes/{id}", h.save).Methods(http.MethodPost)
		r.HandleFunc("/routes/{id}", h.delete).Methods(http.MethodDelete)
	}

	r.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	r.HandleFunc("/globalfilters", h.globalFilters).Methods(http.MethodGet)
	r.HandleFunc("/routepredicates", h.routePredicates).Methods(http.MethodGet)
	r.HandleFunc("/routefilters", h.routeFilters).Methods(http.MethodGet)
	return r
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to write admin response: %v", err)
	}
}

func filterString(f *routing.RouteFilter) string {
	return (&eskip.FilterDefinition{Name: f.Name, Args: f.Args}).String()
}

// globals without an explicit order are reported with null
func namesToOrders(fs []*routing.RouteFilter) map[string]*int {
	m := make(map[string]*int, len(fs))
	for _, f := range fs {
		var order *int
		if f.Order != proxy.UnorderedGlobalFilter {
			o := f.Order
			order = &o
		}

		m[filterString(f)] = order
	}

	return m
}

func routeView(rt *routing.Route) *RouteView {
	v := &RouteView{
		Id:         rt.Id,
		Order:      rt.Order,
		Definition: rt.Definition,
	}

	if rt.URI != nil {
		v.URI = rt.URI.String()
	}

	if rt.Predicate != nil {
		v.Predicate = rt.Predicate.String()
	}

	for _, f := range rt.Filters {
		v.Filters = append(v.Filters, filterString(f))
	}

	return v
}

func (h *handler) routes(w http.ResponseWriter, _ *http.Request) {
	routes := h.options.Routes.Routes()
	views := make([]*RouteView, 0, len(routes))
	for _, rt := range routes {
		views = append(views, routeView(rt))
	}

	h.writeJSON(w, http.StatusOK, views)
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*routing.Route, bool) {
	id := mux.Vars(r)["id"]
	rt, ok := h.options.Routes.Route(id)
	if !ok {
		http.Error(w, fmt.Sprintf("route not found: %s", id), http.StatusNotFound)
	}

	return rt, ok
}

func (h *handler) route(w http.ResponseWriter, r *http.Request) {
	if rt, ok := h.lookup(w, r); ok {
		h.writeJSON(w, http.StatusOK, rt.Definition)
	}
}

func (h *handler) combinedFilters(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var chain []*routing.RouteFilter
	if h.options.Chains != nil {
		chain = h.options.Chains.Filters(rt)
	} else {
		chain = rt.Filters
	}

	h.writeJSON(w, http.StatusOK, namesToOrders(chain))
}

func (h *handler) save(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var def eskip.RouteDefinition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDefinitionSize)).Decode(&def); err != nil {
		http.Error(w, fmt.Sprintf("invalid route definition: %v", err), http.StatusBadRequest)
		return
	}

	def.Id = id
	if _, err := h.options.Routes.Compile(&def); err != nil {
		http.Error(w, fmt.Sprintf("invalid route definition: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.options.Repository.Save(r.Context(), &def); err != nil {
		h.log.Errorf("Failed to save route %s: %v", id, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.log.Debugf("Saved route %s", id)
	h.options.Routes.Signal()
	w.Header().Set("Location", "/routes/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.options.Repository.Delete(r.Context(), id)
	switch {
	case errors.Is(err, routing.ErrNotFound):
		http.Error(w, fmt.Sprintf("route not found: %s", id), http.StatusNotFound)
		return
	case err != nil:
		h.log.Errorf("Failed to delete route %s: %v", id, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.log.Debugf("Deleted route %s", id)
	h.options.Routes.Signal()
	w.WriteHeader(http.StatusOK)
}

func parseMetadata(values []string) (map[string]any, error) {
	md := make(map[string]any, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata, expected key:value: %q", v)
		}

		md[key] = value
	}

	return md, nil
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if values := r.URL.Query()["metadata"]; len(values) > 0 {
		md, perr := parseMetadata(values)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}

		err = h.options.Routes.RefreshScoped(r.Context(), md)
	} else {
		err = h.options.Routes.Refresh(r.Context())
	}

	if err != nil {
		http.Error(w, fmt.Sprintf("refresh failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *handler) globalFilters(w http.ResponseWriter, _ *http.Request) {
	var globals []*routing.RouteFilter
	if h.options.Chains != nil {
		globals = h.options.Chains.GlobalFilters()
	}

	h.writeJSON(w, http.StatusOK, namesToOrders(globals))
}

func (h *handler) routePredicates(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.options.Predicates.Names())
}

func (h *handler) routeFilters(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.options.Filters.Names())
}
