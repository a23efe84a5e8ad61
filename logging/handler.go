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

package logging

import (
	"context"
	"net/http"
	"time"
)

type accessStateKey struct{}

type accessState struct {
	routeID string
}

// Handler wraps an http.Handler and writes an access log entry for
// every request.
type Handler struct {
	next http.Handler
}

// NewHandler wraps next with access logging.
func NewHandler(next http.Handler) http.Handler {
	return &Handler{next: next}
}

// SetRouteID records the id of the matched route for the access log of
// the current request. It is a no-op outside of an access logged
// request.
func SetRouteID(ctx context.Context, id string) {
	if s, ok := ctx.Value(accessStateKey{}).(*accessState); ok {
		s.routeID = id
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	state := &accessState{}
	r = r.WithContext(context.WithValue(r.Context(), accessStateKey{}, state))

	lw := &loggingWriter{writer: w}
	h.next.ServeHTTP(lw, r)

	if lw.code == 0 {
		lw.code = http.StatusOK
	}

	LogAccess(&AccessEntry{
		Request:      r,
		StatusCode:   lw.code,
		ResponseSize: lw.bytes,
		Duration:     time.Since(now),
		RequestTime:  now,
		RouteID:      state.routeID,
	})
}
