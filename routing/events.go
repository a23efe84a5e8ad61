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

package routing

// RefreshEvent is published after every refresh of the routes.
type RefreshEvent struct {

	// Snapshot holds the routes in use after the refresh. After a
	// failed refresh, it is the previous snapshot.
	Snapshot *Snapshot

	// Scoped tells whether only the routes with matching Metadata
	// were refreshed.
	Scoped   bool
	Metadata map[string]any

	// Err is set when the refresh failed.
	Err error
}

// Success tells whether the refresh replaced the routes.
func (e RefreshEvent) Success() bool { return e.Err == nil }

// RefreshObserver objects are notified about the route refreshes. The
// notifications are delivered one at a time, in the order of the
// refreshes, after the snapshot was replaced.
type RefreshObserver interface {
	OnRefresh(RefreshEvent)
}

// ObserverFunc adapts ordinary functions to the RefreshObserver
// interface.
type ObserverFunc func(RefreshEvent)

func (f ObserverFunc) OnRefresh(e RefreshEvent) { f(e) }
