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
Package circuit implements the circuit breakers used by the
CircuitBreaker filter.

There are two types of breakers: consecutive and failure rate based.
Breakers are identified by name. By default, the name is the id of the
route that uses the breaker, so the failures of one route never open
the breaker of another. Routes that share a breaker name share the
breaker, too.

# Consecutive Failures

This breaker opens when the backend failed, or responded with a failure
status, at least N times in a row. When open, the requests are
rejected with 503 Service Unavailable until the configured timeout
passes. Then the breaker goes half-open, and lets M requests through.
If any of them fails, it opens again, otherwise it closes.

# Failure Rate

The rate breaker opens when the number of failures reaches N out of the
last W requests. The window is not time based, it always tracks the
last W outcomes, so the breaker behaves the same for low and high
traffic routes.

# Settings

Settings can be defined globally, per breaker name, and in the route
definition. The values are merged in this order, the global settings
serving as defaults for the named settings, and both serving as
defaults for the route settings. In the configuration file:

	breakers:
	- type: consecutive
	  failures: 5
	  timeout: 30s
	- name: checkout
	  type: rate
	  window: 100
	  failures: 30

The breakers that were not used for the idle TTL are released.
*/
package circuit
