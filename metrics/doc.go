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
Package metrics implements collection of common performance metrics of
the gateway, with a Prometheus backend.

The collected metrics include the time of looking up routes, the number
of requests without a matching route, the errors of route predicates,
the invalid route definitions by reason, the outcome of route
refreshes, the time spent with processing all filters and every single
filter, and the time waiting for the response from the backend
services.

To enable metrics, the gateway needs to be started with a metrics
listener address. In this case, an additional http listener is started,
where the current metrics values can be scraped from /metrics.
*/
package metrics
