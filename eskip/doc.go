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
Package eskip implements the data model of route definitions, the raw
description of a route before it gets compiled into an executable
route.

# Route Definitions

A route definition has an id, a target URI, an ordered list of
predicates, an ordered list of filters, an order and free form
metadata:

	routes:
	- id: catalog
	  uri: https://catalog.example.org
	  order: 1
	  predicates:
	  - Path=/catalog/**
	  - name: Header
	    args:
	      header: X-Tenant
	      regexp: acme|example
	  filters:
	  - StripPrefix=1
	  - AddRequestHeader=X-Gateway, switchback
	- id: fallback
	  uri: https://www.example.org
	  order: 100

# Shortcut Notation

Predicates and filters can be written in the shortcut notation: the
name, an equal sign and the comma separated values. The values become
positional arguments, stored under generated keys: _genkey_0,
_genkey_1 and so on. The factory of the predicate or the filter maps
the positional arguments to its named fields.

A definition without an equal sign has no arguments:

	- RemoveRequestHeader=X-Debug
	- Cron=* 9-17 * * 1-5
	- True

# Documents

Route documents can be JSON or YAML. The top level is either an
object with a routes field or a plain list. The arguments of an object
style definition preserve their order in JSON documents.
*/
package eskip
