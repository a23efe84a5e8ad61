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
Package eskipfile implements route definition sources reading a YAML or
JSON route document from a file or from a remote URL.

The document lists the routes under the routes key:

	routes:
	- id: orders
	  uri: https://orders.example.org
	  predicates:
	  - Path=/orders/**
	  filters:
	  - StripPrefix=1

Open reads the file once. Watch re-reads the file on the next refresh
after it was modified, and RemoteWatch downloads the document from an
HTTP URL on every refresh, unless it was not modified.
*/
package eskipfile
