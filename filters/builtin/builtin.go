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
Package builtin provides the filters that don't need external
resources: header and query manipulation, path rewriting, response
status and redirects.

	- id: api
	  uri: https://api.example.org
	  predicates:
	  - Path=/api/{segment}
	  filters:
	  - StripPrefix=1
	  - AddRequestHeader=X-Segment, {segment}
	  - SetResponseHeader=Cache-Control, no-store

The values of the header, query and path filters may contain the
variables captured by the Path and Host predicates, in the form of
{name}.
*/
package builtin

import (
	"github.com/switchback/switchback/filters"
)

const (
	AddRequestHeaderName     = "AddRequestHeader"
	AddResponseHeaderName    = "AddResponseHeader"
	SetRequestHeaderName     = "SetRequestHeader"
	SetResponseHeaderName    = "SetResponseHeader"
	RemoveRequestHeaderName  = "RemoveRequestHeader"
	RemoveResponseHeaderName = "RemoveResponseHeader"
	AddRequestParameterName  = "AddRequestParameter"
	StripPrefixName          = "StripPrefix"
	PrefixPathName           = "PrefixPath"
	SetPathName              = "SetPath"
	RewritePathName          = "RewritePath"
	SetStatusName            = "SetStatus"
	RedirectToName           = "RedirectTo"
)

// MakeRegistry returns a Registry object initialized with the filter
// specifications of this package.
func MakeRegistry() filters.Registry {
	r := make(filters.Registry)
	for _, s := range []filters.Spec{
		NewAddRequestHeader(),
		NewAddResponseHeader(),
		NewSetRequestHeader(),
		NewSetResponseHeader(),
		NewRemoveRequestHeader(),
		NewRemoveResponseHeader(),
		NewAddRequestParameter(),
		NewStripPrefix(),
		NewPrefixPath(),
		NewSetPath(),
		NewRewritePath(),
		NewSetStatus(),
		NewRedirectTo(),
	} {
		r.Register(s)
	}

	return r
}
