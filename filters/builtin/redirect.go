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

package builtin

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

const (
	urlField                  = "url"
	includeRequestParamsField = "includeRequestParams"
)

type redirect struct {
	code                 int
	location             *url.URL
	includeRequestParams bool
}

// NewRedirectTo returns a filter specification that responds with a
// redirect, without forwarding the request to the backend. Instances
// expect a 3xx status code, the location and, optionally, whether the
// query parameters of the request should be appended to the location.
func NewRedirectTo() filters.Spec { return &redirect{} }

func (*redirect) Name() string { return RedirectToName }

func (*redirect) ShortcutFieldOrder() []string {
	return []string{statusField, urlField, includeRequestParamsField}
}

func (*redirect) CreateFilter(v *args.Values) (filters.Filter, error) {
	status := v.String(statusField)
	location := v.String(urlField)
	include := v.OptionalBool(includeRequestParamsField, false)
	if err := v.Err(); err != nil {
		return nil, err
	}

	code, err := filters.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	if code < 300 || code > 399 {
		return nil, fmt.Errorf("%w: status must be a 3xx code, but was %s", filters.ErrInvalidFilterParameters, status)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	return &redirect{code: code, location: u, includeRequestParams: include}, nil
}

func (f *redirect) locationFor(r *http.Request) string {
	if !f.includeRequestParams || r.URL.RawQuery == "" {
		return f.location.String()
	}

	u := *f.location
	if u.RawQuery == "" {
		u.RawQuery = r.URL.RawQuery
	} else {
		u.RawQuery += "&" + r.URL.RawQuery
	}

	return u.String()
}

func (f *redirect) Request(ctx filters.FilterContext) {
	h := make(http.Header)
	h.Set("Location", f.locationFor(ctx.Request()))
	filters.ServeStatus(ctx, f.code, h)
}

func (*redirect) Response(filters.FilterContext) {}
