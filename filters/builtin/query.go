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
	"net/url"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

type addParameter struct {
	name  string
	value *template
}

// NewAddRequestParameter returns a filter specification that appends a
// parameter to the query of the request. The existing parameters keep
// their order.
func NewAddRequestParameter() filters.Spec { return &addParameter{} }

func (*addParameter) Name() string { return AddRequestParameterName }

func (*addParameter) ShortcutFieldOrder() []string {
	return []string{headerNameField, headerValueField}
}

func (*addParameter) CreateFilter(v *args.Values) (filters.Filter, error) {
	f := &addParameter{
		name:  v.String(headerNameField),
		value: newTemplate(v.String(headerValueField)),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if f.name == "" {
		return nil, fmt.Errorf("%w: empty parameter name", filters.ErrInvalidFilterParameters)
	}

	return f, nil
}

func (f *addParameter) Request(ctx filters.FilterContext) {
	u := ctx.Request().URL
	p := url.QueryEscape(f.name) + "=" + url.QueryEscape(f.value.expand(ctx))
	if u.RawQuery == "" {
		u.RawQuery = p
	} else {
		u.RawQuery += "&" + p
	}
}

func (*addParameter) Response(filters.FilterContext) {}
