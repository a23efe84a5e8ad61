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

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

type headerType int

const (
	requestHeader headerType = iota
	responseHeader
)

type headerBehavior int

const (
	addHeader headerBehavior = iota
	setHeader
	removeHeader
)

const (
	headerNameField  = "name"
	headerValueField = "value"
)

// common structure for the header specifications and filters
type headerFilter struct {
	typ      headerType
	behavior headerBehavior
	key      string
	value    *template
}

// NewAddRequestHeader returns a filter specification that adds a value
// to a request header. Instances expect two parameters: the header name
// and the header value.
func NewAddRequestHeader() filters.Spec {
	return &headerFilter{typ: requestHeader, behavior: addHeader}
}

func NewAddResponseHeader() filters.Spec {
	return &headerFilter{typ: responseHeader, behavior: addHeader}
}

// NewSetRequestHeader returns a filter specification that replaces the
// values of a request header.
func NewSetRequestHeader() filters.Spec {
	return &headerFilter{typ: requestHeader, behavior: setHeader}
}

func NewSetResponseHeader() filters.Spec {
	return &headerFilter{typ: responseHeader, behavior: setHeader}
}

// NewRemoveRequestHeader returns a filter specification that removes a
// request header. Instances expect the header name.
func NewRemoveRequestHeader() filters.Spec {
	return &headerFilter{typ: requestHeader, behavior: removeHeader}
}

func NewRemoveResponseHeader() filters.Spec {
	return &headerFilter{typ: responseHeader, behavior: removeHeader}
}

func (spec *headerFilter) Name() string {
	switch {
	case spec.typ == requestHeader && spec.behavior == addHeader:
		return AddRequestHeaderName
	case spec.typ == requestHeader && spec.behavior == setHeader:
		return SetRequestHeaderName
	case spec.typ == requestHeader:
		return RemoveRequestHeaderName
	case spec.behavior == addHeader:
		return AddResponseHeaderName
	case spec.behavior == setHeader:
		return SetResponseHeaderName
	default:
		return RemoveResponseHeaderName
	}
}

func (spec *headerFilter) ShortcutFieldOrder() []string {
	if spec.behavior == removeHeader {
		return []string{headerNameField}
	}

	return []string{headerNameField, headerValueField}
}

func (spec *headerFilter) CreateFilter(v *args.Values) (filters.Filter, error) {
	f := &headerFilter{typ: spec.typ, behavior: spec.behavior}
	f.key = v.String(headerNameField)
	if spec.behavior != removeHeader {
		f.value = newTemplate(v.String(headerValueField))
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if f.key == "" {
		return nil, fmt.Errorf("%w: empty header name", filters.ErrInvalidFilterParameters)
	}

	return f, nil
}

func (f *headerFilter) apply(ctx filters.FilterContext, h http.Header) {
	switch f.behavior {
	case addHeader:
		h.Add(f.key, f.value.expand(ctx))
	case setHeader:
		h.Set(f.key, f.value.expand(ctx))
	default:
		h.Del(f.key)
	}
}

func (f *headerFilter) Request(ctx filters.FilterContext) {
	if f.typ != requestHeader {
		return
	}

	r := ctx.Request()
	f.apply(ctx, r.Header)
	if http.CanonicalHeaderKey(f.key) == "Host" && f.behavior != removeHeader {
		r.Host = r.Header.Get("Host")
	}
}

func (f *headerFilter) Response(ctx filters.FilterContext) {
	if f.typ != responseHeader || ctx.Response() == nil {
		return
	}

	if ctx.Response().Header == nil {
		ctx.Response().Header = make(http.Header)
	}

	f.apply(ctx, ctx.Response().Header)
}
