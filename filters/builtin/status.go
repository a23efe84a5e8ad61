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

const statusField = "status"

type statusFilter struct {
	code int
}

// NewSetStatus returns a filter specification that replaces the status
// code of the response. Instances expect the status code, either as a
// number or as a name like NOT_FOUND.
func NewSetStatus() filters.Spec { return &statusFilter{} }

func (*statusFilter) Name() string { return SetStatusName }

func (*statusFilter) ShortcutFieldOrder() []string { return []string{statusField} }

func (*statusFilter) CreateFilter(v *args.Values) (filters.Filter, error) {
	s := v.String(statusField)
	if err := v.Err(); err != nil {
		return nil, err
	}

	code, err := filters.ParseStatus(s)
	if err != nil {
		return nil, err
	}

	return &statusFilter{code: code}, nil
}

func (*statusFilter) Request(filters.FilterContext) {}

func (f *statusFilter) Response(ctx filters.FilterContext) {
	if rsp := ctx.Response(); rsp != nil {
		rsp.StatusCode = f.code
		rsp.Status = fmt.Sprintf("%d %s", f.code, http.StatusText(f.code))
	}
}
