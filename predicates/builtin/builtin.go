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

// Package builtin collects the predicate specs shipped with switchback.
package builtin

import (
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/cookie"
	"github.com/switchback/switchback/predicates/cron"
	"github.com/switchback/switchback/predicates/header"
	"github.com/switchback/switchback/predicates/host"
	"github.com/switchback/switchback/predicates/interval"
	"github.com/switchback/switchback/predicates/methods"
	"github.com/switchback/switchback/predicates/path"
	"github.com/switchback/switchback/predicates/primitive"
	"github.com/switchback/switchback/predicates/query"
	"github.com/switchback/switchback/predicates/readbody"
	"github.com/switchback/switchback/predicates/source"
	"github.com/switchback/switchback/predicates/weight"
)

// MakeRegistry returns a Registry object initialized with the default
// set of predicate specifications.
func MakeRegistry() predicates.Registry {
	r := make(predicates.Registry)
	r.Register(
		path.New(),
		host.New(),
		methods.New(),
		header.New(),
		query.New(),
		cookie.New(),
		interval.NewAfter(),
		interval.NewBefore(),
		interval.NewBetween(),
		source.NewRemoteAddr(),
		source.NewXForwardedRemoteAddr(),
		weight.New(),
		readbody.New(),
		cron.New(),
		primitive.NewTrue(),
		primitive.NewFalse(),
	)

	return r
}
