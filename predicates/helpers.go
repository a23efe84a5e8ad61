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

package predicates

import (
	"strconv"
	"time"

	"github.com/switchback/switchback/eskip"
)

// Path
func Path(patterns ...string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: PathName,
		Args: eskip.Positional(patterns...),
	}
}

// Host
func Host(patterns ...string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: HostName,
		Args: eskip.Positional(patterns...),
	}
}

// Method
func Method(methods ...string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: MethodName,
		Args: eskip.Positional(methods...),
	}
}

// Header, regexp can be empty to only check the presence.
func Header(name, regexp string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: HeaderName,
		Args: eskip.Named("header", name, "regexp", regexp),
	}
}

// Query, regexp can be empty to only check the presence.
func Query(param, regexp string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: QueryName,
		Args: eskip.Named("param", param, "regexp", regexp),
	}
}

// Cookie
func Cookie(name, regexp string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: CookieName,
		Args: eskip.Named("name", name, "regexp", regexp),
	}
}

// After
func After(t time.Time) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: AfterName,
		Args: eskip.Named("datetime", t.Format(time.RFC3339Nano)),
	}
}

// Before
func Before(t time.Time) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: BeforeName,
		Args: eskip.Named("datetime", t.Format(time.RFC3339Nano)),
	}
}

// Between
func Between(from, until time.Time) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: BetweenName,
		Args: eskip.Named(
			"datetime1", from.Format(time.RFC3339Nano),
			"datetime2", until.Format(time.RFC3339Nano),
		),
	}
}

// RemoteAddr
func RemoteAddr(cidrs ...string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: RemoteAddrName,
		Args: eskip.Positional(cidrs...),
	}
}

// XForwardedRemoteAddr
func XForwardedRemoteAddr(cidrs ...string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: XForwardedRemoteAddrName,
		Args: eskip.Positional(cidrs...),
	}
}

// Weight
func Weight(group string, weight int) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: WeightName,
		Args: eskip.Named("group", group, "weight", strconv.Itoa(weight)),
	}
}

// ReadBody, regexp can be empty to only check that the path exists.
func ReadBody(path, regexp string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: ReadBodyName,
		Args: eskip.Named("path", path, "regexp", regexp),
	}
}

// Cron
func Cron(expression string) *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: CronName,
		Args: eskip.Positional(expression),
	}
}

// True
func True() *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: TrueName,
	}
}

// False
func False() *eskip.PredicateDefinition {
	return &eskip.PredicateDefinition{
		Name: FalseName,
	}
}
