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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/switchback/switchback/predicates"
)

func TestMakeRegistry(t *testing.T) {
	expected := []string{
		predicates.AfterName,
		predicates.BeforeName,
		predicates.BetweenName,
		predicates.CookieName,
		predicates.CronName,
		predicates.FalseName,
		predicates.HeaderName,
		predicates.HostName,
		predicates.MethodName,
		predicates.PathName,
		predicates.QueryName,
		predicates.ReadBodyName,
		predicates.RemoteAddrName,
		predicates.TrueName,
		predicates.WeightName,
		predicates.XForwardedRemoteAddrName,
	}

	if diff := cmp.Diff(expected, MakeRegistry().Names()); diff != "" {
		t.Errorf("registered predicates differ (-want +got):\n%s", diff)
	}
}
