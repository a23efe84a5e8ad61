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

package source

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/predicatetest"
)

func TestCreate(t *testing.T) {
	for _, tt := range []struct {
		msg  string
		spec predicates.Spec
		def  string
		err  bool
	}{
		{"no sources", NewRemoteAddr(), "RemoteAddr", true},
		{"invalid address", NewRemoteAddr(), "RemoteAddr=1.2.3.4, foo", true},
		{"invalid netmask", NewRemoteAddr(), "RemoteAddr=1.2.3.4/55", true},
		{"address", NewRemoteAddr(), "RemoteAddr=1.2.3.4", false},
		{"addresses and networks", NewRemoteAddr(), "RemoteAddr=1.2.3.4, 2.2.2.0/24, 2001:db8::/32", false},
		{"forwarded", NewXForwardedRemoteAddr(), "XForwardedRemoteAddr=10.0.0.0/8", false},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			err := predicatetest.ParseErr(tt.spec, tt.def)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaxTrustedIndexOnlyForForwarded(t *testing.T) {
	args := eskip.Named("sources", "10.0.0.0/8", "maxTrustedIndex", "2")

	_, err := predicatetest.Create(NewRemoteAddr(), &eskip.PredicateDefinition{Name: predicates.RemoteAddrName, Args: args})
	assert.Error(t, err)

	_, err = predicatetest.Create(NewXForwardedRemoteAddr(), &eskip.PredicateDefinition{Name: predicates.XForwardedRemoteAddrName, Args: args})
	assert.NoError(t, err)

	_, err = predicatetest.Create(NewXForwardedRemoteAddr(), &eskip.PredicateDefinition{
		Name: predicates.XForwardedRemoteAddrName,
		Args: eskip.Named("sources", "10.0.0.0/8", "maxTrustedIndex", "0"),
	})
	assert.Error(t, err)
}

func TestMatching(t *testing.T) {
	for _, tt := range []struct {
		msg        string
		spec       predicates.Spec
		def        string
		remoteAddr string
		forwarded  string
		match      bool
	}{
		{"remote address", NewRemoteAddr(), "RemoteAddr=1.2.3.4", "1.2.3.4:1234", "", true},
		{"remote address ignores the header", NewRemoteAddr(), "RemoteAddr=1.2.3.4", "5.6.7.8:1234", "1.2.3.4", false},
		{"remote network", NewRemoteAddr(), "RemoteAddr=1.2.3.0/24", "1.2.3.200:1234", "", true},
		{"remote ipv6", NewRemoteAddr(), "RemoteAddr=2001:db8::/32", "[2001:db8::1]:1234", "", true},
		{"not in any network", NewRemoteAddr(), "RemoteAddr=1.2.3.0/24, 10.0.0.0/8", "11.0.0.1:1234", "", false},
		{"forwarded, last entry", NewXForwardedRemoteAddr(), "XForwardedRemoteAddr=10.0.0.0/8", "127.0.0.1:1234", "1.2.3.4, 10.1.1.1", true},
		{"forwarded, client entry is not trusted", NewXForwardedRemoteAddr(), "XForwardedRemoteAddr=1.2.3.4", "127.0.0.1:1234", "1.2.3.4, 10.1.1.1", false},
		{"forwarded, no header", NewXForwardedRemoteAddr(), "XForwardedRemoteAddr=127.0.0.1", "127.0.0.1:1234", "", true},
	} {
		t.Run(tt.msg, func(t *testing.T) {
			p := predicatetest.Parse(t, tt.spec, tt.def)

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.match, predicatetest.Evaluate(t, p, r))
		})
	}
}

func TestForwardedMaxTrustedIndex(t *testing.T) {
	p, err := predicatetest.Create(NewXForwardedRemoteAddr(), &eskip.PredicateDefinition{
		Name: predicates.XForwardedRemoteAddrName,
		Args: eskip.Named("sources", "1.2.3.4", "maxTrustedIndex", "2"),
	})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.1.1.1")
	assert.True(t, predicatetest.Evaluate(t, p, r))
}
