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
Package source implements custom predicates to match routes
based on the source IP of a request.

It has explicit support for IP addresses and netmasks to conveniently
create routes based on a whole network of addresses, like a company
network or something similar.

It is important to note, that these predicates should not be used as
the only gatekeeper for secure endpoints. Always use proper authorization
and authentication for access control!

There are two flavors of the predicate, RemoteAddr and
XForwardedRemoteAddr. RemoteAddr uses the address of the connection
peer. XForwardedRemoteAddr uses the X-Forwarded-For header, trusting
maxTrustedIndex proxies counted from the right, 1 by default, and falls
back to the connection peer when the header is missing.

Examples:

	# only match requests from 1.2.3.4
	- RemoteAddr=1.2.3.4

	# only match requests from 1.2.3.4 and the 2.2.2.0/24 network
	- RemoteAddr=1.2.3.4, 2.2.2.0/24

	# match the address set by the load balancer in front of the gateway
	- XForwardedRemoteAddr=192.168.1.1/24
	- name: XForwardedRemoteAddr
	  args:
	    sources: 10.0.0.0/8
	    maxTrustedIndex: 2
*/
package source

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"go4.org/netipx"

	"github.com/switchback/switchback/args"
	snet "github.com/switchback/switchback/net"
	"github.com/switchback/switchback/predicates"
)

const (
	sourcesField         = "sources"
	maxTrustedIndexField = "maxTrustedIndex"
)

type sourcePred int

const (
	remoteAddr sourcePred = iota
	forwardedRemoteAddr
)

type spec struct {
	typ sourcePred
}

type matcher struct {
	typ             sourcePred
	nets            *netipx.IPSet
	maxTrustedIndex int
}

func NewRemoteAddr() predicates.Spec           { return &spec{typ: remoteAddr} }
func NewXForwardedRemoteAddr() predicates.Spec { return &spec{typ: forwardedRemoteAddr} }

func (s *spec) Name() string {
	if s.typ == forwardedRemoteAddr {
		return predicates.XForwardedRemoteAddrName
	}

	return predicates.RemoteAddrName
}

func (*spec) ShortcutFieldOrder() []string    { return []string{sourcesField} }
func (*spec) ShortcutType() args.ShortcutType { return args.GatherList }

func (s *spec) Create(v *args.Values) (predicates.Predicate, error) {
	sources := v.Strings(sourcesField)

	maxTrustedIndex := 1
	if s.typ == forwardedRemoteAddr {
		maxTrustedIndex = v.OptionalInt(maxTrustedIndexField, 1)
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: at least one source is required", predicates.ErrInvalidPredicateParameters)
	}

	if maxTrustedIndex < 1 {
		return nil, fmt.Errorf("%w: %s must be at least 1", predicates.ErrInvalidPredicateParameters, maxTrustedIndexField)
	}

	nets, err := snet.ParseIPCIDRs(sources)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", predicates.ErrInvalidPredicateParameters, err)
	}

	m := &matcher{typ: s.typ, nets: nets, maxTrustedIndex: maxTrustedIndex}
	return predicates.FromMatcherNamed(fmt.Sprintf("%s: [%s]", s.Name(), strings.Join(sources, ", ")), m), nil
}

func (m *matcher) Match(r *http.Request) bool {
	var src netip.Addr
	switch m.typ {
	case forwardedRemoteAddr:
		src = snet.ForwardedAddr(r, m.maxTrustedIndex)
	default:
		src = snet.RemoteAddr(r)
	}

	return m.nets.Contains(src)
}
