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

// Package net provides the network helpers shared by the predicates,
// the filters and the route sources: client address resolution, CIDR
// sets and the Redis client.
package net

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

const forwardedForHeader = "X-Forwarded-For"

// strip port from addresses with hostname, ipv4 or ipv6
func stripPort(address string) string {
	if h, _, err := net.SplitHostPort(address); err == nil {
		return h
	}

	return address
}

// RemoteAddr returns the address of the peer of the connection. The
// returned address is invalid when the remote address of the request
// cannot be parsed.
func RemoteAddr(r *http.Request) netip.Addr {
	addr, _ := netip.ParseAddr(stripPort(r.RemoteAddr))
	return addr.Unmap()
}

// forwardedFor returns the entries of all the X-Forwarded-For headers,
// in order.
func forwardedFor(h http.Header) []string {
	var entries []string
	for _, v := range h.Values(forwardedForHeader) {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entries = append(entries, e)
			}
		}
	}

	return entries
}

// ForwardedAddr returns the client address from the X-Forwarded-For
// header, trusting maxTrustedIndex proxies counted from the right of
// the list. With a value of 1, the last entry, set by the closest
// proxy, is returned. When the list is shorter than maxTrustedIndex,
// the first entry is used. Without the header, the connection peer is
// returned.
//
// Example:
//
//	X-Forwarded-For: client, proxy1, proxy2
func ForwardedAddr(r *http.Request, maxTrustedIndex int) netip.Addr {
	entries := forwardedFor(r.Header)
	if len(entries) == 0 {
		return RemoteAddr(r)
	}

	if maxTrustedIndex < 1 {
		maxTrustedIndex = 1
	}

	i := max(len(entries)-maxTrustedIndex, 0)
	addr, err := netip.ParseAddr(stripPort(entries[i]))
	if err != nil {
		return netip.Addr{}
	}

	return addr.Unmap()
}

// ParseIPCIDRs returns a valid IPSet even in case there are parsing
// errors of some partial provided input cidrs. So recently added
// bogus values can be logged and ignored at runtime. Plain addresses
// are added as single address prefixes.
func ParseIPCIDRs(cidrs []string) (*netipx.IPSet, error) {
	var (
		b   netipx.IPSetBuilder
		err error
	)

	for _, w := range cidrs {
		w = strings.TrimSpace(w)
		if strings.Contains(w, "/") {
			if pref, e := netip.ParsePrefix(w); e != nil {
				err = e
			} else {
				b.AddPrefix(pref.Masked())
			}
		} else if addr, e := netip.ParseAddr(w); e != nil {
			err = e
		} else {
			b.Add(addr.Unmap())
		}
	}

	ips, e := b.IPSet()
	if e != nil {
		return ips, e
	}

	return ips, err
}
