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

package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdnet "net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/logging"
	"github.com/switchback/switchback/net"
	"github.com/switchback/switchback/routing"
)

// NoOpScheme is the scheme of the routes without a backend. When none
// of their filters serves a response, an empty 200 OK response is
// returned.
const NoOpScheme = "no"

var (
	ErrUnsupportedScheme = errors.New("unsupported backend scheme")
	errBackendTimeout    = errors.New("backend timeout")
)

var hopHeaders = map[string]bool{
	"Te":                  true,
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// SchemeResolver maps the URI of a route with a symbolic scheme, e.g.
// lb://service, to the URL of a concrete backend.
type SchemeResolver interface {
	Resolve(ctx context.Context, u *url.URL) (*url.URL, error)
}

// SchemeResolverFunc adapts ordinary functions to the SchemeResolver
// interface.
type SchemeResolverFunc func(context.Context, *url.URL) (*url.URL, error)

func (f SchemeResolverFunc) Resolve(ctx context.Context, u *url.URL) (*url.URL, error) {
	return f(ctx, u)
}

// Backend forwards the request of the exchange to the target of the
// route.
type Backend interface {
	Forward(e exchange.Exchange, rt *routing.Route) (*http.Response, error)
}

// BackendOptions configure the default backend.
type BackendOptions struct {

	// Transport defaults to a clone of http.DefaultTransport.
	Transport http.RoundTripper

	// Timeout limits the time until the response header is received.
	// Zero means no timeout.
	Timeout time.Duration

	// Resolvers by scheme.
	Resolvers map[string]SchemeResolver

	// PreserveHost forwards the Host header of the incoming request,
	// instead of the host of the backend.
	PreserveHost bool

	Log logging.Logger
}

type httpBackend struct {
	options BackendOptions
	log     logging.Logger
}

// NewBackend creates the default backend, forwarding the requests over
// HTTP.
func NewBackend(o BackendOptions) Backend {
	if o.Transport == nil {
		o.Transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	if o.Log == nil {
		o.Log = logging.New("backend")
	}

	return &httpBackend{options: o, log: o.Log}
}

func cloneHeaderExcluding(h http.Header, exclude map[string]bool) http.Header {
	hh := make(http.Header, len(h))
	for k, v := range h {
		if !exclude[http.CanonicalHeaderKey(k)] {
			hh[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}

	return hh
}

func (b *httpBackend) target(ctx context.Context, rt *routing.Route) (*url.URL, error) {
	u := rt.URI
	if r, ok := b.options.Resolvers[u.Scheme]; ok {
		return r.Resolve(ctx, u)
	}

	switch u.Scheme {
	case "http", "https":
		return u, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func setForwardedHeaders(out, in *http.Request) {
	if addr := net.RemoteAddr(in); addr.IsValid() {
		out.Header.Set("X-Forwarded-For", strings.Join(append(in.Header.Values("X-Forwarded-For"), addr.String()), ", "))
	}

	proto := "http"
	if in.TLS != nil {
		proto = "https"
	}

	if out.Header.Get("X-Forwarded-Proto") == "" {
		out.Header.Set("X-Forwarded-Proto", proto)
	}

	if out.Header.Get("X-Forwarded-Host") == "" {
		out.Header.Set("X-Forwarded-Host", in.Host)
	}
}

func (b *httpBackend) mapRequest(ctx context.Context, in *http.Request, target *url.URL) (*http.Request, error) {
	u := *in.URL
	u.Scheme = target.Scheme
	u.Host = target.Host
	u.User = nil

	body := in.Body
	if in.ContentLength == 0 {
		body = nil
	}

	out, err := http.NewRequestWithContext(ctx, in.Method, u.String(), body)
	if err != nil {
		return nil, err
	}

	out.ContentLength = in.ContentLength
	out.Header = cloneHeaderExcluding(in.Header, hopHeaders)
	setForwardedHeaders(out, in)

	if b.options.PreserveHost {
		out.Host = in.Host
	}

	if target.User != nil {
		p, _ := target.User.Password()
		out.SetBasicAuth(target.User.Username(), p)
	}

	return out, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}

func isTimeout(err error) bool {
	var nerr stdnet.Error
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &nerr) && nerr.Timeout()
}

// Forward sends the request to the resolved target of the route. The
// request is canceled when the request of the exchange is canceled.
func (b *httpBackend) Forward(e exchange.Exchange, rt *routing.Route) (*http.Response, error) {
	in := e.Request()
	if rt.URI != nil && rt.URI.Scheme == NoOpScheme {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       http.NoBody,
			Request:    in,
		}, nil
	}

	ctx, cancel := in.Context(), context.CancelFunc(func() {})
	if b.options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.options.Timeout)
	}

	target, err := b.target(ctx, rt)
	if err != nil {
		cancel()
		return nil, err
	}

	out, err := b.mapRequest(ctx, in, target)
	if err != nil {
		cancel()
		return nil, err
	}

	rsp, err := b.options.Transport.RoundTrip(out)
	if err != nil {
		cancel()
		if in.Context().Err() == nil && isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", errBackendTimeout, err)
		}

		return nil, err
	}

	rsp.Header = cloneHeaderExcluding(rsp.Header, hopHeaders)
	rsp.Body = cancelBody{ReadCloser: rsp.Body, cancel: cancel}
	return rsp, nil
}
