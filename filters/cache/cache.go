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
Package cache provides the LocalResponseCache filter, caching the
responses of a route in memory.

Only GET requests without a body are served from the cache, and only
the 200, 206 and 301 responses are stored. Requests and responses with
Cache-Control: private or no-store are not cached, and neither are the
responses with Vary: *. A request with Cache-Control: no-cache is
forwarded to the backend, and its response replaces the cached one.

The entries expire after timeToLive, and the least recently used ones
are dropped when the cache holds size entries. The Cache-Control
max-age of the responses is set to the remaining lifetime of the
entry:

	filters:
	- LocalResponseCache=30m, 500
*/
package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/filters"
)

const (
	Name = "LocalResponseCache"

	DefaultTimeToLive = 5 * time.Minute
	DefaultSize       = 1000

	// DefaultMaxBodySize limits the size of the cached response bodies.
	DefaultMaxBodySize = 1 << 20

	timeToLiveField = "timeToLive"
	sizeField       = "size"

	stateKey = "switchback:localResponseCache"
)

var cachedStatuses = []int{http.StatusOK, http.StatusPartialContent, http.StatusMovedPermanently}

// Options of the filter spec.
type Options struct {
	// TimeToLive is used when the filter does not set one.
	TimeToLive time.Duration

	// Size is used when the filter does not set one.
	Size int

	// MaxBodySize limits the size of the cached bodies. Larger
	// responses are forwarded without caching.
	MaxBodySize int64
}

type spec struct {
	options Options
}

type entry struct {
	status  int
	header  http.Header
	body    []byte
	created time.Time
}

type filter struct {
	ttl         time.Duration
	maxBodySize int64
	now         func() time.Time

	// responses by the request key
	responses *expirable.LRU[uint64, *entry]

	// the Vary header names of the last response, by the request
	// URL
	vary *expirable.LRU[uint64, []string]
}

// state of a request passing the filter
type state struct {
	metaKey uint64
	hit     bool
}

func New(o Options) filters.Spec {
	if o.TimeToLive <= 0 {
		o.TimeToLive = DefaultTimeToLive
	}

	if o.Size <= 0 {
		o.Size = DefaultSize
	}

	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}

	return &spec{options: o}
}

func (*spec) Name() string { return Name }

func (*spec) ShortcutFieldOrder() []string { return []string{timeToLiveField, sizeField} }

func (s *spec) CreateFilter(v *args.Values) (filters.Filter, error) {
	ttl := v.OptionalDuration(timeToLiveField, s.options.TimeToLive)
	size := v.OptionalInt(sizeField, s.options.Size)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if ttl <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: time to live and size must be positive", filters.ErrInvalidFilterParameters)
	}

	return &filter{
		ttl:         ttl,
		maxBodySize: s.options.MaxBodySize,
		now:         time.Now,
		responses:   expirable.NewLRU[uint64, *entry](size, nil, ttl),
		vary:        expirable.NewLRU[uint64, []string](size, nil, ttl),
	}, nil
}

func cacheControl(h http.Header) []string {
	var d []string
	for _, v := range h.Values("Cache-Control") {
		for _, di := range strings.Split(v, ",") {
			d = append(d, strings.ToLower(strings.TrimSpace(di)))
		}
	}

	return d
}

func cacheAllowed(h http.Header) bool {
	d := cacheControl(h)
	return !slices.Contains(d, "private") && !slices.Contains(d, "no-store")
}

func requestCacheable(r *http.Request) bool {
	return r.Method == http.MethodGet && r.ContentLength <= 0 && cacheAllowed(r.Header)
}

func responseCacheable(rsp *http.Response) bool {
	return slices.Contains(cachedStatuses, rsp.StatusCode) &&
		cacheAllowed(rsp.Header) &&
		!slices.Contains(rsp.Header.Values("Vary"), "*")
}

func metadataKey(r *http.Request) uint64 {
	d := xxhash.New()
	d.WriteString(r.Host)
	d.WriteString(r.URL.RequestURI())
	return d.Sum64()
}

func requestKey(r *http.Request, vary []string) uint64 {
	d := xxhash.New()
	d.WriteString(r.Method)
	d.WriteString(r.Host)
	d.WriteString(r.URL.RequestURI())
	for _, name := range vary {
		d.WriteString("\n")
		d.WriteString(http.CanonicalHeaderKey(name))
		d.WriteString(":")
		d.WriteString(strings.Join(r.Header.Values(name), ","))
	}

	return d.Sum64()
}

func varyNames(h http.Header) []string {
	var names []string
	for _, v := range h.Values("Vary") {
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}

	return names
}

// setMaxAge sets or replaces the max-age directive.
func setMaxAge(h http.Header, seconds int64) {
	var directives []string
	for _, d := range strings.Split(h.Get("Cache-Control"), ",") {
		d = strings.TrimSpace(d)
		if d != "" && !strings.HasPrefix(strings.ToLower(d), "max-age=") {
			directives = append(directives, d)
		}
	}

	directives = append(directives, fmt.Sprintf("max-age=%d", seconds))
	h.Set("Cache-Control", strings.Join(directives, ", "))
}

// restoreBody puts the bytes already read back in front of the body.
func restoreBody(rsp *http.Response, read []byte) {
	rsp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(read), rsp.Body), rsp.Body}
}

func (f *filter) maxAge(e *entry) int64 {
	return max(0, int64((f.ttl - f.now().Sub(e.created)).Seconds()))
}

func (f *filter) Request(ctx filters.FilterContext) {
	r := ctx.Request()
	if !requestCacheable(r) {
		return
	}

	st := &state{metaKey: metadataKey(r)}
	ctx.StateBag()[stateKey] = st

	if slices.Contains(cacheControl(r.Header), "no-cache") {
		return
	}

	vary, _ := f.vary.Get(st.metaKey)
	e, ok := f.responses.Get(requestKey(r, vary))
	if !ok {
		return
	}

	st.hit = true
	h := e.header.Clone()
	setMaxAge(h, f.maxAge(e))
	ctx.Serve(&http.Response{
		StatusCode:    e.status,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       r,
	})
}

func (f *filter) Response(ctx filters.FilterContext) {
	st, ok := ctx.StateBag()[stateKey].(*state)
	rsp := ctx.Response()
	if !ok || st.hit || rsp == nil || !responseCacheable(rsp) {
		return
	}

	if rsp.ContentLength > f.maxBodySize {
		return
	}

	var body []byte
	if rsp.Body != nil {
		b, err := io.ReadAll(io.LimitReader(rsp.Body, f.maxBodySize+1))
		if err != nil {
			log.Errorf("Failed to read the response to cache: %v", err)
			restoreBody(rsp, b)
			return
		}

		if int64(len(b)) > f.maxBodySize {
			restoreBody(rsp, b)
			return
		}

		rsp.Body.Close()
		rsp.Body = io.NopCloser(bytes.NewReader(b))
		body = b
	}

	if rsp.Header == nil {
		rsp.Header = make(http.Header)
	}

	e := &entry{
		status:  rsp.StatusCode,
		header:  rsp.Header.Clone(),
		body:    body,
		created: f.now(),
	}

	vary := varyNames(rsp.Header)
	f.vary.Add(st.metaKey, vary)
	f.responses.Add(requestKey(ctx.Request(), vary), e)
	setMaxAge(rsp.Header, f.maxAge(e))
}
