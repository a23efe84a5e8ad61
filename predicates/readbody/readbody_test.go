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

package readbody

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchback/switchback/eskip"
	"github.com/switchback/switchback/predicates"
	"github.com/switchback/switchback/predicates/predicatetest"
)

func TestCreate(t *testing.T) {
	for _, tc := range []struct {
		msg string
		def string
		err bool
	}{{
		msg: "missing path",
		def: "ReadBody",
		err: true,
	}, {
		msg: "path only",
		def: "ReadBody=kind",
	}, {
		msg: "path and regexp",
		def: "ReadBody=kind, ^order$",
	}, {
		msg: "invalid regexp",
		def: "ReadBody=kind, ^(order",
		err: true,
	}, {
		msg: "too many arguments",
		def: "ReadBody=kind, ^order$, 42",
		err: true,
	}} {
		t.Run(tc.msg, func(t *testing.T) {
			err := predicatetest.ParseErr(New(), tc.def)
			if tc.err {
				assert.ErrorContains(t, err, "invalid")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMaxSize(t *testing.T) {
	_, err := predicatetest.Create(New(), &eskip.PredicateDefinition{
		Name: predicates.ReadBodyName,
		Args: eskip.Named("path", "kind", "maxSize", "0"),
	})

	assert.ErrorIs(t, err, predicates.ErrInvalidPredicateParameters)
}

func TestMatch(t *testing.T) {
	const body = `{"kind": "order", "items": [{"sku": "X-1"}, {"sku": "Y-2"}]}`

	for _, tc := range []struct {
		msg     string
		def     string
		body    string
		matches bool
	}{{
		msg:     "path exists",
		def:     "ReadBody=kind",
		body:    body,
		matches: true,
	}, {
		msg:  "path does not exist",
		def:  "ReadBody=customer",
		body: body,
	}, {
		msg:     "value matches",
		def:     "ReadBody=kind, ^order$",
		body:    body,
		matches: true,
	}, {
		msg:  "value does not match",
		def:  "ReadBody=kind, ^refund$",
		body: body,
	}, {
		msg:     "nested path",
		def:     "ReadBody=items.1.sku, ^Y-",
		body:    body,
		matches: true,
	}, {
		msg:  "not json",
		def:  "ReadBody=kind",
		body: "kind=order",
	}, {
		msg: "empty body",
		def: "ReadBody=kind",
	}} {
		t.Run(tc.msg, func(t *testing.T) {
			p := predicatetest.Parse(t, New(), tc.def)

			var r io.Reader
			if tc.body != "" {
				r = strings.NewReader(tc.body)
			}

			req := httptest.NewRequest("POST", "/", r)
			assert.Equal(t, tc.matches, predicatetest.Evaluate(t, p, req))
		})
	}
}

func TestBodyStaysReadable(t *testing.T) {
	const body = `{"kind": "order"}`

	p := predicatetest.Parse(t, New(), "ReadBody=kind")
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	e := predicatetest.NewExchange(req)

	for range 2 {
		ok, err := p.Evaluate(e)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	b, err := io.ReadAll(e.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

func TestBodyTooLarge(t *testing.T) {
	const body = `{"kind": "order", "padding": "................"}`

	p, err := predicatetest.Create(New(), &eskip.PredicateDefinition{
		Name: predicates.ReadBodyName,
		Args: eskip.Named("path", "kind", "maxSize", "8"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	e := predicatetest.NewExchange(req)

	ok, err := p.Evaluate(e)
	require.NoError(t, err)
	assert.False(t, ok)

	b, err := io.ReadAll(e.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

func TestCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest("POST", "/", pr).WithContext(ctx)

	p := predicatetest.Parse(t, New(), "ReadBody=kind")
	_, err := p.Evaluate(predicatetest.NewExchange(req))
	assert.ErrorIs(t, err, context.Canceled)
}
