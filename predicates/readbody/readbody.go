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
Package readbody implements the ReadBody predicate. It reads the JSON
request body, evaluates a gjson path on it, and matches when the path
exists and, optionally, when its value matches a regular expression.

The body is read at most once per request, and it is cached in the
state bag of the exchange, so that other routes and filters can access
it, and it is still forwarded to the backend.

Reading the body blocks until the client sent it, or until the request
is canceled. A body that is not valid JSON, or that is larger than
maxSize, does not match.

Examples:

	# the kind field of the JSON body must exist
	- ReadBody=kind

	# the kind field must be order or refund
	- ReadBody=kind, ^(order|refund)$

	# limit the buffered body to 64KiB
	- name: ReadBody
	  args:
	    path: items.#.sku
	    regexp: ^X-
	    maxSize: "65536"

See https://github.com/tidwall/gjson for the path syntax.
*/
package readbody

import (
	"errors"
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/switchback/switchback/args"
	"github.com/switchback/switchback/exchange"
	"github.com/switchback/switchback/predicates"
)

const (
	pathField    = "path"
	regexpField  = "regexp"
	maxSizeField = "maxSize"
)

type spec struct{}

type predicate struct {
	path    string
	rx      *regexp.Regexp
	maxSize int64
}

// New creates the spec of the ReadBody predicate.
func New() predicates.Spec { return spec{} }

func (spec) Name() string { return predicates.ReadBodyName }

func (spec) ShortcutFieldOrder() []string { return []string{pathField, regexpField} }

func (spec) Create(v *args.Values) (predicates.Predicate, error) {
	p := &predicate{
		path:    v.String(pathField),
		rx:      v.OptionalRegexp(regexpField, nil),
		maxSize: int64(v.OptionalInt(maxSizeField, exchange.DefaultMaxBodySize)),
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if p.path == "" {
		return nil, fmt.Errorf("%w: empty path", predicates.ErrInvalidPredicateParameters)
	}

	if p.maxSize <= 0 {
		return nil, fmt.Errorf("%w: maxSize must be positive, got %d", predicates.ErrInvalidPredicateParameters, p.maxSize)
	}

	return p, nil
}

func (p *predicate) Evaluate(e exchange.Exchange) (bool, error) {
	body, err := exchange.CachedBody(e, p.maxSize)
	if errors.Is(err, exchange.ErrBodyTooLarge) {
		log.Debugf("ReadBody: %v, limit %d", err, p.maxSize)
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if !gjson.ValidBytes(body) {
		return false, nil
	}

	res := gjson.GetBytes(body, p.path)
	if !res.Exists() {
		return false, nil
	}

	if p.rx == nil {
		return true, nil
	}

	return p.rx.MatchString(res.String()), nil
}

func (p *predicate) String() string {
	if p.rx == nil {
		return fmt.Sprintf("ReadBody: %s", p.path)
	}

	return fmt.Sprintf("ReadBody: %s regexp=%s", p.path, p.rx)
}
