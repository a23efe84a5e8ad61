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

package routing

import (
	"errors"
	"fmt"

	"github.com/switchback/switchback/metrics"
)

type invalidDefinitionError string

func (e invalidDefinitionError) Error() string { return string(e) }
func (e invalidDefinitionError) Code() string  { return string(e) }

var (
	errUnknownFilter          = invalidDefinitionError("unknown_filter")
	errInvalidFilterParams    = invalidDefinitionError("invalid_filter_params")
	errUnknownPredicate       = invalidDefinitionError("unknown_predicate")
	errInvalidPredicateParams = invalidDefinitionError("invalid_predicate_params")
	errInvalidURI             = invalidDefinitionError("invalid_uri")
	errMissingID              = invalidDefinitionError("missing_id")
)

// ErrNoRoute is returned by the resolver when no route matched the
// request.
var ErrNoRoute = errors.New("no route")

// WrapInvalidDefinitionReason marks err with a reason code, that is
// reported to the metrics when the route gets rejected.
func WrapInvalidDefinitionReason(reason string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", invalidDefinitionError(reason), err)
}

// Reason returns the reason code of a route definition error, or
// "other" when the error carries no code.
func Reason(err error) string {
	var defErr invalidDefinitionError
	if errors.As(err, &defErr) {
		return defErr.Code()
	}

	return "other"
}

// HandleValidationError reports a rejected route to the metrics.
func HandleValidationError(mtr metrics.Metrics, err error, routeId string) error {
	if err == nil {
		return nil
	}

	reason := Reason(err)
	mtr.SetInvalidRoute(routeId, reason)

	return fmt.Errorf("%s: %w", reason, err)
}
