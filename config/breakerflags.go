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

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/switchback/switchback/circuit"
)

const breakerUsage = `set global or named circuit breaker settings, e.g. -breaker type=consecutive,failures=5,timeout=30s
	possible breaker properties:
	type: consecutive/rate/disabled
	name: the settings apply to the CircuitBreaker filters referencing this name, when omitted, the settings are the defaults
	window: the size of the sliding window for the rate breaker
	failures: the number of failures to open the breaker
	timeout: the duration the breaker stays open
	half-open-requests: the number of requests allowed in half-open state
	idle-ttl: the duration after which an unused breaker is released
	(the flag can be used multiple times)`

var errInvalidBreakerConfig = errors.New("invalid breaker config")

type breakerFlags []circuit.Settings

func (b breakerFlags) String() string {
	s := make([]string, len(b))
	for i, bi := range b {
		s[i] = bi.String()
	}

	return strings.Join(s, "\n")
}

func (b *breakerFlags) Set(value string) error {
	var s circuit.Settings

	for _, vi := range strings.Split(value, ",") {
		k, v, found := strings.Cut(vi, "=")
		if !found {
			return errInvalidBreakerConfig
		}

		var err error
		switch k {
		case "type":
			s.Type, err = circuit.ParseType(v)
		case "name":
			s.Name = v
		case "window":
			s.Window, err = strconv.Atoi(v)
		case "failures":
			s.Failures, err = strconv.Atoi(v)
		case "timeout":
			s.Timeout, err = time.ParseDuration(v)
		case "half-open-requests":
			s.HalfOpenRequests, err = strconv.Atoi(v)
		case "idle-ttl":
			s.IdleTTL, err = time.ParseDuration(v)
		default:
			return fmt.Errorf("%w: unknown property %q", errInvalidBreakerConfig, k)
		}

		if err != nil {
			return fmt.Errorf("%w: %s: %w", errInvalidBreakerConfig, k, err)
		}
	}

	if s.Type == circuit.FailureRate && s.Window <= 0 {
		return fmt.Errorf("%w: rate breaker without window", errInvalidBreakerConfig)
	}

	*b = append(*b, s)
	return nil
}

func (b *breakerFlags) UnmarshalYAML(unmarshal func(any) error) error {
	var s []circuit.Settings
	if err := unmarshal(&s); err != nil {
		return err
	}

	*b = s
	return nil
}
