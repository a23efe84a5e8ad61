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

package circuit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type selects the breaker implementation.
type Type int

const (
	TypeNone Type = iota
	ConsecutiveFailures
	FailureRate
	Disabled
)

// ParseType parses the textual form of a breaker type, as used in the
// configuration and in the route definitions.
func ParseType(s string) (Type, error) {
	switch s {
	case "consecutive":
		return ConsecutiveFailures, nil
	case "rate":
		return FailureRate, nil
	case "disabled":
		return Disabled, nil
	default:
		return TypeNone, fmt.Errorf("invalid breaker type %q, allowed values are: consecutive, rate or disabled", s)
	}
}

func (t Type) String() string {
	switch t {
	case ConsecutiveFailures:
		return "consecutive"
	case FailureRate:
		return "rate"
	case Disabled:
		return "disabled"
	default:
		return "none"
	}
}

func (t *Type) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	v, err := ParseType(s)
	if err != nil {
		return err
	}

	*t = v
	return nil
}

// Settings of a breaker. Zero values are taken from the defaults.
type Settings struct {
	Type             Type          `yaml:"type"`
	Name             string        `yaml:"name"`
	Window           int           `yaml:"window"`
	Failures         int           `yaml:"failures"`
	Timeout          time.Duration `yaml:"timeout"`
	HalfOpenRequests int           `yaml:"half-open-requests"`
	IdleTTL          time.Duration `yaml:"idle-ttl"`
}

// merge fills the unset fields of s from defaults. The failure counts
// are taken only together with the type.
func (s Settings) merge(defaults Settings) Settings {
	if s.Type == TypeNone {
		s.Type = defaults.Type
		switch defaults.Type {
		case ConsecutiveFailures:
			s.Failures = defaults.Failures
		case FailureRate:
			s.Window = defaults.Window
			s.Failures = defaults.Failures
		}
	}

	if s.Timeout == 0 {
		s.Timeout = defaults.Timeout
	}

	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = defaults.HalfOpenRequests
	}

	if s.IdleTTL == 0 {
		s.IdleTTL = defaults.IdleTTL
	}

	return s
}

func (s Settings) String() string {
	switch s.Type {
	case Disabled:
		return "disabled"
	case TypeNone:
		return "none"
	}

	ss := []string{"type=" + s.Type.String()}
	if s.Name != "" {
		ss = append(ss, "name="+s.Name)
	}

	if s.Type == FailureRate && s.Window > 0 {
		ss = append(ss, "window="+strconv.Itoa(s.Window))
	}

	if s.Failures > 0 {
		ss = append(ss, "failures="+strconv.Itoa(s.Failures))
	}

	if s.Timeout > 0 {
		ss = append(ss, "timeout="+s.Timeout.String())
	}

	if s.HalfOpenRequests > 0 {
		ss = append(ss, "half-open-requests="+strconv.Itoa(s.HalfOpenRequests))
	}

	if s.IdleTTL > 0 {
		ss = append(ss, "idle-ttl="+s.IdleTTL.String())
	}

	return strings.Join(ss, ",")
}
