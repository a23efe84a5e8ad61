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
	"fmt"
	"strings"

	"github.com/switchback/switchback/eskip"
)

// defaultFiltersFlags collects the default filters in shortcut
// notation, one filter per flag.
type defaultFiltersFlags struct {
	filters []*eskip.FilterDefinition
}

func (dff *defaultFiltersFlags) String() string {
	if dff == nil {
		return ""
	}

	s := make([]string, len(dff.filters))
	for i, f := range dff.filters {
		s[i] = f.String()
	}

	return strings.Join(s, "; ")
}

func (dff *defaultFiltersFlags) Set(value string) error {
	f, err := eskip.ParseFilter(value)
	if err != nil {
		return fmt.Errorf("failed to parse default filter: %w", err)
	}

	dff.filters = append(dff.filters, f)
	return nil
}

func (dff *defaultFiltersFlags) UnmarshalYAML(unmarshal func(any) error) error {
	var values []string
	if err := unmarshal(&values); err != nil {
		return err
	}

	fs, err := eskip.ParseFilters(values...)
	if err != nil {
		return fmt.Errorf("failed to parse default filters: %w", err)
	}

	dff.filters = fs
	return nil
}
