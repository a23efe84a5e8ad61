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

package eskip

func copyArgs(a Args) Args {
	if a == nil {
		return nil
	}

	c := make(Args, len(a))
	copy(c, a)
	return c
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	c := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			c[k] = copyMetadata(vv)
		case []any:
			l := make([]any, len(vv))
			copy(l, vv)
			c[k] = l
		default:
			c[k] = v
		}
	}

	return c
}

func CopyPredicate(p *PredicateDefinition) *PredicateDefinition {
	if p == nil {
		return nil
	}

	return &PredicateDefinition{Name: p.Name, Args: copyArgs(p.Args)}
}

func CopyPredicates(p []*PredicateDefinition) []*PredicateDefinition {
	if p == nil {
		return nil
	}

	c := make([]*PredicateDefinition, len(p))
	for i, pi := range p {
		c[i] = CopyPredicate(pi)
	}

	return c
}

func CopyFilter(f *FilterDefinition) *FilterDefinition {
	if f == nil {
		return nil
	}

	return &FilterDefinition{Name: f.Name, Args: copyArgs(f.Args)}
}

func CopyFilters(f []*FilterDefinition) []*FilterDefinition {
	if f == nil {
		return nil
	}

	c := make([]*FilterDefinition, len(f))
	for i, fi := range f {
		c[i] = CopyFilter(fi)
	}

	return c
}

// Copy returns a deep copy of a route definition.
func Copy(r *RouteDefinition) *RouteDefinition {
	if r == nil {
		return nil
	}

	return &RouteDefinition{
		Id:                    r.Id,
		URI:                   r.URI,
		Predicates:            CopyPredicates(r.Predicates),
		Filters:               CopyFilters(r.Filters),
		Order:                 r.Order,
		Metadata:              copyMetadata(r.Metadata),
		DisableDefaultFilters: r.DisableDefaultFilters,
	}
}

func CopyRoutes(r []*RouteDefinition) []*RouteDefinition {
	if r == nil {
		return nil
	}

	c := make([]*RouteDefinition, len(r))
	for i, ri := range r {
		c[i] = Copy(ri)
	}

	return c
}
