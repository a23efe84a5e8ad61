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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

type jsonNameArgs struct {
	Name string `json:"name"`
	Args Args   `json:"args,omitempty"`
}

type jsonDocument struct {
	Routes []*RouteDefinition `json:"routes"`
}

// MarshalJSON writes the arguments as an object, keeping the order of
// declaration. Repeated keys are written as a single array.
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		buf.Write(kb)
		buf.WriteByte(':')

		var v any
		if all := a.All(k); len(all) == 1 {
			v = all[0]
		} else {
			v = all
		}

		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		buf.Write(vb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarString(t json.Token) (string, error) {
	switch v := t.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}

		return "false", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported argument value: %v", t)
	}
}

// UnmarshalJSON reads an argument object keeping the document order of
// the keys. Array values are stored as repeated keys.
func (a *Args) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = nil
		return nil
	}

	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	t, err := d.Token()
	if err != nil {
		return err
	}

	if t != json.Delim('{') {
		return fmt.Errorf("arguments must be an object, got: %v", t)
	}

	var args Args
	for d.More() {
		kt, err := d.Token()
		if err != nil {
			return err
		}

		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("invalid argument key: %v", kt)
		}

		vt, err := d.Token()
		if err != nil {
			return err
		}

		if vt == json.Delim('[') {
			for d.More() {
				it, err := d.Token()
				if err != nil {
					return err
				}

				s, err := scalarString(it)
				if err != nil {
					return err
				}

				args = append(args, Arg{Key: key, Value: s})
			}

			// closing bracket
			if _, err := d.Token(); err != nil {
				return err
			}

			continue
		}

		s, err := scalarString(vt)
		if err != nil {
			return err
		}

		args = append(args, Arg{Key: key, Value: s})
	}

	*a = args
	return nil
}

func unmarshalNameArgs(data []byte) (string, Args, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return "", nil, err
		}

		return parseShortcut(text)
	}

	var na jsonNameArgs
	if err := json.Unmarshal(data, &na); err != nil {
		return "", nil, err
	}

	if na.Name == "" {
		return "", nil, ErrEmptyName
	}

	return na.Name, na.Args, nil
}

func (p *PredicateDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNameArgs{Name: p.Name, Args: p.Args})
}

// UnmarshalJSON accepts either the shortcut notation as a string, or
// an object with a name and args.
func (p *PredicateDefinition) UnmarshalJSON(data []byte) error {
	name, args, err := unmarshalNameArgs(data)
	if err != nil {
		return err
	}

	p.Name, p.Args = name, args
	return nil
}

func (f *FilterDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNameArgs{Name: f.Name, Args: f.Args})
}

// UnmarshalJSON accepts either the shortcut notation as a string, or
// an object with a name and args.
func (f *FilterDefinition) UnmarshalJSON(data []byte) error {
	name, args, err := unmarshalNameArgs(data)
	if err != nil {
		return err
	}

	f.Name, f.Args = name, args
	return nil
}

// ParseDocument parses a YAML or JSON route document. The document is
// either an object with a routes field, or a plain list of route
// definitions.
//
// YAML mappings don't preserve the key order when converted, named
// arguments of YAML documents are therefore not ordered. Positional
// arguments are not affected.
func ParseDocument(data []byte) ([]*RouteDefinition, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	j = bytes.TrimSpace(j)
	if len(j) == 0 || bytes.Equal(j, []byte("null")) {
		return nil, nil
	}

	switch j[0] {
	case '[':
		var routes []*RouteDefinition
		if err := json.Unmarshal(j, &routes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		return routes, nil
	case '{':
		var doc jsonDocument
		if err := json.Unmarshal(j, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		return doc.Routes, nil
	default:
		return nil, ErrInvalidDocument
	}
}

// ReadDocument reads and parses a route document.
func ReadDocument(r io.Reader) ([]*RouteDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return ParseDocument(data)
}

// Print writes the route definitions as an indented JSON document.
func Print(routes []*RouteDefinition) ([]byte, error) {
	if routes == nil {
		routes = []*RouteDefinition{}
	}

	return json.MarshalIndent(jsonDocument{Routes: routes}, "", "  ")
}
