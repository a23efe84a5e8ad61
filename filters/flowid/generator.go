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

package flowid

import (
	"fmt"
	"math/rand/v2"
	"regexp"

	"github.com/google/uuid"
)

const (
	flowIDAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-+"
	alphabetBitMask = 63
	MaxLength       = 64
	MinLength       = 8
	DefaultLength   = 16
)

var (
	ErrInvalidLen       = fmt.Errorf("invalid length, must be between %d and %d", MinLength, MaxLength)
	standardFlowIDRegex = regexp.MustCompile(`^[0-9a-zA-Z+-]+$`)
)

// Generator creates and validates flow ids.
type Generator interface {
	Generate() (string, error)
	IsValid(string) bool
}

type uuidGenerator struct{}

// NewUUIDGenerator creates random (version 4) UUIDs.
func NewUUIDGenerator() Generator { return uuidGenerator{} }

func (uuidGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (uuidGenerator) IsValid(id string) bool {
	return uuid.Validate(id) == nil
}

type standardGenerator struct {
	length int
}

// NewStandardGenerator creates random ids of the given length, from
// an alphabet of 64 characters.
func NewStandardGenerator(l int) (Generator, error) {
	if l < MinLength || l > MaxLength {
		return nil, ErrInvalidLen
	}

	return &standardGenerator{length: l}, nil
}

func (g *standardGenerator) Generate() (string, error) {
	u := make([]byte, g.length)
	for i := 0; i < g.length; i += 10 {
		b := rand.Int64() // #nosec
		for e := 0; e < 10 && i+e < g.length; e++ {
			c := byte(b>>uint(6*e)) & alphabetBitMask // 6 bits only
			u[i+e] = flowIDAlphabet[c]
		}
	}

	return string(u), nil
}

func (g *standardGenerator) IsValid(id string) bool {
	return len(id) >= MinLength && len(id) <= MaxLength && standardFlowIDRegex.MatchString(id)
}
