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

// Package redistest starts in-process Redis servers for tests.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// NewTestRedis starts a Redis server and returns its address and a
// function stopping it.
func NewTestRedis(t testing.TB) (address string, done func()) {
	s := NewTestServer(t)
	return s.Addr(), s.Close
}

// NewTestRedisWithPassword starts a Redis server requiring the
// password.
func NewTestRedisWithPassword(t testing.TB, password string) (address string, done func()) {
	s := NewTestServer(t)
	s.RequireAuth(password)
	return s.Addr(), s.Close
}

// NewTestServer starts a Redis server for tests that need to control
// the server, e.g. to fast forward the key expiration or to simulate
// an outage. The server is stopped when the test finishes.
func NewTestServer(t testing.TB) *miniredis.Miniredis {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start redis server: %v", err)
	}

	t.Logf("Started redis server at %s", s.Addr())
	t.Cleanup(s.Close)
	return s
}
