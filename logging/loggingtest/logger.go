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

// Package loggingtest provides a logger that records its entries, so
// tests can wait for and count specific log lines.
package loggingtest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrWaitTimeout = errors.New("timeout")

type subscription struct {
	exp      string
	n        int
	response chan struct{}
}

// TestLogger implements logging.Logger. Every entry is recorded with
// its level, e.g. "WARN route foo will be ignored".
type TestLogger struct {
	mu      sync.Mutex
	entries []string
	subs    []*subscription
	closed  bool
}

func New() *TestLogger {
	return &TestLogger{}
}

func (tl *TestLogger) save(level, e string) {
	e = level + " " + e

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.closed {
		return
	}

	tl.entries = append(tl.entries, e)
	for i := len(tl.subs) - 1; i >= 0; i-- {
		s := tl.subs[i]
		if !strings.Contains(e, s.exp) {
			continue
		}

		s.n--
		if s.n <= 0 {
			close(s.response)
			tl.subs = append(tl.subs[:i], tl.subs[i+1:]...)
		}
	}
}

// WaitForN waits until n entries containing exp were logged, counting
// the entries logged before the call, too.
func (tl *TestLogger) WaitForN(exp string, n int, to time.Duration) error {
	s := &subscription{exp: exp, n: n, response: make(chan struct{})}

	tl.mu.Lock()
	for _, e := range tl.entries {
		if strings.Contains(e, exp) {
			s.n--
		}
	}

	if s.n <= 0 {
		tl.mu.Unlock()
		return nil
	}

	tl.subs = append(tl.subs, s)
	tl.mu.Unlock()

	select {
	case <-s.response:
		return nil
	case <-time.After(to):
		return ErrWaitTimeout
	}
}

func (tl *TestLogger) WaitFor(exp string, to time.Duration) error {
	return tl.WaitForN(exp, 1, to)
}

// Count returns the number of entries containing exp.
func (tl *TestLogger) Count(exp string) int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	var n int
	for _, e := range tl.entries {
		if strings.Contains(e, exp) {
			n++
		}
	}

	return n
}

// Entries returns a copy of the recorded entries.
func (tl *TestLogger) Entries() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]string(nil), tl.entries...)
}

func (tl *TestLogger) Reset() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.entries = nil
	tl.subs = nil
}

func (tl *TestLogger) Close() {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.closed = true
}

func (tl *TestLogger) Error(a ...any)            { tl.save("ERROR", fmt.Sprint(a...)) }
func (tl *TestLogger) Errorf(f string, a ...any) { tl.save("ERROR", fmt.Sprintf(f, a...)) }
func (tl *TestLogger) Warn(a ...any)             { tl.save("WARN", fmt.Sprint(a...)) }
func (tl *TestLogger) Warnf(f string, a ...any)  { tl.save("WARN", fmt.Sprintf(f, a...)) }
func (tl *TestLogger) Info(a ...any)             { tl.save("INFO", fmt.Sprint(a...)) }
func (tl *TestLogger) Infof(f string, a ...any)  { tl.save("INFO", fmt.Sprintf(f, a...)) }
func (tl *TestLogger) Debug(a ...any)            { tl.save("DEBUG", fmt.Sprint(a...)) }
func (tl *TestLogger) Debugf(f string, a ...any) { tl.save("DEBUG", fmt.Sprintf(f, a...)) }
