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

// failureWindow tracks the outcome of the last size requests in a ring
// of bits, and the number of failures among them.
type failureWindow struct {
	size     int
	bits     []uint64
	next     int
	filled   int
	failures int
}

func newFailureWindow(size int) *failureWindow {
	if size <= 0 {
		size = 1
	}

	return &failureWindow{
		size: size,
		bits: make([]uint64, (size+63)/64),
	}
}

func (w *failureWindow) get(i int) bool {
	return w.bits[i/64]&(1<<(i%64)) != 0
}

func (w *failureWindow) set(i int, v bool) {
	if v {
		w.bits[i/64] |= 1 << (i % 64)
	} else {
		w.bits[i/64] &^= 1 << (i % 64)
	}
}

// tick records an outcome, dropping the oldest one when the window is
// full.
func (w *failureWindow) tick(failed bool) {
	if w.filled == w.size {
		if w.get(w.next) {
			w.failures--
		}
	} else {
		w.filled++
	}

	w.set(w.next, failed)
	if failed {
		w.failures++
	}

	w.next = (w.next + 1) % w.size
}
