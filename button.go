// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Push button handling

package rotary

import "time"

// button tracks the debounced state of the push button channel
// (the SW pin of a KY-040 module). The switch pulls the pin low when
// pressed unless the input is inverted.
type button struct {
	invert    bool
	debounce  time.Duration
	pressed   bool
	last      time.Time // Time of the last accepted change
	onPress   func()
	onRelease func()
}

// seed records the initial button state read at open.
func (b *button) seed(l Level) {
	b.pressed = b.isPressed(l)
}

// isPressed maps a pin level to the pressed state.
func (b *button) isPressed(l Level) bool {
	return (l == Low) != b.invert
}

// edge processes one edge on the button pin, returning the callback
// to dispatch, or nil. A level that does not change the pressed state
// is ignored, as is any change inside the debounce window of the
// previous accepted change (contact bounce).
func (b *button) edge(l Level, now time.Time) func() {
	p := b.isPressed(l)
	if p == b.pressed {
		return nil
	}
	if b.debounce != 0 && now.Sub(b.last) < b.debounce {
		return nil
	}
	b.pressed = p
	b.last = now
	if p {
		return b.onPress
	}
	return b.onRelease
}
