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

// Dial position tracking

package rotary

import "sync"

// Dial accumulates rotation events into a dial position.
// Its methods are safe to use from any dispatch policy, and Clockwise
// and CounterClockwise can be used directly as encoder callbacks:
//
//	d := rotary.NewDial("volume", 20)
//	rotary.Open(&rotary.Config{
//		Clk: 17, Dt: 27,
//		OnClockwise:        d.Clockwise,
//		OnCounterClockwise: d.CounterClockwise,
//	})
type Dial struct {
	Name    string
	detents int        // Detents in a full revolution
	mu      sync.Mutex // Guards count
	count   int
}

// NewDial creates a dial with the given number of detents in a
// full revolution.
func NewDial(name string, detents int) *Dial {
	d := new(Dial)
	d.Name = name
	d.detents = detents
	return d
}

// Clockwise advances the dial one detent.
func (d *Dial) Clockwise() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
}

// CounterClockwise moves the dial back one detent.
func (d *Dial) CounterClockwise() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count--
}

// Count returns the accumulated detent count, negative for net
// counter-clockwise movement.
func (d *Dial) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Set sets the absolute detent count.
func (d *Dial) Set(count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count = count
}

// Position returns the position of the dial as a detent offset within
// one revolution, and the number of detents in a revolution.
func (d *Dial) Position() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.count % d.detents
	if p < 0 {
		p += d.detents
	}
	return p, d.detents
}
