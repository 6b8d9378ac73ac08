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

// Quadrature signal decoding

package rotary

// Rotation is the direction of a detent of rotation.
type Rotation int

const (
	Clockwise Rotation = iota
	CounterClockwise
)

func (r Rotation) String() string {
	if r == Clockwise {
		return "clockwise"
	}
	return "counter-clockwise"
}

// state is the combined level of the two encoder channels,
// with the CLK level in bit 1 and the DT level in bit 0.
type state uint8

// A detent is one full quadrature cycle of four transitions.
const detentSteps = 4

// quadrature maps a (previous, next) state pair to the signed number
// of quadrature steps it represents. The index is previous<<2|next.
// The clockwise cycle (CLK leading DT) is 00 -> 10 -> 11 -> 01 -> 00.
// Pairs that differ in both bits are not adjacent in the cycle and
// carry no movement; they are handled separately as noise.
var quadrature = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// decoder tracks the state of the two quadrature channels and
// accumulates steps until a full detent has been traversed.
// One rotation event is produced per detent.
type decoder struct {
	state state
	accum int // Quadrature steps within the current detent
}

// pair combines two channel levels into a state.
func pair(clk, dt Level) state {
	var s state
	if clk == High {
		s = 2
	}
	if dt == High {
		s |= 1
	}
	return s
}

// seed initialises the channel state from levels read directly
// from the pins.
func (d *decoder) seed(clk, dt Level) {
	d.state = pair(clk, dt)
	d.accum = 0
}

// clkEdge applies a new level on the CLK channel.
func (d *decoder) clkEdge(l Level) (Rotation, bool) {
	next := d.state & 1
	if l == High {
		next |= 2
	}
	return d.apply(next)
}

// dtEdge applies a new level on the DT channel.
func (d *decoder) dtEdge(l Level) (Rotation, bool) {
	next := d.state & 2
	if l == High {
		next |= 1
	}
	return d.apply(next)
}

// apply moves the decoder to the next channel state, returning a
// rotation event if the transition completes a detent.
// A repeated state is ignored. A state that differs on both channels
// cannot come from a single edge; it means edges were missed or the
// signal is noisy, so the new state is adopted as the baseline and
// any partial detent is discarded.
func (d *decoder) apply(next state) (Rotation, bool) {
	prev := d.state
	if next == prev {
		return 0, false
	}
	d.state = next
	if prev^next == 3 {
		d.accum = 0
		return 0, false
	}
	d.accum += int(quadrature[prev<<2|next])
	switch d.accum {
	case detentSteps:
		d.accum = 0
		return Clockwise, true
	case -detentSteps:
		d.accum = 0
		return CounterClockwise, true
	}
	return 0, false
}
