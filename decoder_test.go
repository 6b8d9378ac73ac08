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

package rotary

import (
	"math/rand"
	"reflect"
	"testing"
)

// A channel edge for feeding a decoder directly.
type chanEdge struct {
	clk   bool // true for the CLK channel, false for DT
	level Level
}

// One full detent in each direction, starting from both channels low.
var cwCycle = []chanEdge{{true, High}, {false, High}, {true, Low}, {false, Low}}
var ccwCycle = []chanEdge{{false, High}, {true, High}, {false, Low}, {true, Low}}

// feed applies a sequence of edges and collects the events produced.
func feed(d *decoder, edges []chanEdge) []Rotation {
	var evs []Rotation
	for _, e := range edges {
		var r Rotation
		var ok bool
		if e.clk {
			r, ok = d.clkEdge(e.level)
		} else {
			r, ok = d.dtEdge(e.level)
		}
		if ok {
			evs = append(evs, r)
		}
	}
	return evs
}

func repeat(edges []chanEdge, n int) []chanEdge {
	var seq []chanEdge
	for i := 0; i < n; i++ {
		seq = append(seq, edges...)
	}
	return seq
}

func TestClockwiseCycle(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	evs := feed(&d, cwCycle)
	if len(evs) != 1 || evs[0] != Clockwise {
		t.Fatalf("clockwise cycle: got %v, want [clockwise]", evs)
	}
}

func TestCounterClockwiseCycle(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	evs := feed(&d, ccwCycle)
	if len(evs) != 1 || evs[0] != CounterClockwise {
		t.Fatalf("counter-clockwise cycle: got %v, want [counter-clockwise]", evs)
	}
}

func TestEventPerDetent(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	evs := feed(&d, repeat(cwCycle, 5))
	if len(evs) != 5 {
		t.Fatalf("5 clockwise detents: got %d events", len(evs))
	}
	for _, r := range evs {
		if r != Clockwise {
			t.Fatalf("unexpected event %v", r)
		}
	}
	evs = feed(&d, repeat(ccwCycle, 3))
	if len(evs) != 3 {
		t.Fatalf("3 counter-clockwise detents: got %d events", len(evs))
	}
	for _, r := range evs {
		if r != CounterClockwise {
			t.Fatalf("unexpected event %v", r)
		}
	}
}

// A notification that does not change the channel state is a no-op
// and must not disturb detent alignment.
func TestRepeatedLevel(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	for i := 0; i < 10; i++ {
		if _, ok := d.clkEdge(Low); ok {
			t.Fatalf("event from unchanged level")
		}
	}
	evs := feed(&d, cwCycle)
	if len(evs) != 1 || evs[0] != Clockwise {
		t.Fatalf("cycle after repeats: got %v, want [clockwise]", evs)
	}
}

// A single transition forward and back (switch jitter) must cancel out.
func TestJitter(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	for i := 0; i < 10; i++ {
		if _, ok := d.clkEdge(High); ok {
			t.Fatalf("event from half detent")
		}
		if _, ok := d.clkEdge(Low); ok {
			t.Fatalf("event from jitter")
		}
	}
	evs := feed(&d, cwCycle)
	if len(evs) != 1 || evs[0] != Clockwise {
		t.Fatalf("cycle after jitter: got %v, want [clockwise]", evs)
	}
}

// A transition that changes both channels cannot come from a single
// edge; the new state must be adopted with no event emitted.
func TestNoiseResync(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	if _, ok := d.apply(pair(High, High)); ok {
		t.Fatalf("event from double transition")
	}
	if d.state != pair(High, High) {
		t.Fatalf("state not adopted: %d", d.state)
	}
	// A full detent from the adopted state decodes normally.
	evs := feed(&d, []chanEdge{{true, Low}, {false, Low}, {true, High}, {false, High}})
	if len(evs) != 1 || evs[0] != Clockwise {
		t.Fatalf("cycle after resync: got %v, want [clockwise]", evs)
	}
}

// Any partial detent accumulated before a double transition is
// discarded, not carried into the resynced state.
func TestNoiseDiscardsPartialDetent(t *testing.T) {
	var d decoder
	d.seed(Low, Low)
	if _, ok := d.clkEdge(High); ok {
		t.Fatalf("event from half detent")
	}
	// CLK high, DT low; jump to CLK low, DT high.
	if _, ok := d.apply(pair(Low, High)); ok {
		t.Fatalf("event from double transition")
	}
	// The next three clockwise steps complete a cycle relative to the
	// discarded step; no event until a full detent from the new state.
	evs := feed(&d, []chanEdge{{false, Low}, {true, High}, {false, High}})
	if len(evs) != 0 {
		t.Fatalf("partial detent not discarded: %v", evs)
	}
	if _, ok := d.clkEdge(Low); !ok {
		t.Fatalf("no event on completed detent")
	}
}

func TestSeededState(t *testing.T) {
	var d decoder
	d.seed(High, High)
	// One clockwise detent starting from both channels high.
	evs := feed(&d, []chanEdge{{true, Low}, {false, Low}, {true, High}, {false, High}})
	if len(evs) != 1 || evs[0] != Clockwise {
		t.Fatalf("cycle from high seed: got %v, want [clockwise]", evs)
	}
}

// The same seed and notification sequence must always produce the
// same events.
func TestReplay(t *testing.T) {
	gen := rand.New(rand.NewSource(42))
	var seq []chanEdge
	for i := 0; i < 500; i++ {
		seq = append(seq, chanEdge{gen.Intn(2) == 0, gen.Intn(2) == 0})
	}
	var d1, d2 decoder
	d1.seed(Low, High)
	d2.seed(Low, High)
	evs1 := feed(&d1, seq)
	evs2 := feed(&d2, seq)
	if !reflect.DeepEqual(evs1, evs2) {
		t.Fatalf("replay diverged: %v vs %v", evs1, evs2)
	}
}

// Structural properties of the transition table: states that differ
// in one bit move one step, with the reverse transition moving one
// step the other way; repeated and double-change states carry none.
func TestTransitionTable(t *testing.T) {
	for prev := state(0); prev < 4; prev++ {
		for next := state(0); next < 4; next++ {
			d := decoder{state: prev}
			if _, ok := d.apply(next); ok {
				t.Fatalf("%d->%d: single transition produced an event", prev, next)
			}
			step := d.accum
			switch {
			case prev == next:
				if step != 0 {
					t.Fatalf("%d->%d: self transition moved %d", prev, next, step)
				}
			case prev^next == 3:
				if step != 0 {
					t.Fatalf("%d->%d: double transition moved %d", prev, next, step)
				}
			default:
				if step != 1 && step != -1 {
					t.Fatalf("%d->%d: moved %d, want one step", prev, next, step)
				}
				r := decoder{state: next}
				r.apply(prev)
				if r.accum != -step {
					t.Fatalf("%d->%d: reverse moved %d, want %d", next, prev, r.accum, -step)
				}
			}
		}
	}
}
