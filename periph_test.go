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
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testPin(name string) *gpiotest.Pin {
	return &gpiotest.Pin{N: name, EdgesChan: make(chan gpio.Level, 16)}
}

func TestPeriphRead(t *testing.T) {
	pin := testPin("CLK")
	pin.L = gpio.High
	p, err := NewPeriphPin(pin, gpio.PullUp)
	if err != nil {
		t.Fatalf("NewPeriphPin: %v", err)
	}
	l, err := p.Read()
	if err != nil || l != High {
		t.Fatalf("read %v, %v, want high", l, err)
	}
}

func TestPeriphWatch(t *testing.T) {
	pin := testPin("CLK")
	p, err := NewPeriphPin(pin, gpio.PullUp)
	if err != nil {
		t.Fatalf("NewPeriphPin: %v", err)
	}
	levels := make(chan Level, 16)
	err = p.Watch(func(l Level) {
		levels <- l
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	pin.EdgesChan <- gpio.High
	select {
	case l := <-levels:
		if l != High {
			t.Fatalf("level %v, want high", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for edge")
	}
	if err := p.Unwatch(); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	// No deliveries once Unwatch has returned.
	pin.EdgesChan <- gpio.Low
	select {
	case l := <-levels:
		t.Fatalf("level %v delivered after unwatch", l)
	case <-time.After(150 * time.Millisecond):
	}
	// Unwatch of an unwatched pin does nothing.
	if err := p.Unwatch(); err != nil {
		t.Fatalf("second Unwatch: %v", err)
	}
}

// An encoder running on periph.io pins decodes a detent end to end.
func TestPeriphEncoder(t *testing.T) {
	clkPin := testPin("CLK")
	dtPin := testPin("DT")
	clk, err := NewPeriphPin(clkPin, gpio.PullUp)
	if err != nil {
		t.Fatalf("clk: %v", err)
	}
	dt, err := NewPeriphPin(dtPin, gpio.PullUp)
	if err != nil {
		t.Fatalf("dt: %v", err)
	}
	// The simulated pull-up leaves both pins high; start the detent
	// from a known low state instead.
	clkPin.L = gpio.Low
	dtPin.L = gpio.Low
	events := make(chan Rotation, 16)
	enc, err := Open(&Config{
		Name:     "periph",
		ClkPin:   clk,
		DtPin:    dt,
		Handling: InlineOnNotify,
		OnClockwise: func() {
			events <- Clockwise
		},
		OnCounterClockwise: func() {
			events <- CounterClockwise
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// One clockwise detent. The channels deliver through separate
	// watchers, so give each edge time to land before the next.
	for _, e := range []struct {
		pin   *gpiotest.Pin
		level gpio.Level
	}{
		{clkPin, gpio.High},
		{dtPin, gpio.High},
		{clkPin, gpio.Low},
		{dtPin, gpio.Low},
	} {
		e.pin.EdgesChan <- e.level
		waitLevel(t, e.pin, e.level)
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case r := <-events:
		if r != Clockwise {
			t.Fatalf("event %v, want clockwise", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for rotation event")
	}
	enc.Close()
	select {
	case r := <-events:
		t.Fatalf("unexpected extra event %v", r)
	default:
	}
}

// waitLevel waits for the watcher to have consumed an edge, which
// updates the test pin's level.
func waitLevel(t *testing.T, p *gpiotest.Pin, l gpio.Level) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if p.Read() == l {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("%s: level %v never seen by watcher", p.N, l)
}
