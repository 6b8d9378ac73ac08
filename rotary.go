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

// Package rotary decodes quadrature rotary encoders (such as the
// common KY-040 module) into rotation and button callbacks.

package rotary

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aamcrae/rotary/io"
)

// Level is the logic level of an input pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Pin is the contract with the GPIO layer.
// Read returns the current level of the pin.
// Watch registers a handler that is invoked with the new level after
// each edge on the pin; only one handler may be registered at a time.
// Edges on a pin must be delivered one at a time, not delivering the
// next until the handler for the previous one has returned; the
// encoder's callback ordering relies on this.
// Unwatch removes the handler, blocking until any in-progress
// invocation has returned, so the handler will never be invoked once
// Unwatch returns. Unwatch with no handler registered does nothing.
type Pin interface {
	Read() (Level, error)
	Watch(func(Level)) error
	Unwatch() error
}

// Config defines an encoder to be opened.
// The encoder channels may be given as GPIO numbers (Clk, Dt, Button),
// which are opened as sysfs GPIO pins owned by the encoder, or as
// ready-made Pins (ClkPin, DtPin, ButtonPin), which the caller retains
// ownership of. A Pin takes precedence over the matching GPIO number.
type Config struct {
	Name   string // Name of the encoder, used in logs and errors
	Clk    int    // GPIO number of the CLK (A) channel
	Dt     int    // GPIO number of the DT (B) channel
	Button int    // GPIO number of the push button, 0 for no button

	ClkPin    Pin
	DtPin     Pin
	ButtonPin Pin

	Handling Dispatch // Callback dispatch policy

	// Rotation and button callbacks. Any callback may be nil, in which
	// case the event is discarded. Callbacks must not call Close on
	// their own encoder.
	OnClockwise        func()
	OnCounterClockwise func()
	OnPress            func()
	OnRelease          func()

	// OnError receives errors that cannot be returned directly:
	// callback panics and pin release failures. It may be invoked from
	// any of the dispatch contexts. If nil, errors are logged.
	OnError func(error)

	InvertButton bool          // Button reads high when pressed
	Debounce     time.Duration // Button debounce window, 0 to disable
}

// Encoder is an open encoder delivering callbacks.
type Encoder struct {
	name   string
	clk    Pin
	dt     Pin
	button Pin
	owned  []*io.Gpio // sysfs pins opened here, closed on Close
	disp   dispatcher
	errs   func(error)

	onCW  func()
	onCCW func()

	mu     sync.Mutex // Guards dec, btn and closed
	dec    decoder
	btn    button
	closed bool
}

// Open opens the encoder described by the config and starts
// delivering callbacks. The encoder must be released with Close.
func Open(c *Config) (*Encoder, error) {
	e := new(Encoder)
	e.name = c.Name
	if e.name == "" {
		e.name = "encoder"
	}
	e.onCW = c.OnClockwise
	e.onCCW = c.OnCounterClockwise
	e.errs = c.OnError
	if e.errs == nil {
		e.errs = logError
	}
	var err error
	e.clk, err = e.pin(c.ClkPin, c.Clk)
	if err != nil {
		return nil, e.fail("clk", err)
	}
	e.dt, err = e.pin(c.DtPin, c.Dt)
	if err != nil {
		return nil, e.fail("dt", err)
	}
	if c.ButtonPin != nil || c.Button != 0 {
		e.button, err = e.pin(c.ButtonPin, c.Button)
		if err != nil {
			return nil, e.fail("button", err)
		}
		e.btn.invert = c.InvertButton
		e.btn.debounce = c.Debounce
		e.btn.onPress = c.OnPress
		e.btn.onRelease = c.OnRelease
	}
	// Seed the decoder from a synchronous read of both channels so the
	// first edge is decoded against the true current state.
	clk, err := e.clk.Read()
	if err != nil {
		return nil, e.fail("clk", err)
	}
	dt, err := e.dt.Read()
	if err != nil {
		return nil, e.fail("dt", err)
	}
	e.dec.seed(clk, dt)
	if e.button != nil {
		l, err := e.button.Read()
		if err != nil {
			return nil, e.fail("button", err)
		}
		e.btn.seed(l)
	}
	e.disp, err = newDispatcher(c.Handling)
	if err != nil {
		return nil, e.fail("dispatch", err)
	}
	// Arm the edge handlers last so that no callback can run on a
	// partly built encoder.
	if err = e.clk.Watch(e.clkEdge); err != nil {
		return nil, e.fail("clk", err)
	}
	if err = e.dt.Watch(e.dtEdge); err != nil {
		return nil, e.fail("dt", err)
	}
	if e.button != nil {
		if err = e.button.Watch(e.buttonEdge); err != nil {
			return nil, e.fail("button", err)
		}
	}
	return e, nil
}

// Close releases the encoder. Edge delivery is stopped first, then
// callbacks already accepted are run, and finally any pins opened by
// Open are closed. Failures along the way are reported through the
// error hook, and do not stop the remaining teardown.
// Close must be called exactly once; a second Close panics.
func (e *Encoder) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		panic(fmt.Sprintf("%s: Close of closed encoder", e.name))
	}
	e.closed = true
	e.mu.Unlock()
	for _, p := range []Pin{e.clk, e.dt, e.button} {
		if p == nil {
			continue
		}
		if err := p.Unwatch(); err != nil {
			e.errs(fmt.Errorf("%s: unwatch: %v", e.name, err))
		}
	}
	// No more events can arrive; run whatever is still queued.
	e.disp.stop()
	for _, g := range e.owned {
		g.Close()
	}
}

// pin resolves a configured pin, preferring a caller-supplied Pin and
// otherwise opening the numbered sysfs GPIO.
func (e *Encoder) pin(p Pin, gpio int) (Pin, error) {
	if p != nil {
		return p, nil
	}
	g, err := io.Pin(gpio)
	if err != nil {
		return nil, fmt.Errorf("gpio%d: %v", gpio, err)
	}
	e.owned = append(e.owned, g)
	return &sysfsPin{g: g}, nil
}

// fail unwinds a partly opened encoder and decorates the error.
func (e *Encoder) fail(what string, err error) error {
	for _, p := range []Pin{e.clk, e.dt, e.button} {
		if p != nil {
			p.Unwatch()
		}
	}
	if e.disp != nil {
		e.disp.stop()
	}
	for _, g := range e.owned {
		g.Close()
	}
	return fmt.Errorf("%s: %s: %v", e.name, what, err)
}

// clkEdge handles an edge on the CLK channel.
func (e *Encoder) clkEdge(l Level) {
	e.mu.Lock()
	r, ok := e.dec.clkEdge(l)
	e.mu.Unlock()
	if ok {
		e.rotate(r)
	}
}

// dtEdge handles an edge on the DT channel.
func (e *Encoder) dtEdge(l Level) {
	e.mu.Lock()
	r, ok := e.dec.dtEdge(l)
	e.mu.Unlock()
	if ok {
		e.rotate(r)
	}
}

// buttonEdge handles an edge on the button pin.
func (e *Encoder) buttonEdge(l Level) {
	e.mu.Lock()
	fn := e.btn.edge(l, time.Now())
	e.mu.Unlock()
	if fn != nil {
		e.dispatch(fn)
	}
}

// rotate dispatches the callback for one detent of rotation.
func (e *Encoder) rotate(r Rotation) {
	var fn func()
	if r == Clockwise {
		fn = e.onCW
	} else {
		fn = e.onCCW
	}
	if fn != nil {
		e.dispatch(fn)
	}
}

// dispatch hands one callback to the dispatcher, fencing off panics
// so a misbehaving callback cannot kill the dispatch context.
func (e *Encoder) dispatch(fn func()) {
	e.disp.run(func() {
		defer func() {
			if r := recover(); r != nil {
				e.errs(&CallbackError{Name: e.name, Panic: r})
			}
		}()
		fn()
	})
}

// logError is the default error hook.
func logError(err error) {
	log.Printf("%v", err)
}

// sysfsPin adapts a sysfs GPIO to the Pin interface.
type sysfsPin struct {
	g *io.Gpio
}

func (s *sysfsPin) Read() (Level, error) {
	v, err := s.g.Get()
	return v != 0, err
}

func (s *sysfsPin) Watch(handler func(Level)) error {
	return s.g.Watch(func(v int) {
		handler(v != 0)
	})
}

func (s *sysfsPin) Unwatch() error {
	return s.g.Unwatch()
}
