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

// Adapter for periph.io GPIO pins

package rotary

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// How often the watcher re-checks for cancellation when no edges arrive.
const edgePoll = 100 * time.Millisecond

// PeriphPin wraps a periph.io pin as a Pin, so encoders can be driven
// by any host periph.io supports. Watch and Unwatch must not be
// called concurrently.
type PeriphPin struct {
	p    gpio.PinIO
	stop chan bool
	done chan bool
}

// NewPeriphPin configures a periph.io pin as an input with the given
// pull and edge detection, and wraps it as a Pin.
func NewPeriphPin(p gpio.PinIO, pull gpio.Pull) (*PeriphPin, error) {
	if err := p.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("%s: %v", p.Name(), err)
	}
	return &PeriphPin{p: p}, nil
}

// Read returns the current level of the pin.
func (p *PeriphPin) Read() (Level, error) {
	return p.p.Read() == gpio.High, nil
}

// Watch starts a goroutine that waits for edges and delivers the new
// level to the handler.
func (p *PeriphPin) Watch(handler func(Level)) error {
	if p.stop != nil {
		return fmt.Errorf("%s: already watching", p.p.Name())
	}
	p.stop = make(chan bool)
	p.done = make(chan bool)
	go p.watch(p.stop, p.done, handler)
	return nil
}

// Unwatch stops the watching goroutine, waiting for it to exit so the
// handler is never invoked once Unwatch returns.
func (p *PeriphPin) Unwatch() error {
	if p.stop == nil {
		return nil
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
	return nil
}

// watch delivers edges until stopped. WaitForEdge is bounded by a
// timeout so that cancellation is noticed even when no edges arrive.
func (p *PeriphPin) watch(stop, done chan bool, handler func(Level)) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if p.p.WaitForEdge(edgePoll) {
			handler(p.p.Read() == gpio.High)
		}
	}
}
