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

// Simulated rotary encoder program

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/aamcrae/rotary"
)

// SimPin is an in-memory pin driven by the simulator.
type SimPin struct {
	level   rotary.Level
	handler func(rotary.Level)
}

// SimKnob simulates one encoder: two quadrature channels and a button.
type SimKnob struct {
	name    string
	clk, dt *SimPin
	button  *SimPin
	dial    *rotary.Dial
}

var params = []struct {
	name    string
	detents int
}{
	{"volume", 20},
	{"tuning", 30},
	{"balance", 24},
}

var port = flag.Int("port", 8080, "Web server port number")

func main() {
	flag.Parse()
	rand.Seed(time.Now().UnixNano())
	var knobs []*SimKnob
	var dials []*rotary.Dial
	for _, p := range params {
		k, err := newKnob(p.name, p.detents)
		if err != nil {
			log.Fatalf("%s: %v", p.name, err)
		}
		knobs = append(knobs, k)
		dials = append(dials, k.dial)
		go k.twiddle()
	}
	go rotary.DialServer(*port, dials)
	for {
		time.Sleep(5 * time.Second)
		var b strings.Builder
		for _, k := range knobs {
			p, r := k.dial.Position()
			fmt.Fprintf(&b, "%s %d/%d (%d) ", k.name, p, r, k.dial.Count())
		}
		fmt.Printf("%s\n", b.String())
	}
}

// newKnob builds the simulated pins for one knob and opens an encoder
// on them. All knobs share the global worker so that their callbacks
// are delivered in one ordered stream.
func newKnob(name string, detents int) (*SimKnob, error) {
	k := new(SimKnob)
	k.name = name
	k.clk = new(SimPin)
	k.dt = new(SimPin)
	k.button = &SimPin{level: rotary.High} // Released; button is active low
	k.dial = rotary.NewDial(name, detents)
	_, err := rotary.Open(&rotary.Config{
		Name:               name,
		ClkPin:             k.clk,
		DtPin:              k.dt,
		ButtonPin:          k.button,
		Handling:           rotary.GlobalWorker,
		OnClockwise:        k.dial.Clockwise,
		OnCounterClockwise: k.dial.CounterClockwise,
		OnPress: func() {
			fmt.Printf("%s: button pressed\n", name)
		},
		OnRelease: func() {
			fmt.Printf("%s: button released\n", name)
		},
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}

// twiddle turns the knob back and forth at random, with the
// occasional button press.
func (k *SimKnob) twiddle() {
	for {
		k.turn(rand.Intn(9) - 4)
		if rand.Intn(10) == 0 {
			k.button.set(rotary.Low)
			time.Sleep(100 * time.Millisecond)
			k.button.set(rotary.High)
		}
		time.Sleep(time.Duration(rand.Intn(2000)) * time.Millisecond)
	}
}

// turn rotates the knob the given number of detents,
// positive for clockwise.
func (k *SimKnob) turn(detents int) {
	cw := detents >= 0
	if !cw {
		detents = -detents
	}
	for i := 0; i < detents; i++ {
		k.step(cw)
	}
}

// step produces the four quadrature transitions of one detent.
// CLK leads DT when turning clockwise.
func (k *SimKnob) step(cw bool) {
	first, second := k.clk, k.dt
	if !cw {
		first, second = k.dt, k.clk
	}
	for _, edge := range []struct {
		pin   *SimPin
		level rotary.Level
	}{
		{first, rotary.High},
		{second, rotary.High},
		{first, rotary.Low},
		{second, rotary.Low},
	} {
		edge.pin.set(edge.level)
		time.Sleep(time.Millisecond)
	}
}

func (p *SimPin) Read() (rotary.Level, error) {
	return p.level, nil
}

func (p *SimPin) Watch(handler func(rotary.Level)) error {
	p.handler = handler
	return nil
}

func (p *SimPin) Unwatch() error {
	p.handler = nil
	return nil
}

// set drives the pin to a level, delivering an edge to any watcher.
func (p *SimPin) set(l rotary.Level) {
	if l == p.level {
		return
	}
	p.level = l
	if p.handler != nil {
		p.handler(l)
	}
}
