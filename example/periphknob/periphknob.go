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

// Knob demo using periph.io host GPIO

package main

import (
	"flag"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/aamcrae/rotary"
)

var clk = flag.String("clk", "GPIO17", "Pin name of the CLK channel")
var dt = flag.String("dt", "GPIO27", "Pin name of the DT channel")
var button = flag.String("button", "GPIO22", "Pin name of the push button")

func main() {
	flag.Parse()
	if _, err := host.Init(); err != nil {
		log.Fatalf("host init: %v", err)
	}
	dial := rotary.NewDial("knob", 20)
	c := &rotary.Config{
		Name:      "knob",
		ClkPin:    pin(*clk),
		DtPin:     pin(*dt),
		ButtonPin: pin(*button),
		Handling:  rotary.LocalWorker,
		Debounce:  10 * time.Millisecond,
		OnClockwise: func() {
			dial.Clockwise()
			show(dial)
		},
		OnCounterClockwise: func() {
			dial.CounterClockwise()
			show(dial)
		},
		OnPress: func() {
			log.Printf("knob: pressed")
		},
		OnRelease: func() {
			log.Printf("knob: released")
		},
	}
	enc, err := rotary.Open(c)
	if err != nil {
		log.Fatalf("knob: %v", err)
	}
	defer enc.Close()
	select {}
}

// pin looks up a host pin by name and wraps it for the encoder.
func pin(name string) rotary.Pin {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("%s: no such pin", name)
	}
	rp, err := rotary.NewPeriphPin(p, gpio.PullUp)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return rp
}

func show(d *rotary.Dial) {
	p, r := d.Position()
	log.Printf("%s: count %d, position %d/%d", d.Name, d.Count(), p, r)
}
