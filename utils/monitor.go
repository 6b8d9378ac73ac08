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

// Encoder monitor utility

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aamcrae/rotary"
)

var clk = flag.Int("clk", 17, "GPIO of the CLK channel")
var dt = flag.Int("dt", 27, "GPIO of the DT channel")
var button = flag.Int("button", 0, "GPIO of the push button (0 for none)")
var debounce = flag.Duration("debounce", 10*time.Millisecond, "Button debounce window")
var detents = flag.Int("detents", 20, "Detents in a revolution")

func main() {
	flag.Parse()
	dial := rotary.NewDial("encoder", *detents)
	c := &rotary.Config{
		Name:     "encoder",
		Clk:      *clk,
		Dt:       *dt,
		Button:   *button,
		Debounce: *debounce,
		OnClockwise: func() {
			dial.Clockwise()
			show(dial)
		},
		OnCounterClockwise: func() {
			dial.CounterClockwise()
			show(dial)
		},
		OnPress: func() {
			fmt.Printf("button down\n")
		},
		OnRelease: func() {
			fmt.Printf("button up\n")
		},
	}
	enc, err := rotary.Open(c)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	defer enc.Close()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSuffix(text, "\n")
		switch text {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  NNN - set count to NNN")
			fmt.Println("  p - print count and position")
			fmt.Println("  z - zero the count")
			fmt.Println("  q - quit")
		case "q":
			return
		case "z":
			dial.Set(0)
			show(dial)
		case "p":
			show(dial)
		default:
			var count int
			n, err := fmt.Sscanf(text, "%d", &count)
			if err != nil || n != 1 {
				fmt.Printf("Unrecognised input\n")
			} else {
				dial.Set(count)
				show(dial)
			}
		}
	}
}

func show(d *rotary.Dial) {
	p, r := d.Position()
	fmt.Printf("count %d, position %d/%d\n", d.Count(), p, r)
}
