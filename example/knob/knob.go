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

// Volume knob demo, configured from a config file

package main

import (
	"flag"
	"log"

	"github.com/aamcrae/config"
	"github.com/aamcrae/rotary"
)

var configFile = flag.String("config", "knob.conf", "Configuration file")
var section = flag.String("knob", "volume", "Config section for the knob")
var detents = flag.Int("detents", 20, "Detents in a revolution")
var port = flag.Int("port", 0, "Web server port number (0 for no server)")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	c, err := rotary.ReadConfig(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *section, err)
	}
	dial := rotary.NewDial(*section, *detents)
	c.OnClockwise = func() {
		dial.Clockwise()
		show(dial)
	}
	c.OnCounterClockwise = func() {
		dial.CounterClockwise()
		show(dial)
	}
	c.OnPress = func() {
		log.Printf("%s: pressed", *section)
	}
	c.OnRelease = func() {
		log.Printf("%s: released", *section)
	}
	enc, err := rotary.Open(c)
	if err != nil {
		log.Fatalf("%s: %v", *section, err)
	}
	defer enc.Close()
	if *port != 0 {
		go rotary.DialServer(*port, []*rotary.Dial{dial})
	}
	select {}
}

func show(d *rotary.Dial) {
	p, r := d.Position()
	log.Printf("%s: count %d, position %d/%d", d.Name, d.Count(), p, r)
}
