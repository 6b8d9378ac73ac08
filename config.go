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

// Config file parsing

package rotary

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aamcrae/config"
)

// ReadConfig reads and validates an encoder Config from a config file
// section. Callbacks are not part of the file config and are set on
// the returned Config before it is opened.
// Sample config:
//
//	[volume]
//	encoder=17,27     # GPIOs for the CLK and DT channels
//	button=22         # GPIO for the push button
//	dispatch=local    # callback policy: global, local, spawn, inline
//	debounce=10ms     # button debounce window
//	invert=true       # button reads high when pressed
//
// All keys other than encoder are optional.
func ReadConfig(conf *config.Config, name string) (*Config, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	var err error
	c := new(Config)
	c.Name = name
	n, err := s.Parse("encoder", "%d,%d", &c.Clk, &c.Dt)
	if err != nil {
		return nil, fmt.Errorf("encoder: %v", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("encoder: argument count")
	}
	if _, err := s.GetArg("button"); err == nil {
		n, err = s.Parse("button", "%d", &c.Button)
		if err != nil {
			return nil, fmt.Errorf("button: %v", err)
		}
		if n != 1 {
			return nil, fmt.Errorf("button: argument count")
		}
	}
	if d, err := s.GetArg("dispatch"); err == nil {
		c.Handling, err = dispatchMode(d)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %v", err)
		}
	}
	if d, err := s.GetArg("debounce"); err == nil {
		c.Debounce, err = time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("debounce: %v", err)
		}
	}
	if v, err := s.GetArg("invert"); err == nil {
		c.InvertButton, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invert: %v", err)
		}
	}
	return c, nil
}

// dispatchMode maps a config name to a dispatch policy.
func dispatchMode(s string) (Dispatch, error) {
	switch s {
	case "global":
		return GlobalWorker, nil
	case "local":
		return LocalWorker, nil
	case "spawn":
		return SpawnPerCall, nil
	case "inline":
		return InlineOnNotify, nil
	}
	return 0, fmt.Errorf("%s: unknown mode", s)
}
