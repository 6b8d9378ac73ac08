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

// Package io manages GPIO input pins

package io

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Edge
const (
	NONE    = iota // Default
	RISING  = iota
	FALLING = iota
	BOTH    = iota
)

const (
	baseDir       = "/sys/class/gpio/"
	exportFile    = baseDir + "export"
	unexportFile  = baseDir + "unexport"
	directionFile = "/direction"
	edgeFile      = "/edge"
	valueFile     = "/value"
)

// Gpio represents one GPIO input pin.
type Gpio struct {
	number  int
	value   *os.File
	buf     []byte
	edge    int
	pollfd  []unix.PollFd
	watcher *watcher
}

// Pin opens a GPIO pin as an input.
func Pin(gpio int) (*Gpio, error) {
	g := new(Gpio)
	g.number = gpio
	g.buf = make([]byte, 1)

	val := fmt.Sprintf("%s/gpio%d%s", baseDir, gpio, valueFile)
	err := export(val, exportFile, gpio)
	if err != nil {
		return nil, err
	}
	err = writeFile(fmt.Sprintf("%s/gpio%d%s", baseDir, gpio, directionFile), "in")
	if err != nil {
		unexport(unexportFile, gpio)
		return nil, err
	}
	err = g.Edge(NONE)
	if err != nil {
		unexport(unexportFile, gpio)
		return nil, err
	}
	g.value, err = os.OpenFile(val, os.O_RDWR, 0600)
	if err != nil {
		unexport(unexportFile, gpio)
		return nil, err
	}
	g.pollfd = []unix.PollFd{{Fd: int32(g.value.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	return g, nil
}

// Edge sets the edge detection on the GPIO pin.
func (g *Gpio) Edge(e int) error {
	var s string
	switch e {
	case NONE:
		s = "none"
	case RISING:
		s = "rising"
	case FALLING:
		s = "falling"
	case BOTH:
		s = "both"
	default:
		return fmt.Errorf("gpio%d: unknown edge", g.number)
	}
	err := writeFile(fmt.Sprintf("%s/gpio%d%s", baseDir, g.number, edgeFile), s)
	if err == nil {
		g.edge = e
	}
	return err
}

// Get returns the current value of the GPIO pin.
// If edge detection has been set, Get blocks until an edge event is seen.
// Get must not be used while a watcher is active on the pin.
func (g *Gpio) Get() (int, error) {
	if g.edge != NONE {
		// Wait for edge using poll.
		g.pollfd[0].Revents = 0
		_, err := unix.Poll(g.pollfd, -1)
		if err != nil {
			return 0, err
		}
		// With no timeout, poll should always return an event.
	}
	return g.read()
}

// read reads the current value from the value file.
func (g *Gpio) read() (int, error) {
	_, err := g.value.ReadAt(g.buf, 0)
	if err != nil {
		return 0, err
	}
	if g.buf[0] == '0' {
		return 0, nil
	} else if g.buf[0] == '1' {
		return 1, nil
	} else {
		return 0, fmt.Errorf("gpio%d: unknown value %s", g.number, g.buf)
	}
}

// Close the GPIO pin and unexport it.
// Any active watcher is stopped first.
func (g *Gpio) Close() {
	g.Unwatch()
	g.value.Close()
	unexport(unexportFile, g.number)
}
