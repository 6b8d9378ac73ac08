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

// Edge watching for GPIO input pins

package io

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/sys/unix"
)

// watcher holds the state of an active watch.
// The pipe is used to wake the watching goroutine out of a poll
// so that the watch can be cancelled.
type watcher struct {
	rd, wr *os.File
	done   chan bool
}

// Watch arms edge detection on the pin and starts a goroutine that
// invokes the handler with the new value after each edge.
// Only one watch may be active on a pin at a time, and Watch/Unwatch
// must not be called concurrently.
func (g *Gpio) Watch(handler func(int)) error {
	if g.watcher != nil {
		return fmt.Errorf("gpio%d: already watching", g.number)
	}
	if err := g.Edge(BOTH); err != nil {
		return err
	}
	rd, wr, err := os.Pipe()
	if err != nil {
		g.Edge(NONE)
		return err
	}
	g.watcher = &watcher{rd: rd, wr: wr, done: make(chan bool)}
	go g.watch(g.watcher, handler)
	return nil
}

// Unwatch stops edge delivery and waits for the watching goroutine to
// exit, so the handler is never invoked once Unwatch has returned.
// Unwatch on a pin that is not being watched does nothing.
func (g *Gpio) Unwatch() error {
	w := g.watcher
	if w == nil {
		return nil
	}
	g.watcher = nil
	// Closing the write side wakes the poll in the watcher.
	w.wr.Close()
	<-w.done
	w.rd.Close()
	return g.Edge(NONE)
}

// watch waits for edge events on the value file and delivers the
// new value to the handler. A hangup on the pipe ends the watch.
func (g *Gpio) watch(w *watcher, handler func(int)) {
	defer close(w.done)
	// Clear any event pending from arming the edge detection.
	g.read()
	fds := []unix.PollFd{
		{Fd: int32(g.value.Fd()), Events: unix.POLLPRI | unix.POLLERR},
		{Fd: int32(w.rd.Fd()), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents = 0
		fds[1].Revents = 0
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			log.Printf("gpio%d: poll: %v", g.number, err)
			return
		}
		if fds[1].Revents != 0 {
			// Unwatch has closed the pipe.
			return
		}
		if fds[0].Revents != 0 {
			v, err := g.read()
			if err != nil {
				log.Printf("gpio%d: read: %v", g.number, err)
				return
			}
			handler(v)
		}
	}
}
