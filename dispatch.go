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

// Callback dispatch policies

package rotary

import (
	"fmt"
	"sync"
)

// Dispatch selects how an encoder runs its callbacks.
type Dispatch int

const (
	// GlobalWorker runs callbacks on a single worker goroutine shared
	// by every encoder using this policy, preserving the order of
	// events across those encoders. Default.
	GlobalWorker Dispatch = iota
	// LocalWorker runs callbacks on a worker goroutine owned by the
	// encoder, preserving the order of the encoder's own events.
	LocalWorker
	// SpawnPerCall runs each callback on a new goroutine.
	// No ordering is preserved; callbacks must be safe to run concurrently.
	SpawnPerCall
	// InlineOnNotify runs callbacks directly on the goroutine delivering
	// the pin edge. A slow callback delays edge handling, so edges may be
	// coalesced or lost while a callback runs.
	InlineOnNotify
)

func (d Dispatch) String() string {
	switch d {
	case GlobalWorker:
		return "global"
	case LocalWorker:
		return "local"
	case SpawnPerCall:
		return "spawn"
	case InlineOnNotify:
		return "inline"
	}
	return fmt.Sprintf("dispatch(%d)", int(d))
}

// CallbackError reports a panic recovered from a user callback.
// It is passed to the encoder's error hook; the encoder continues
// to deliver events.
type CallbackError struct {
	Name  string      // Name of the encoder
	Panic interface{} // Value recovered from the panic
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s: callback panic: %v", e.Name, e.Panic)
}

// dispatcher runs callbacks under one of the Dispatch policies.
// stop releases the dispatcher, first running any callbacks already
// accepted by run. run must not be called once stop has been called.
type dispatcher interface {
	run(func())
	stop()
}

// newDispatcher creates the dispatcher for a policy.
func newDispatcher(d Dispatch) (dispatcher, error) {
	switch d {
	case GlobalWorker:
		return acquireGlobal(), nil
	case LocalWorker:
		return newWorker(), nil
	case SpawnPerCall:
		return new(spawner), nil
	case InlineOnNotify:
		return inline{}, nil
	}
	return nil, fmt.Errorf("dispatch mode %d: unknown", int(d))
}

// worker runs queued callbacks in FIFO order on a single goroutine.
// The queue is unbounded so that queueing a callback never blocks
// the goroutine delivering pin edges.
type worker struct {
	mu      sync.Mutex // Guards queue and closing
	ready   *sync.Cond
	queue   []func()
	closing bool
	done    chan bool
}

func newWorker() *worker {
	w := new(worker)
	w.ready = sync.NewCond(&w.mu)
	w.done = make(chan bool)
	go w.loop()
	return w
}

// run queues one callback.
func (w *worker) run(fn func()) {
	w.mu.Lock()
	w.queue = append(w.queue, fn)
	w.mu.Unlock()
	w.ready.Signal()
}

// stop runs the remaining queue, stops the goroutine and waits
// for it to exit.
func (w *worker) stop() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.ready.Signal()
	<-w.done
}

// loop services the queue, exiting once stopped and drained.
func (w *worker) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closing {
			w.ready.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		fn := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.mu.Unlock()
		fn()
	}
}

// The GlobalWorker policy shares one worker between all of its users.
// The worker is started when the first user acquires it, and stopped
// when the last user releases it.
var (
	globalLock   sync.Mutex // Guards globalWorker and globalUsers
	globalWorker *worker
	globalUsers  int
)

// global holds one user's reference to the shared worker.
type global struct {
	w *worker
}

func acquireGlobal() *global {
	globalLock.Lock()
	defer globalLock.Unlock()
	if globalUsers == 0 {
		globalWorker = newWorker()
	}
	globalUsers++
	return &global{w: globalWorker}
}

func (g *global) run(fn func()) {
	g.w.run(fn)
}

// stop drops this user's reference. The last user out drains and
// stops the shared worker.
func (g *global) stop() {
	globalLock.Lock()
	globalUsers--
	last := globalUsers == 0
	globalLock.Unlock()
	if last {
		g.w.stop()
	}
}

// spawner runs each callback on its own goroutine.
type spawner struct {
	wg sync.WaitGroup
}

func (s *spawner) run(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// stop waits for any callbacks still running.
func (s *spawner) stop() {
	s.wg.Wait()
}

// inline runs callbacks directly on the caller.
type inline struct{}

func (inline) run(fn func()) {
	fn()
}

func (inline) stop() {
}
