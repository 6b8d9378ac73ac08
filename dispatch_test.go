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

package rotary

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerOrder(t *testing.T) {
	w := newWorker()
	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		w.run(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	w.stop()
	if len(got) != 100 {
		t.Fatalf("ran %d callbacks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran in slot %d", v, i)
		}
	}
}

// stop must run whatever has been queued before returning.
func TestWorkerStopDrains(t *testing.T) {
	w := newWorker()
	var count int32
	for i := 0; i < 3; i++ {
		w.run(func() {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&count, 1)
		})
	}
	w.stop()
	if n := atomic.LoadInt32(&count); n != 3 {
		t.Fatalf("stop returned with %d of 3 callbacks run", n)
	}
}

// All users of the global policy share one worker, and the last
// user out stops it.
func TestGlobalWorkerSharing(t *testing.T) {
	g1 := acquireGlobal()
	g2 := acquireGlobal()
	if g1.w != g2.w {
		t.Fatalf("global users got different workers")
	}
	var mu sync.Mutex
	var got []int
	add := func(n int) func() {
		return func() {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}
	}
	g1.run(add(1))
	g2.run(add(2))
	g1.run(add(3))
	g1.stop()
	// The worker must survive the first release.
	g2.run(add(4))
	g2.stop()
	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("ran %d callbacks, want %d", len(got), len(want))
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("got order %v, want %v", got, want)
		}
	}
	globalLock.Lock()
	users := globalUsers
	globalLock.Unlock()
	if users != 0 {
		t.Fatalf("%d global users left after release", users)
	}
}

func TestSpawnWaits(t *testing.T) {
	s := new(spawner)
	var count int32
	for i := 0; i < 10; i++ {
		s.run(func() {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&count, 1)
		})
	}
	s.stop()
	if n := atomic.LoadInt32(&count); n != 10 {
		t.Fatalf("stop returned with %d of 10 callbacks run", n)
	}
}

func TestInlineSynchronous(t *testing.T) {
	ran := false
	var d dispatcher = inline{}
	d.run(func() {
		ran = true
	})
	if !ran {
		t.Fatalf("inline callback did not run synchronously")
	}
	d.stop()
}

func TestDispatchNames(t *testing.T) {
	names := map[Dispatch]string{
		GlobalWorker:   "global",
		LocalWorker:    "local",
		SpawnPerCall:   "spawn",
		InlineOnNotify: "inline",
	}
	for d, want := range names {
		if d.String() != want {
			t.Fatalf("%d: name %s, want %s", int(d), d.String(), want)
		}
		got, err := dispatchMode(want)
		if err != nil || got != d {
			t.Fatalf("%s: parsed to %v, %v", want, got, err)
		}
	}
	if _, err := dispatchMode("nope"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}
