// Package kernel implements the discrete-event simulation kernel:
// a single-threaded cooperative loop driving a virtual clock forward
// in timestamp order over a priority queue of (time, seq, callback)
// triples (spec §4.1).
//
// The priority queue itself is grounded on the teacher's
// container/heap-based event queue in driver/batch.go, generalized
// from a bus-arrival-only queue into a generic callback scheduler.
package kernel

import (
	"container/heap"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Callback is scheduled work fired by the kernel at a given virtual time.
type Callback func(now time.Time)

// Handle identifies a previously scheduled callback, for Cancel.
type Handle uint64

type entry struct {
	t        time.Time
	seq      uint64
	handle   Handle
	cb       Callback
	canceled bool
}

type eventQueue []*entry

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].t.Equal(q[j].t) {
		return q[i].seq < q[j].seq
	}
	return q[i].t.Before(q[j].t)
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Kernel owns virtual time and the event queue exclusively (spec §3's
// ownership rule). It is not safe for concurrent use: all mutation
// happens between callback invocations, single-threaded, cooperative.
type Kernel struct {
	clock clockwork.FakeClock
	queue eventQueue
	seq   uint64
	byHandle map[Handle]*entry
	nextHandle Handle
	rng   *rand.Rand
}

// New constructs a kernel with virtual time starting at start and a
// deterministic random source seeded with seed. Per spec §4.1, the
// kernel "must accept a deterministic random source as input" — every
// stochastic draw made by components wired to this kernel should come
// from Kernel.RNG() so that identical seeds reproduce identical traces.
func New(start time.Time, seed int64) *Kernel {
	return &Kernel{
		clock:    clockwork.NewFakeClockAt(start),
		byHandle: make(map[Handle]*entry),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Now returns the current virtual time.
func (k *Kernel) Now() time.Time { return k.clock.Now() }

// RNG returns the kernel's shared deterministic random source. Every
// stochastic component (generator, dispatcher) should draw from this
// single source, never create its own (spec §9).
func (k *Kernel) RNG() *rand.Rand { return k.rng }

// Schedule enqueues cb to fire at Now()+delay. delay must be >= 0.
func (k *Kernel) Schedule(delay time.Duration, cb Callback) (Handle, error) {
	if delay < 0 {
		return 0, errors.Errorf("kernel: schedule delay must be >= 0, got %s", delay)
	}
	return k.ScheduleAt(k.Now().Add(delay), cb)
}

// ScheduleAt enqueues cb to fire at t. t must be >= Now().
func (k *Kernel) ScheduleAt(t time.Time, cb Callback) (Handle, error) {
	if t.Before(k.Now()) {
		return 0, errors.Errorf("kernel: schedule_at time %s is before now %s", t, k.Now())
	}
	k.seq++
	k.nextHandle++
	e := &entry{t: t, seq: k.seq, handle: k.nextHandle, cb: cb}
	heap.Push(&k.queue, e)
	k.byHandle[e.handle] = e
	return e.handle, nil
}

// Cancel marks a scheduled callback as canceled. It is idempotent: a
// cancelled callback is skipped when dequeued, and cancelling an
// already-fired or already-cancelled handle is a no-op.
func (k *Kernel) Cancel(h Handle) {
	if e, ok := k.byHandle[h]; ok {
		e.canceled = true
		delete(k.byHandle, h)
	}
}

// RunUntil dequeues and fires callbacks with time <= tEnd, in
// (time, seq) order. A callback may schedule further callbacks, which
// may themselves fire within this same RunUntil call if their time is
// <= tEnd. When the queue is empty or the next event's time exceeds
// tEnd, Now is advanced to tEnd and RunUntil returns.
func (k *Kernel) RunUntil(tEnd time.Time) {
	for k.queue.Len() > 0 {
		next := k.queue[0]
		if next.t.After(tEnd) {
			break
		}
		e := heap.Pop(&k.queue).(*entry)
		delete(k.byHandle, e.handle)
		if e.canceled {
			continue
		}
		k.clock.Advance(e.t.Sub(k.clock.Now()))
		e.cb(k.clock.Now())
	}
	if k.clock.Now().Before(tEnd) {
		k.clock.Advance(tEnd.Sub(k.clock.Now()))
	}
}

// Pending returns the number of callbacks currently queued (including
// any already cancelled but not yet dequeued).
func (k *Kernel) Pending() int { return k.queue.Len() }
