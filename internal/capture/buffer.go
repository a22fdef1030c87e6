// Package capture turns receiver edges into a Signal. A Buffer is filled from
// the edge source goroutine; a Session decides when a capture is complete
// and hands the pulses to the foreground.
package capture

import (
	"sync/atomic"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Buffer defaults.
const (
	DefaultCapacity   = 4096
	DefaultNoiseFloor = 100   // µs
	DefaultRunaway    = 40000 // µs
)

// snapshotRetries bounds Snapshot when the producer keeps clearing.
const snapshotRetries = 8

// Buffer is a single-producer single-consumer pulse buffer. OnEdge runs on
// the producer; every other method is foreground. Slots are atomics so a
// reader racing a clear sees stale values, never torn ones, and discards
// them on an epoch change.
type Buffer struct {
	noiseFloor uint32
	runaway    uint32

	slots    []atomic.Int32
	n        atomic.Int32
	epoch    atomic.Uint32
	overflow atomic.Bool

	// producer only
	last   uint64
	primed bool
}

// NewBuffer allocates a buffer. Zero arguments take the defaults.
func NewBuffer(capacity int, noiseFloor, runaway uint32) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if noiseFloor == 0 {
		noiseFloor = DefaultNoiseFloor
	}
	if runaway == 0 {
		runaway = DefaultRunaway
	}
	return &Buffer{
		noiseFloor: noiseFloor,
		runaway:    runaway,
		slots:      make([]atomic.Int32, capacity),
	}
}

// OnEdge records the pulse that ended at micros. high is the level after the
// edge, so the completed pulse had the opposite level. It never allocates.
func (b *Buffer) OnEdge(micros uint64, high bool) {
	if !b.primed {
		b.primed = true
		b.last = micros
		return
	}
	var d uint64
	if micros > b.last {
		d = micros - b.last
	}
	b.last = micros

	if d > uint64(b.runaway) {
		b.clear()
		return
	}
	if d < uint64(b.noiseFloor) {
		return
	}
	n := b.n.Load()
	if int(n) >= len(b.slots) {
		b.overflow.Store(true)
		return
	}
	b.slots[n].Store(int32(pulse.Of(!high, uint32(d))))
	b.n.Store(n + 1)
}

func (b *Buffer) clear() {
	b.epoch.Add(1)
	b.n.Store(0)
	b.overflow.Store(false)
}

// Len is the number of pulses held.
func (b *Buffer) Len() int {
	return int(b.n.Load())
}

// Cap is the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.slots)
}

// Epoch counts runaway clears since the last Reset.
func (b *Buffer) Epoch() uint32 {
	return b.epoch.Load()
}

// Overflowed reports that an edge of the current transmission was dropped
// because the buffer was full.
func (b *Buffer) Overflowed() bool {
	return b.overflow.Load()
}

// Snapshot copies the held pulses. It returns nil if the producer cleared
// the buffer during every attempt.
func (b *Buffer) Snapshot() pulse.Signal {
	for i := 0; i < snapshotRetries; i++ {
		e := b.epoch.Load()
		n := int(b.n.Load())
		out := make(pulse.Signal, n)
		for j := range out {
			out[j] = pulse.Pulse(b.slots[j].Load())
		}
		if b.epoch.Load() == e {
			return out
		}
	}
	return nil
}

// Reset empties the buffer. The producer must be detached.
func (b *Buffer) Reset() {
	b.n.Store(0)
	b.epoch.Store(0)
	b.overflow.Store(false)
	b.primed = false
	b.last = 0
}
