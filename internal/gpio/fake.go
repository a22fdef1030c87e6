package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// FakeEdgeSource is a test double driven synchronously by the test.
type FakeEdgeSource struct {
	mu      sync.Mutex
	handler EdgeHandler

	Starts int
	Stops  int
	Closed bool

	// StartError, if set, will be returned by Start().
	StartError error

	// OnStart, if set, runs after the handler is attached. Tests use it to
	// play a signal as soon as a capture arms.
	OnStart func(f *FakeEdgeSource)
}

// Start attaches h.
func (f *FakeEdgeSource) Start(h EdgeHandler) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.mu.Lock()
	if f.handler != nil {
		f.mu.Unlock()
		return errors.New("edge source already started")
	}
	f.handler = h
	f.Starts++
	onStart := f.OnStart
	f.mu.Unlock()
	if onStart != nil {
		onStart(f)
	}
	return nil
}

// Stop detaches the handler.
func (f *FakeEdgeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler != nil {
		f.Stops++
	}
	f.handler = nil
	return nil
}

// Close marks the source as closed.
func (f *FakeEdgeSource) Close() error {
	f.Stop()
	f.Closed = true
	return nil
}

// Attached reports whether a handler is registered.
func (f *FakeEdgeSource) Attached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}

// Edge delivers one edge. It reports false when no handler is attached.
func (f *FakeEdgeSource) Edge(micros uint64, high bool) bool {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(micros, high)
	return true
}

// Play delivers the edges that produce sig, starting at micros 0.
func (f *FakeEdgeSource) Play(sig pulse.Signal) {
	s := synth{h: func(micros uint64, high bool) { f.Edge(micros, high) }}
	for _, p := range sig {
		s.pulse(p)
	}
}

// PinChange is one recorded output transition.
type PinChange struct {
	Micros uint64
	High   bool
}

// FakePin records every Set call.
type FakePin struct {
	// Now, if set, timestamps each change.
	Now func() uint64

	Changes []PinChange
	Level   bool
	Closed  bool

	// SetError, if set, will be returned by Set().
	SetError error
}

// Set records the level.
func (p *FakePin) Set(high bool) error {
	if p.SetError != nil {
		return p.SetError
	}
	var at uint64
	if p.Now != nil {
		at = p.Now()
	}
	p.Changes = append(p.Changes, PinChange{Micros: at, High: high})
	p.Level = high
	return nil
}

// Close drives the pin low and marks it closed.
func (p *FakePin) Close() error {
	p.Level = false
	p.Closed = true
	return nil
}
