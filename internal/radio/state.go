package radio

import (
	"errors"
	"fmt"
	"sync"
)

// Mode is the session lifecycle position.
type Mode int

const (
	Idle Mode = iota
	Receiving
	Analyzing
	Decoded
	Unrecognized
	Transmitting
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "IDLE"
	case Receiving:
		return "RECEIVING"
	case Analyzing:
		return "ANALYZING"
	case Decoded:
		return "DECODED"
	case Unrecognized:
		return "UNRECOGNIZED"
	case Transmitting:
		return "TRANSMITTING"
	}
	return "UNKNOWN"
}

// ErrIllegalTransition is wrapped by State.Transition on a refused move.
var ErrIllegalTransition = errors.New("illegal mode transition")

// ErrBusy is returned when channel parameters change mid-session.
var ErrBusy = errors.New("radio busy")

var legal = map[Mode][]Mode{
	Idle:         {Receiving, Transmitting},
	Receiving:    {Analyzing, Idle},
	Analyzing:    {Decoded, Unrecognized, Idle},
	Decoded:      {Idle, Receiving},
	Unrecognized: {Idle, Receiving},
	Transmitting: {Idle},
}

// State is the session mode and channel. The zero value is not usable; call
// NewState.
type State struct {
	mu     sync.Mutex
	mode   Mode
	params Params
}

// NewState returns an idle session on p.
func NewState(p Params) *State {
	return &State{mode: Idle, params: p}
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Params returns the current channel.
func (s *State) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams changes the channel. Only allowed while the radio is not keyed.
func (s *State) SetParams(p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Receiving || s.mode == Transmitting {
		return fmt.Errorf("set params in %s: %w", s.mode, ErrBusy)
	}
	s.params = p
	return nil
}

// Transition moves to mode to, or returns an error wrapping
// ErrIllegalTransition and leaves the mode unchanged.
func (s *State) Transition(to Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range legal[s.mode] {
		if m == to {
			s.mode = to
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", s.mode, to, ErrIllegalTransition)
}
