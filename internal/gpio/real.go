//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealEdgeSource watches a receiver data line for both edges. Event
// timestamps come from the kernel, so durations are unaffected by
// scheduling delay in the handler.
type RealEdgeSource struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	offset int
	line   *gpiocdev.Line
}

// NewRealEdgeSource opens chipName for watching line offset.
func NewRealEdgeSource(chipName string, offset int) (*RealEdgeSource, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealEdgeSource{chip: chip, offset: offset}, nil
}

// Start requests the line with edge detection and attaches h.
func (s *RealEdgeSource) Start(h EdgeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.line != nil {
		return errors.New("edge source already started")
	}
	line, err := s.chip.RequestLine(s.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			h(uint64(evt.Timestamp/time.Microsecond), evt.Type == gpiocdev.LineEventRisingEdge)
		}))
	if err != nil {
		return fmt.Errorf("request rx pin %d: %w", s.offset, err)
	}
	s.line = line
	return nil
}

// Stop releases the line, which ends event delivery.
func (s *RealEdgeSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.line == nil {
		return nil
	}
	err := s.line.Close()
	s.line = nil
	if err != nil {
		return fmt.Errorf("close rx pin: %w", err)
	}
	return nil
}

// Close stops watching and closes the chip.
func (s *RealEdgeSource) Close() error {
	var errs []error
	if err := s.Stop(); err != nil {
		errs = append(errs, err)
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealPin drives the transmitter data line.
type RealPin struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealPin requests offset as an output, initially low.
func NewRealPin(chipName string, offset int) (*RealPin, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request tx pin %d: %w", offset, err)
	}
	return &RealPin{chip: chip, line: line}, nil
}

// Set drives the line.
func (p *RealPin) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return p.line.SetValue(v)
}

// Close drives the line low, then returns it to an input with pull-down
// (the Pi boot default) so the transmitter cannot be left keyed.
func (p *RealPin) Close() error {
	var errs []error

	if p.line != nil {
		if err := p.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive tx pin low: %w", err))
		}
		if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure tx pin: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tx pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
