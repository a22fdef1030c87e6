// Package pulse holds the captured-signal data model and the pure analysis
// steps run on it: normalization, short/long classification and pause grouping.
// This package has NO external dependencies (no GPIO, radio, or clock).
package pulse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pulse is one timed electrical interval in microseconds.
// Positive values are high, negative values are low. Zero is never valid.
type Pulse int32

// High reports whether the pulse is a high interval.
func (p Pulse) High() bool {
	return p > 0
}

// Width returns the unsigned duration in microseconds.
func (p Pulse) Width() uint32 {
	if p < 0 {
		return uint32(-p)
	}
	return uint32(p)
}

// MaxWidth is the widest representable pulse.
const MaxWidth = math.MaxInt32

// Of builds a pulse from a level and width. Widths above MaxWidth saturate.
func Of(high bool, width uint32) Pulse {
	width = min(width, MaxWidth)
	if high {
		return Pulse(width)
	}
	return -Pulse(width)
}

// Signal is the ordered pulse sequence of one captured transmission.
type Signal []Pulse

// Train is a pause-delimited sub-sequence of a Signal. Pulses keep their sign.
type Train []Pulse

// Statistics holds the short/long/pause averages derived from a Signal.
type Statistics struct {
	ShortAvg uint32
	LongAvg  uint32
	PauseAvg uint32

	Shorts int
	Longs  int
	Pauses int
}

// Empty reports whether no pulse in the signal could be classified.
func (s Statistics) Empty() bool {
	return s.Shorts == 0 && s.Longs == 0
}

// Duration returns the total signal length in microseconds.
func (s Signal) Duration() uint64 {
	var total uint64
	for _, p := range s {
		total += uint64(p.Width())
	}
	return total
}

// Clone returns an independent copy.
func (s Signal) Clone() Signal {
	if s == nil {
		return nil
	}
	out := make(Signal, len(s))
	copy(out, s)
	return out
}

// String renders the signal as space separated signed durations.
func (s Signal) String() string {
	var b strings.Builder
	for i, p := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(p)))
	}
	return b.String()
}

// Parse reads signed durations separated by spaces or commas.
// An optional "RAW_Data:" prefix is accepted. Zero values are rejected.
func Parse(text string) (Signal, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, ":"); i >= 0 && strings.HasPrefix(strings.ToUpper(text), "RAW_DATA") {
		text = text[i+1:]
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	sig := make(Signal, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse pulse %q: %w", f, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("parse pulse %q: zero-length pulse", f)
		}
		sig = append(sig, Pulse(v))
	}
	return sig, nil
}
