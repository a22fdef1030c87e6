package protocol

import (
	"errors"
	"fmt"

	"github.com/sweeney/rf-sniffer/internal/pulse"
)

// Encoding is the bit modulation scheme.
type Encoding int

const (
	// PWM carries each bit in the widths of one high/low pulse pair.
	PWM Encoding = iota
	// Manchester carries each bit in the direction of a mid-bit transition.
	Manchester
)

func (e Encoding) String() string {
	if e == Manchester {
		return "manchester"
	}
	return "pwm"
}

// Pair is the nominal widths of two consecutive pulses.
type Pair struct {
	First  uint32
	Second uint32
}

// Symbol is one expected header pulse.
type Symbol struct {
	High  bool
	Width uint32
	// Delta overrides the descriptor tolerance when non-zero.
	Delta uint32
	// AtLeast matches any pulse of at least Width.
	AtLeast bool
	// TxWidth is the transmitted width when it differs from Width.
	TxWidth uint32
}

func (s Symbol) match(high bool, w, delta uint32) bool {
	if high != s.High {
		return false
	}
	if s.AtLeast {
		return w >= s.Width
	}
	if s.Delta != 0 {
		delta = s.Delta
	}
	return near(w, s.Width, delta)
}

func (s Symbol) txWidth() uint32 {
	if s.TxWidth != 0 {
		return s.TxWidth
	}
	return s.Width
}

// Descriptor is the complete definition of one protocol.
type Descriptor struct {
	Name     string
	Kind     Kind
	Encoding Encoding

	TeShort uint32
	TeLong  uint32
	Delta   uint32

	MinBits int
	MaxBits int

	// Preamble is a repeating (high, low) pair. MinPreamble pairs must be
	// seen before the sync is accepted; zero means the frame opens with Sync.
	Preamble    Pair
	MinPreamble int
	TxPreamble  int

	// Sync symbols follow the preamble in order.
	Sync []Symbol

	// PWM: LowFirst pairs start with the low pulse.
	LowFirst bool
	Zero     Pair
	One      Pair

	// Manchester: Inverted swaps the high/low meaning of each half-bit.
	// StartBit is transmitted before the payload; its first half is the last
	// sync pulse.
	Inverted bool
	StartBit bool

	// EndGap is the shortest pulse that terminates a frame.
	EndGap uint32
	// Tail is the low gap sent after each frame; Repeat is frames per send.
	Tail   uint32
	Repeat int

	Extract   func(raw Bits) (Code, bool)
	Serialize func(c Code) (Bits, error)
}

func near(w, nominal, delta uint32) bool {
	if w > nominal {
		return w-nominal < delta
	}
	return nominal-w < delta
}

func (d *Descriptor) firstHigh() bool {
	return !d.LowFirst
}

// Validate checks that the descriptor can drive the decoder and modulator.
func (d *Descriptor) Validate() error {
	switch {
	case d.Name == "":
		return errors.New("descriptor: missing name")
	case d.TeShort == 0 || d.TeLong <= d.TeShort || d.Delta == 0:
		return fmt.Errorf("descriptor %s: invalid timings", d.Name)
	case d.MinBits <= 0 || d.MaxBits < d.MinBits || d.MaxBits > MaxBits:
		return fmt.Errorf("descriptor %s: invalid bit range %d..%d", d.Name, d.MinBits, d.MaxBits)
	case len(d.Sync) == 0:
		return fmt.Errorf("descriptor %s: missing sync", d.Name)
	case d.EndGap <= d.TeLong+d.Delta:
		return fmt.Errorf("descriptor %s: end gap overlaps data timing", d.Name)
	case d.Extract == nil || d.Serialize == nil:
		return fmt.Errorf("descriptor %s: missing extract or serialize", d.Name)
	}
	if d.Encoding == Manchester {
		last := d.Sync[len(d.Sync)-1]
		if last.High != (d.StartBit != d.Inverted) {
			return fmt.Errorf("descriptor %s: start bit does not open on the last sync level", d.Name)
		}
		if d.TeLong != 2*d.TeShort {
			return fmt.Errorf("descriptor %s: manchester long must be twice short", d.Name)
		}
	}
	return nil
}

// Decode runs one fresh decoder over pulses and returns the first frame.
func (d *Descriptor) Decode(pulses []pulse.Pulse) (Code, bool) {
	return d.run(newDecoder(d), pulses)
}

// DecodeTrain decodes one pause-delimited pulse train. The pause itself is
// not part of the train, so a descriptor whose sync opens with a header gap
// takes the delimiting pause as that gap.
func (d *Descriptor) DecodeTrain(train []pulse.Pulse) (Code, bool) {
	m := newDecoder(d)
	if s := d.Sync[0]; !s.High && s.AtLeast {
		m.Feed(false, s.Width)
	}
	return d.run(m, train)
}

func (d *Descriptor) run(m *decoder, pulses []pulse.Pulse) (Code, bool) {
	for _, p := range pulses {
		if p == 0 {
			continue
		}
		if c, ok := m.Feed(p.High(), p.Width()); ok {
			return c, true
		}
	}
	return m.Flush()
}

// Encode serializes c and modulates it into Repeat frames.
func (d *Descriptor) Encode(c Code) (pulse.Signal, error) {
	raw, err := d.Serialize(c)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", d.Name, err)
	}
	if raw.Len < d.MinBits || raw.Len > d.MaxBits {
		return nil, fmt.Errorf("serialize %s: %d bits outside %d..%d", d.Name, raw.Len, d.MinBits, d.MaxBits)
	}
	repeat := d.Repeat
	if repeat <= 0 {
		repeat = 1
	}
	return d.Modulate(raw, repeat), nil
}
