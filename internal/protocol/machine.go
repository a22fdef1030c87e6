package protocol

// step is the decoder position within a frame.
type step int

const (
	stepReset step = iota
	stepPreamble
	stepSync
	stepSave  // PWM: waiting for the first pulse of a pair
	stepCheck // PWM: waiting for the second pulse of a pair
	stepManchester
)

// manState is the Manchester sub-machine position.
type manState int

const (
	manMid1 manState = iota
	manMid0
	manStart1
	manStart0
)

// advance consumes one half-bit event. emit reports that bit is complete;
// ok is false on an invalid transition.
func (s *manState) advance(high, long bool) (bit, emit, ok bool) {
	switch *s {
	case manMid0, manMid1:
		if long {
			return false, false, false
		}
		if high {
			*s = manStart1
		} else {
			*s = manStart0
		}
		return false, false, true
	case manStart1:
		if high {
			return false, false, false
		}
		if long {
			*s = manStart0
		} else {
			*s = manMid1
		}
		return true, true, true
	case manStart0:
		if !high {
			return false, false, false
		}
		if long {
			*s = manStart1
		} else {
			*s = manMid0
		}
		return false, true, true
	}
	return false, false, false
}

// pending reports the bit whose first half has been seen but not its second.
func (s manState) pending() (bit, ok bool) {
	switch s {
	case manStart1:
		return true, true
	case manStart0:
		return false, true
	}
	return false, false
}

// decoder is one protocol's frame state machine. It is fed one pulse at a
// time and returns to stepReset after every success or failure.
type decoder struct {
	d *Descriptor

	step    step
	pairs   int  // preamble pairs seen
	wantLow bool // preamble: next pulse is the low half
	sync    int  // next sync symbol
	teLast  uint32
	bits    Bits
	man     manState
	skip    int // Manchester bits to drop before the payload
}

func newDecoder(d *Descriptor) *decoder {
	return &decoder{d: d}
}

func (m *decoder) reset() {
	*m = decoder{d: m.d}
}

// restart abandons the current frame and re-examines the pulse as a new start.
func (m *decoder) restart(high bool, w uint32) {
	m.reset()
	m.begin(high, w)
}

func (m *decoder) begin(high bool, w uint32) {
	d := m.d
	if d.MinPreamble > 0 {
		if high && near(w, d.Preamble.First, d.Delta) {
			m.step = stepPreamble
			m.wantLow = true
		}
		return
	}
	if d.Sync[0].match(high, w, d.Delta) {
		m.syncMatched()
	}
}

func (m *decoder) syncMatched() {
	m.sync++
	if m.sync < len(m.d.Sync) {
		m.step = stepSync
		return
	}
	m.bits = Bits{}
	if m.d.Encoding == Manchester {
		m.step = stepManchester
		if m.d.StartBit {
			m.man = manStart1
		} else {
			m.man = manStart0
		}
		m.skip = 1
		return
	}
	m.step = stepSave
}

// Feed consumes one pulse and reports a completed frame.
func (m *decoder) Feed(high bool, w uint32) (Code, bool) {
	d := m.d
	switch m.step {
	case stepReset:
		m.begin(high, w)

	case stepPreamble:
		if m.wantLow && !high && near(w, d.Preamble.Second, d.Delta) {
			m.pairs++
			m.wantLow = false
			return Code{}, false
		}
		if !m.wantLow && high && near(w, d.Preamble.First, d.Delta) {
			m.wantLow = true
			return Code{}, false
		}
		if m.pairs >= d.MinPreamble && d.Sync[0].match(high, w, d.Delta) {
			m.syncMatched()
			return Code{}, false
		}
		m.restart(high, w)

	case stepSync:
		if d.Sync[m.sync].match(high, w, d.Delta) {
			m.syncMatched()
			return Code{}, false
		}
		m.restart(high, w)

	case stepSave:
		if w >= d.EndGap {
			return m.end(high, w)
		}
		if high != d.firstHigh() {
			m.restart(high, w)
			return Code{}, false
		}
		m.teLast = w
		m.step = stepCheck

	case stepCheck:
		if w >= d.EndGap {
			return m.end(high, w)
		}
		if high == d.firstHigh() {
			m.restart(high, w)
			return Code{}, false
		}
		switch {
		case near(m.teLast, d.Zero.First, d.Delta) && near(w, d.Zero.Second, d.Delta):
			m.bits.Push(false)
		case near(m.teLast, d.One.First, d.Delta) && near(w, d.One.Second, d.Delta):
			m.bits.Push(true)
		default:
			m.restart(high, w)
			return Code{}, false
		}
		m.step = stepSave
		if m.bits.Len == d.MaxBits {
			return m.full()
		}

	case stepManchester:
		if w >= d.EndGap {
			return m.end(high, w)
		}
		short := near(w, d.TeShort, d.Delta)
		long := near(w, d.TeLong, d.Delta)
		if !short && !long {
			m.restart(high, w)
			return Code{}, false
		}
		bit, emit, ok := m.man.advance(high != d.Inverted, long)
		if !ok {
			m.restart(high, w)
			return Code{}, false
		}
		if emit {
			if m.skip > 0 {
				m.skip--
			} else {
				m.bits.Push(bit)
			}
		}
		if m.bits.Len == d.MaxBits {
			return m.full()
		}
	}
	return Code{}, false
}

// full completes a frame that reached MaxBits without waiting for the gap.
func (m *decoder) full() (Code, bool) {
	c, ok := m.extract()
	m.reset()
	return c, ok
}

// Flush signals end of input and completes a frame in progress.
func (m *decoder) Flush() (Code, bool) {
	c, ok := m.complete()
	m.reset()
	return c, ok
}

// end handles a terminating pulse, then lets it open the next frame.
func (m *decoder) end(high bool, w uint32) (Code, bool) {
	c, ok := m.complete()
	m.restart(high, w)
	return c, ok
}

// complete closes the frame. A terminating gap swallows the second half of
// the last bit, so a half-seen bit is resolved from what was observed.
func (m *decoder) complete() (Code, bool) {
	d := m.d
	switch m.step {
	case stepCheck:
		zero := near(m.teLast, d.Zero.First, d.Delta)
		one := near(m.teLast, d.One.First, d.Delta)
		if zero != one {
			m.bits.Push(one)
		}
	case stepManchester:
		if bit, ok := m.man.pending(); ok && m.skip == 0 {
			m.bits.Push(bit)
		}
	case stepSave:
	default:
		return Code{}, false
	}
	return m.extract()
}

func (m *decoder) extract() (Code, bool) {
	d := m.d
	raw := m.bits
	if raw.Len < d.MinBits || raw.Len > d.MaxBits {
		return Code{}, false
	}
	c, ok := d.Extract(raw)
	if !ok {
		return Code{}, false
	}
	c.Protocol = d.Name
	c.Kind = d.Kind
	c.BitCount = raw.Len
	c.Data = raw
	return c, true
}
