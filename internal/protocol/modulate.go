package protocol

import "github.com/sweeney/rf-sniffer/internal/pulse"

// Modulate renders raw bits as repeat frames of preamble, sync, data and tail.
// Adjacent same-level pulses are merged, so Manchester half-bits collapse into
// long pulses and a low tail absorbs a trailing low half.
func (d *Descriptor) Modulate(raw Bits, repeat int) pulse.Signal {
	var out pulse.Signal
	for r := 0; r < repeat; r++ {
		out = d.appendFrame(out, raw)
		if d.Tail > 0 {
			out = append(out, pulse.Of(false, d.Tail))
		}
	}
	return pulse.MergeAdjacentSameSign(out)
}

func (d *Descriptor) appendFrame(out pulse.Signal, raw Bits) pulse.Signal {
	for i := 0; i < d.TxPreamble; i++ {
		out = append(out, pulse.Of(true, d.Preamble.First), pulse.Of(false, d.Preamble.Second))
	}
	// A low sync after the preamble is preceded by the high half of one more pair.
	if d.TxPreamble > 0 && !d.Sync[0].High {
		out = append(out, pulse.Of(true, d.Preamble.First))
	}
	for _, s := range d.Sync {
		out = append(out, pulse.Of(s.High, s.txWidth()))
	}

	if d.Encoding == Manchester {
		return d.appendManchester(out, raw)
	}
	for i := 0; i < raw.Len; i++ {
		p := d.Zero
		if raw.At(i) {
			p = d.One
		}
		first := d.firstHigh()
		out = append(out, pulse.Of(first, p.First), pulse.Of(!first, p.Second))
	}
	return out
}

func (d *Descriptor) appendManchester(out pulse.Signal, raw Bits) pulse.Signal {
	halves := make([]bool, 0, 2*(raw.Len+1))
	add := func(bit bool) {
		first := bit != d.Inverted
		halves = append(halves, first, !first)
	}
	add(d.StartBit)
	for i := 0; i < raw.Len; i++ {
		add(raw.At(i))
	}
	// The first half of the start bit is the last sync pulse.
	for _, high := range halves[1:] {
		out = append(out, pulse.Of(high, d.TeShort))
	}
	return out
}
