package protocol

// FiatV0 fobs: a long run of short preamble pairs, one 800µs low sync and 71
// bits of inverted Manchester carrying a 32 bit hop, 32 bit fixed part and a
// 7 bit trailer.
var FiatV0 = &Descriptor{
	Name:        "FiatV0",
	Kind:        Rolling,
	Encoding:    Manchester,
	TeShort:     200,
	TeLong:      400,
	Delta:       100,
	MinBits:     71,
	MaxBits:     71,
	Preamble:    Pair{200, 200},
	MinPreamble: 75,
	TxPreamble:  80,
	Sync:        []Symbol{{High: false, Width: 800}},
	Inverted:    true,
	StartBit:    true,
	EndGap:      1600,
	Tail:        3200,
	Repeat:      2,
	Extract:     extractFiat,
	Serialize:   serializeFiat,
}

func extractFiat(raw Bits) (Code, bool) {
	return Code{
		Serial: uint32(raw.Field(7, 32)),
		Extra: map[string]uint64{
			"hop": raw.Field(39, 32),
			"end": raw.Field(0, 7),
		},
	}, true
}

func serializeFiat(c Code) (Bits, error) {
	if err := checkFields(c, 0xFFFFFFFF, 0, 0); err != nil {
		return Bits{}, err
	}
	var raw Bits
	raw.Append(c.Extra["hop"], 32)
	raw.Append(uint64(c.Serial), 32)
	raw.Append(c.Extra["end"], 7)
	return raw, nil
}
