package protocol

// PSA fobs send a KeeLoq-style frame least significant bit first: a 32 bit
// hopping code, 28 bit serial, 4 bit button and 2 status bits. Peugeot
// prefixes the frame with a 12 bit all-ones marker.
var (
	Peugeot = psaDescriptor("Peugeot", 78, extractPeugeot, serializePeugeot)
	Citroen = psaDescriptor("Citroen", 66, extractCitroen, serializeCitroen)
)

const peugeotMarker = 0xFFF

func psaDescriptor(name string, bits int, extract func(Bits) (Code, bool), serialize func(Code) (Bits, error)) *Descriptor {
	return &Descriptor{
		Name:        name,
		Kind:        Rolling,
		Encoding:    PWM,
		TeShort:     370,
		TeLong:      772,
		Delta:       152,
		MinBits:     bits,
		MaxBits:     bits,
		Preamble:    Pair{370, 370},
		MinPreamble: 10,
		TxPreamble:  12,
		Sync:        []Symbol{{High: false, Width: 4400, Delta: 500}},
		Zero:        Pair{370, 772},
		One:         Pair{772, 370},
		EndGap:      772 * 3,
		Tail:        772 * 10,
		Repeat:      2,
		Extract:     extract,
		Serialize:   serialize,
	}
}

// keeloqFields reads the KeeLoq layout from LSB-first bits at offset.
func keeloqFields(r Bits, offset int) Code {
	return Code{
		Serial: uint32(r.Field(offset+32, 28)),
		Button: uint8(r.Field(offset+60, 4)),
		Extra: map[string]uint64{
			"hop":    r.Field(offset, 32),
			"status": r.Field(offset+64, 2),
		},
	}
}

func checkKeeloq(c Code) error {
	return checkFields(c, 0x0FFFFFFF, 0x0F, 0)
}

func putKeeloq(r *Bits, offset int, c Code) {
	r.SetField(offset, 32, c.Extra["hop"])
	r.SetField(offset+32, 28, uint64(c.Serial))
	r.SetField(offset+60, 4, uint64(c.Button))
	r.SetField(offset+64, 2, c.Extra["status"])
}

func extractCitroen(raw Bits) (Code, bool) {
	return keeloqFields(raw.Reverse(), 0), true
}

func serializeCitroen(c Code) (Bits, error) {
	if err := checkKeeloq(c); err != nil {
		return Bits{}, err
	}
	var r Bits
	putKeeloq(&r, 0, c)
	return r.Reverse(), nil
}

func extractPeugeot(raw Bits) (Code, bool) {
	r := raw.Reverse()
	if r.Field(0, 12) != peugeotMarker {
		return Code{}, false
	}
	return keeloqFields(r, 12), true
}

func serializePeugeot(c Code) (Bits, error) {
	if err := checkKeeloq(c); err != nil {
		return Bits{}, err
	}
	var r Bits
	r.SetField(0, 12, peugeotMarker)
	putKeeloq(&r, 12, c)
	return r.Reverse(), nil
}
