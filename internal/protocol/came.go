package protocol

import "errors"

// Came gate remotes: 12 or 24 bit fixed codes. Frames open with a long low
// header and a short high start bit; each bit is a low/high pair where a long
// low followed by a short high is a one.
var Came = &Descriptor{
	Name:     "Came",
	Kind:     Fixed,
	Encoding: PWM,
	TeShort:  320,
	TeLong:   640,
	Delta:    150,
	MinBits:  12,
	MaxBits:  24,
	Sync: []Symbol{
		{High: false, Width: 320 * 30, AtLeast: true, TxWidth: 320 * 47},
		{High: true, Width: 320},
	},
	LowFirst:  true,
	Zero:      Pair{320, 640},
	One:       Pair{640, 320},
	EndGap:    320 * 4,
	Tail:      320 * 8,
	Repeat:    4,
	Extract:   extractValue,
	Serialize: serializeData,
}

// CameTwee uses the Came pair layout with slower timing and 54 bits.
var CameTwee = &Descriptor{
	Name:     "CameTwee",
	Kind:     Fixed,
	Encoding: PWM,
	TeShort:  500,
	TeLong:   1000,
	Delta:    250,
	MinBits:  54,
	MaxBits:  54,
	Sync: []Symbol{
		{High: false, Width: 1000 * 15, AtLeast: true, TxWidth: 1000 * 20},
		{High: true, Width: 500},
	},
	LowFirst:  true,
	Zero:      Pair{500, 1000},
	One:       Pair{1000, 500},
	EndGap:    1000 * 4,
	Tail:      1000 * 8,
	Repeat:    3,
	Extract:   extractValue,
	Serialize: serializeData,
}

// CameAtomo is a 62 bit rolling code sent as Came-style low/high pairs.
var CameAtomo = &Descriptor{
	Name:     "CameAtomo",
	Kind:     Rolling,
	Encoding: PWM,
	TeShort:  600,
	TeLong:   1200,
	Delta:    250,
	MinBits:  62,
	MaxBits:  62,
	Sync: []Symbol{
		{High: false, Width: 1200 * 15, AtLeast: true, TxWidth: 1200 * 20},
		{High: true, Width: 600},
	},
	LowFirst:  true,
	Zero:      Pair{600, 1200},
	One:       Pair{1200, 600},
	EndGap:    1200 * 4,
	Tail:      1200 * 8,
	Repeat:    3,
	Extract:   extractValue,
	Serialize: serializeData,
}

// extractValue accepts any frame of valid length; the value is the raw data.
func extractValue(Bits) (Code, bool) {
	return Code{}, true
}

func serializeData(c Code) (Bits, error) {
	if err := checkFields(c, 0, 0, 0); err != nil {
		return Bits{}, err
	}
	if c.Data.Len == 0 {
		return Bits{}, errors.New("missing data")
	}
	return c.Data, nil
}
