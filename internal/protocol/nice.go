package protocol

// NiceFlo is the 12/24 bit fixed code family, Came layout at 700/1400µs.
var NiceFlo = &Descriptor{
	Name:     "NiceFlo",
	Kind:     Fixed,
	Encoding: PWM,
	TeShort:  700,
	TeLong:   1400,
	Delta:    200,
	MinBits:  12,
	MaxBits:  24,
	Sync: []Symbol{
		{High: false, Width: 700 * 20, AtLeast: true, TxWidth: 700 * 36},
		{High: true, Width: 700},
	},
	LowFirst:  true,
	Zero:      Pair{700, 1400},
	One:       Pair{1400, 700},
	EndGap:    700 * 4,
	Tail:      700 * 8,
	Repeat:    4,
	Extract:   extractValue,
	Serialize: serializeData,
}

// NiceFlorS is the 52 bit rolling family. After the header gap a long
// high/low start pair precedes high/low data pairs.
var NiceFlorS = &Descriptor{
	Name:     "NiceFlorS",
	Kind:     Rolling,
	Encoding: PWM,
	TeShort:  500,
	TeLong:   1000,
	Delta:    300,
	MinBits:  52,
	MaxBits:  52,
	Sync: []Symbol{
		{High: false, Width: 500 * 30, AtLeast: true, TxWidth: 500 * 38},
		{High: true, Width: 500 * 3},
		{High: false, Width: 500 * 3},
	},
	Zero:      Pair{500, 1000},
	One:       Pair{1000, 500},
	EndGap:    500 * 5,
	Tail:      500 * 10,
	Repeat:    3,
	Extract:   extractValue,
	Serialize: serializeData,
}
