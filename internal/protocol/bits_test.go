package protocol

import "testing"

func TestBitsAppendAndField(t *testing.T) {
	var b Bits
	b.Append(0xABC, 12)
	if b.Len != 12 {
		t.Fatalf("Len: got %d, want 12", b.Len)
	}
	if b.Uint64() != 0xABC {
		t.Errorf("value: got 0x%X, want 0xABC", b.Uint64())
	}
	if !b.At(0) || b.At(1) {
		t.Errorf("first bits: got %v %v, want true false", b.At(0), b.At(1))
	}
	if got := b.Field(0, 4); got != 0xC {
		t.Errorf("Field(0,4): got 0x%X, want 0xC", got)
	}
	if got := b.Field(8, 4); got != 0xA {
		t.Errorf("Field(8,4): got 0x%X, want 0xA", got)
	}
}

func TestBitsWide(t *testing.T) {
	var b Bits
	b.SetField(0, 12, 0xFFF)
	b.SetField(70, 8, 0xA5)
	if b.Len != 78 {
		t.Fatalf("Len: got %d, want 78", b.Len)
	}
	if got := b.Field(70, 8); got != 0xA5 {
		t.Errorf("Field(70,8): got 0x%X, want 0xA5", got)
	}
	if got := b.Field(60, 16); got != 0x9400 {
		t.Errorf("Field(60,16): got 0x%X, want 0x9400", got)
	}
	if b.Hi != 0xA5<<6 {
		t.Errorf("Hi: got 0x%X, want 0x%X", b.Hi, 0xA5<<6)
	}

	// Pushing past 64 bits carries into the high word.
	var p Bits
	p.Append(1, 1)
	p.Append(0, 64)
	if p.Hi != 1 || p.Lo != 0 || p.Len != 65 {
		t.Errorf("carry: got %+v", p)
	}
}

func TestBitsReverseAndInvert(t *testing.T) {
	b := FromUint64(0xD, 4) // 1101
	if got := b.Reverse().Uint64(); got != 0xB {
		t.Errorf("Reverse: got 0x%X, want 0xB", got)
	}
	if got := FromUint64(0xA, 4).Invert().Uint64(); got != 0x5 {
		t.Errorf("Invert: got 0x%X, want 0x5", got)
	}
	if got := FromUint64(0x1FF, 4).Uint64(); got != 0xF {
		t.Errorf("FromUint64 mask: got 0x%X, want 0xF", got)
	}
}

func TestBitsBytes(t *testing.T) {
	got := FromUint64(0xABC, 12).Bytes()
	if len(got) != 2 || got[0] != 0x0A || got[1] != 0xBC {
		t.Errorf("got % X, want 0A BC", got)
	}
	got = FromUint64(0x0102030405060708, 64).Bytes()
	for i, v := range got {
		if v != byte(i+1) {
			t.Fatalf("byte %d: got 0x%X, want 0x%X", i, v, i+1)
		}
	}
}

func TestBitsString(t *testing.T) {
	if got := FromUint64(0xABC, 12).String(); got != "ABC" {
		t.Errorf("got %q, want ABC", got)
	}
	b := Bits{Hi: 1, Lo: 2, Len: 66}
	if got := b.String(); got != "10000000000000002" {
		t.Errorf("got %q, want 10000000000000002", got)
	}
}

func TestParseBits(t *testing.T) {
	b, err := ParseBits("0xABC", 12)
	if err != nil {
		t.Fatalf("ParseBits: %v", err)
	}
	if b.Uint64() != 0xABC || b.Len != 12 {
		t.Errorf("got %+v", b)
	}

	b, err = ParseBits("3FFF0000000000000001", 78)
	if err != nil {
		t.Fatalf("ParseBits wide: %v", err)
	}
	if b.Hi != 0x3FFF || b.Lo != 1 {
		t.Errorf("wide: got %+v", b)
	}

	for _, tc := range []struct {
		in string
		n  int
	}{
		{"", 12},
		{"zz", 8},
		{"1FFF", 12},
		{"1", 0},
		{"1", 129},
	} {
		if _, err := ParseBits(tc.in, tc.n); err == nil {
			t.Errorf("ParseBits(%q, %d): expected error", tc.in, tc.n)
		}
	}
}
