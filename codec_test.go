package pgwire

import "testing"

func TestIntCodecNullDecodesZero(t *testing.T) {
	var dst int32 = 7
	c := IntCodec[int32]{Dst: &dst}
	if err := c.DecodeText(nil, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != 0 {
		t.Fatalf("dst = %d, want 0", dst)
	}
}

func TestIntCodecInvalid(t *testing.T) {
	var dst int
	c := IntCodec[int]{Dst: &dst}
	if err := c.DecodeText([]byte("not a number"), false); err == nil {
		t.Fatal("expected error for invalid integer")
	}
}

func TestBoolCodec(t *testing.T) {
	cases := map[string]bool{"t": true, "TRUE": true, "1": true, "f": false, "FALSE": false, "0": false}
	for in, want := range cases {
		var dst bool
		c := BoolCodec{Dst: &dst}
		if err := c.DecodeText([]byte(in), false); err != nil {
			t.Fatalf("DecodeText(%q): %v", in, err)
		}
		if dst != want {
			t.Fatalf("DecodeText(%q) = %v, want %v", in, dst, want)
		}
	}
}

func TestBoolCodecInvalid(t *testing.T) {
	var dst bool
	c := BoolCodec{Dst: &dst}
	if err := c.DecodeText([]byte("maybe"), false); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestStringCodecCap(t *testing.T) {
	var dst string
	c := StringCodec{Dst: &dst, MaxLen: 4}
	if err := c.DecodeText([]byte("hello"), false); err == nil {
		t.Fatal("expected StringTooLong error")
	}
	if err := c.DecodeText([]byte("hi"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != "hi" {
		t.Fatalf("dst = %q, want %q", dst, "hi")
	}
}

func TestCharCodecPads(t *testing.T) {
	var dst string
	c := CharCodec{Dst: &dst, N: 5}
	if err := c.DecodeText([]byte("ab"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != "ab   " {
		t.Fatalf("dst = %q, want %q", dst, "ab   ")
	}
}

func TestCharCodecOverflow(t *testing.T) {
	var dst string
	c := CharCodec{Dst: &dst, N: 2}
	if err := c.DecodeText([]byte("abc"), false); err == nil {
		t.Fatal("expected StringTooLong error")
	}
}

type status string

func TestEnumCodec(t *testing.T) {
	var dst status
	c := EnumCodec[status]{Dst: &dst, Values: map[string]status{"active": "active", "banned": "banned"}}
	if err := c.DecodeText([]byte("active"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != "active" {
		t.Fatalf("dst = %q, want active", dst)
	}
	if err := c.DecodeText([]byte("unknown"), false); err == nil {
		t.Fatal("expected InvalidEnum error")
	}
}

func TestSplitArrayLiteral(t *testing.T) {
	toks, err := splitArrayLiteral([]byte(`{1,NULL,"three, with comma","quo\"te"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	if string(toks[0].data) != "1" {
		t.Fatalf("toks[0] = %q, want 1", toks[0].data)
	}
	if !toks[1].isNull {
		t.Fatal("toks[1] should be NULL")
	}
	if string(toks[2].data) != "three, with comma" {
		t.Fatalf("toks[2] = %q", toks[2].data)
	}
	if string(toks[3].data) != `quo"te` {
		t.Fatalf("toks[3] = %q", toks[3].data)
	}
}

func TestSplitArrayLiteralRequiresBraces(t *testing.T) {
	if _, err := splitArrayLiteral([]byte("1,2,3")); err == nil {
		t.Fatal("expected InvalidArrayFormat error")
	}
}

func TestArrayCodecFixedLen(t *testing.T) {
	var dst []int32
	c := ArrayCodec[int32]{
		Dst: &dst,
		Inner: func(raw []byte, isNull bool) (int32, error) {
			var v int32
			ic := IntCodec[int32]{Dst: &v}
			return v, ic.DecodeText(raw, isNull)
		},
		FixedLen: 2,
	}
	if err := c.DecodeText([]byte("{1,2,3}"), false); err == nil {
		t.Fatal("expected ArrayLengthMismatch error")
	}
	if err := c.DecodeText([]byte("{1,2}"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dst) != 2 || dst[0] != 1 || dst[1] != 2 {
		t.Fatalf("dst = %v, want [1 2]", dst)
	}
}

func TestClockCodecParsesTime(t *testing.T) {
	var c Clock
	codec := ClockCodec{Dst: &c}
	if err := codec.DecodeText([]byte("13:45:09"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Hour != 13 || c.Minute != 45 || c.Second != 9 {
		t.Fatalf("got %+v", c)
	}
}
