package pgwire

import "testing"

func TestParamSQLLiteral(t *testing.T) {
	cases := []struct {
		p    Param
		want string
	}{
		{Null(), "NULL"},
		{String("O'Brien"), "'O''Brien'"},
		{Int(4, 42), "42"},
		{Float(8, 3.5), "3.5"},
		{Bool(true), "true"},
		{Bool(false), "false"},
	}
	for _, c := range cases {
		if got := c.p.sqlLiteral(); got != c.want {
			t.Errorf("sqlLiteral() = %q, want %q", got, c.want)
		}
	}
}

func TestParamWireFormat(t *testing.T) {
	if Null().wireFormat() != FormatText {
		t.Error("Null should use text format")
	}
	if String("x").wireFormat() != FormatBinary {
		t.Error("String should use binary format")
	}
}

func TestParamWireBytesInt(t *testing.T) {
	b := Int(4, 42).wireBytes()
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	var v int32
	for _, x := range b {
		v = v<<8 | int32(x)
	}
	if v != 42 {
		t.Fatalf("decoded = %d, want 42", v)
	}
}

func TestParamWireBytesNull(t *testing.T) {
	if b := Null().wireBytes(); b != nil {
		t.Fatalf("expected nil, got %v", b)
	}
}

func TestParamWireBytesBool(t *testing.T) {
	if b := Bool(true).wireBytes(); len(b) != 1 || b[0] != 1 {
		t.Fatalf("Bool(true).wireBytes() = %v", b)
	}
	if b := Bool(false).wireBytes(); len(b) != 1 || b[0] != 0 {
		t.Fatalf("Bool(false).wireBytes() = %v", b)
	}
}
