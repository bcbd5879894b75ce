package pgwire

import (
	"strconv"
	"strings"
)

// ParamKind distinguishes the small set of bind-parameter shapes the
// Extended and Simple query facades accept (spec §4.4 "Parameter binding").
type ParamKind int

const (
	ParamNull ParamKind = iota
	ParamString
	ParamInt
	ParamFloat
	ParamBool
)

// ParamFormat matches the wire protocol's format-code convention: 0 is
// text, 1 is binary (spec §4.4 Bind message layout).
type ParamFormat int16

const (
	FormatText   ParamFormat = 0
	FormatBinary ParamFormat = 1
)

// Param is a single bound query parameter. It is constructed through one of
// the Null/String/Int/Float/Bool functions below rather than built
// directly, so that IntSize/FloatSize stay consistent with the value they
// describe.
type Param struct {
	kind      ParamKind
	strVal    string
	intVal    int64
	intSize   int // 2, 4, or 8 bytes
	floatVal  float64
	floatSize int // 4 or 8 bytes
	boolVal   bool
}

// Null returns a parameter that binds to SQL NULL.
func Null() Param { return Param{kind: ParamNull} }

// String returns a text parameter.
func String(s string) Param { return Param{kind: ParamString, strVal: s} }

// Int returns an integer parameter of the given width in bytes (2, 4, or 8).
func Int(size int, v int64) Param { return Param{kind: ParamInt, intVal: v, intSize: size} }

// Float returns a floating-point parameter of the given width in bytes (4 or 8).
func Float(size int, v float64) Param { return Param{kind: ParamFloat, floatVal: v, floatSize: size} }

// Bool returns a boolean parameter.
func Bool(v bool) Param { return Param{kind: ParamBool, boolVal: v} }

// wireFormat reports the format code this parameter will be sent with in a
// Bind message. Every kind other than ParamNull is sent in binary; NULL has
// no format-dependent payload so text is as good as any.
func (p Param) wireFormat() ParamFormat {
	if p.kind == ParamNull {
		return FormatText
	}
	return FormatBinary
}

// wireBytes returns the binary Bind-parameter payload, or nil for a NULL
// parameter (the Bind message encodes NULL as a -1 length prefix, written
// by the caller, not by this method).
func (p Param) wireBytes() []byte {
	switch p.kind {
	case ParamNull:
		return nil
	case ParamString:
		return []byte(p.strVal)
	case ParamInt:
		size := p.intSize
		if size == 0 {
			size = 4
		}
		buf := make([]byte, size)
		putBigEndianInt(buf, p.intVal)
		return buf
	case ParamFloat:
		size := p.floatSize
		if size == 0 {
			size = 8
		}
		return floatBits(p.floatVal, size)
	case ParamBool:
		if p.boolVal {
			return []byte{1}
		}
		return []byte{0}
	default:
		return nil
	}
}

// sqlLiteral renders the parameter as a literal SQL token suitable for
// substitution into a Simple-query EXECUTE statement (spec §4.4 scenario:
// "EXECUTE q (Int(4,42))" renders as "EXECUTE q (42)"). Strings are
// single-quoted with embedded quotes doubled, matching PostgreSQL's own
// literal-escaping convention.
func (p Param) sqlLiteral() string {
	switch p.kind {
	case ParamNull:
		return "NULL"
	case ParamString:
		return "'" + strings.ReplaceAll(p.strVal, "'", "''") + "'"
	case ParamInt:
		return strconv.FormatInt(p.intVal, 10)
	case ParamFloat:
		bits := 64
		if p.floatSize == 4 {
			bits = 32
		}
		return strconv.FormatFloat(p.floatVal, 'g', -1, bits)
	case ParamBool:
		if p.boolVal {
			return "true"
		}
		return "false"
	default:
		return "NULL"
	}
}
