package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrInvalidFormat is returned when a fixed-format field (a null-terminated
// string, a run of bytes of declared length) cannot be decoded from what
// remains of the buffer.
var ErrInvalidFormat = errors.New("wire: invalid message format")

// Reader reads fixed-width and length-prefixed fields out of a single
// message payload, in protocol byte order (big-endian).
type Reader []byte

func (r *Reader) Int32() int32 {
	n := int32(binary.BigEndian.Uint32(*r))
	*r = (*r)[4:]
	return n
}

func (r *Reader) Uint16() uint16 {
	n := binary.BigEndian.Uint16(*r)
	*r = (*r)[2:]
	return n
}

func (r *Reader) Int16() int {
	return int(r.Uint16())
}

func (r *Reader) Byte() byte {
	b := (*r)[0]
	*r = (*r)[1:]
	return b
}

// CString reads a null-terminated string, advancing past the terminator.
func (r *Reader) CString() (string, error) {
	i := bytes.IndexByte(*r, 0)
	if i < 0 {
		return "", ErrInvalidFormat
	}
	s := (*r)[:i]
	*r = (*r)[i+1:]
	return string(s), nil
}

// Bytes consumes and returns the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	v := (*r)[:n]
	*r = (*r)[n:]
	return v
}

func (r *Reader) Len() int { return len(*r) }

// Writer accumulates a single message payload (excluding the leading type
// byte and the i32 length prefix, which Framer.WriteMessage adds).
type Writer struct {
	buf []byte
}

func (w *Writer) Int32(n int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Int16(n int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(n))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// CString appends s followed by a null terminator.
func (w *Writer) CString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *Writer) Bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// LenPrefixed writes an i32 length (or -1 for nil) followed by the raw
// bytes — the shape of a Bind parameter or a DataRow column.
func (w *Writer) LenPrefixed(b []byte) {
	if b == nil {
		w.Int32(-1)
		return
	}
	w.Int32(int32(len(b)))
	w.Bytes(b)
}

// Payload returns the accumulated bytes.
func (w *Writer) Payload() []byte { return w.buf }

func (w *Writer) Reset() { w.buf = w.buf[:0] }
