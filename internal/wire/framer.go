package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxMessageLength bounds how large a single message payload the framer will
// allocate for, guarding against a corrupt or hostile length prefix.
const MaxMessageLength = 1 << 28 // 256 MiB

var (
	// ErrProtocol signals a framing violation: a length field under 4.
	ErrProtocol = errors.New("wire: message length field must be >= 4")
	// ErrMessageTooLarge signals a length field beyond MaxMessageLength.
	ErrMessageTooLarge = errors.New("wire: message exceeds maximum length")
)

// Framer reads and writes length-prefixed typed messages over a byte stream.
// It has no notion of TLS itself: callers attach a plain net.Conn or a
// *tls.Conn, both of which satisfy io.ReadWriter identically, so framing
// semantics never change across the upgrade (spec §4.1).
//
// The receive buffer starts small and grows to the high-water mark of the
// largest message seen on this connection, rather than the fixed 4 KiB
// stack buffer of the reference design — DataRows for wide or JSON-heavy
// result sets routinely exceed that.
type Framer struct {
	rw  io.ReadWriter
	hdr [5]byte
	buf []byte
}

// NewFramer wraps rw. The initial receive buffer is sized for the common
// case (a small DataRow or command tag) and grows as needed.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{rw: rw, buf: make([]byte, 4096)}
}

// SetTransport swaps the underlying stream, used when a plaintext connection
// is upgraded to TLS mid-handshake.
func (f *Framer) SetTransport(rw io.ReadWriter) {
	f.rw = rw
}

// WriteMessage emits one frontend message: a type byte (0 for the two
// untyped pre-startup messages), the payload, and an optional trailing NUL.
// Partial writes are retried internally; callers never see a short write.
func (f *Framer) WriteMessage(typ byte, payload []byte, trailingNull bool) error {
	extra := 0
	if trailingNull {
		extra = 1
	}
	length := 4 + len(payload) + extra

	out := make([]byte, 0, 1+length)
	if typ != 0 {
		out = append(out, typ)
	}
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(length))
	out = append(out, lb[:]...)
	out = append(out, payload...)
	if trailingNull {
		out = append(out, 0)
	}
	return f.writeAll(out)
}

// WriteMessages coalesces several frontend messages into a single write
// call. Extended-query pipelines (Bind+Execute+Sync) use this: issuing
// three separate writes on a socket without TCP_NODELAY measurably delays
// BindComplete on some servers (spec §9); one write call removes the gap
// regardless of whether Nagle's algorithm is in play.
func (f *Framer) WriteMessages(msgs ...struct {
	Type         byte
	Payload      []byte
	TrailingNull bool
}) error {
	var out []byte
	for _, m := range msgs {
		extra := 0
		if m.TrailingNull {
			extra = 1
		}
		length := 4 + len(m.Payload) + extra
		if m.Type != 0 {
			out = append(out, m.Type)
		}
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(length))
		out = append(out, lb[:]...)
		out = append(out, m.Payload...)
		if m.TrailingNull {
			out = append(out, 0)
		}
	}
	return f.writeAll(out)
}

func (f *Framer) writeAll(b []byte) error {
	for len(b) > 0 {
		n, err := f.rw.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// ReadMessage reads one backend message and returns its type byte and
// payload (a view into the framer's internal buffer — valid only until the
// next ReadMessage call). It returns the total byte count read, including
// the 5-byte header, per spec §4.1.
func (f *Framer) ReadMessage() (typ byte, payload []byte, total int, err error) {
	if _, err = io.ReadFull(f.rw, f.hdr[:]); err != nil {
		return 0, nil, 0, err
	}
	typ = f.hdr[0]
	length := int(binary.BigEndian.Uint32(f.hdr[1:]))
	if length < 4 {
		return 0, nil, 0, fmt.Errorf("%w: got %d", ErrProtocol, length)
	}
	if length > MaxMessageLength {
		return 0, nil, 0, fmt.Errorf("%w: got %d", ErrMessageTooLarge, length)
	}
	n := length - 4
	if cap(f.buf) < n {
		f.buf = make([]byte, n)
	}
	f.buf = f.buf[:n]
	if n > 0 {
		if _, err = io.ReadFull(f.rw, f.buf); err != nil {
			return 0, nil, 0, err
		}
	}
	return typ, f.buf, 5 + n, nil
}
