// Package testserver implements a minimal fake PostgreSQL backend for use in
// this module's own tests, adapted from the teacher's internal/pqtest.Fake:
// a net.Listener that a test drives by hand, reading frontend messages with
// ReadMsg and replying with WriteMsg/the SimpleQuery helper. It understands
// just enough of the wire protocol (startup, simple query, extended query)
// to exercise conn.go/dispatch.go/query_simple.go/query_extended.go without
// a real server.
package testserver

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/wirepg/pgwire/internal/wire"
)

// Server is a fake PostgreSQL server bound to a local TCP port.
type Server struct {
	l net.Listener
	t testing.TB
}

// New starts listening on 127.0.0.1 on an OS-assigned port.
func New(t testing.TB) *Server {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{l: l, t: t}
	t.Cleanup(func() { l.Close() })
	return s
}

// Host and Port split the listener address for use in a Config.
func (s *Server) Host() string {
	h, _, err := net.SplitHostPort(s.l.Addr().String())
	if err != nil {
		s.t.Fatal(err)
	}
	return h
}

func (s *Server) Port() uint16 {
	_, p, err := net.SplitHostPort(s.l.Addr().String())
	if err != nil {
		s.t.Fatal(err)
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		s.t.Fatal(err)
	}
	return uint16(n)
}

// Accept runs fun in its own goroutine for every incoming connection until
// the listener is closed.
func (s *Server) Accept(fun func(net.Conn)) {
	go func() {
		for {
			cn, err := s.l.Accept()
			if err != nil {
				return
			}
			go fun(cn)
		}
	}()
}

// Startup consumes the client's StartupMessage (ignoring its contents, this
// harness has no need to assert on them) and completes the handshake with a
// trust-style AuthenticationOK followed by ReadyForQuery.
func (s *Server) Startup(cn net.Conn) {
	if _, ok := s.readStartup(cn); !ok {
		return
	}
	s.WriteMsg(cn, wire.AuthenticationRequest, "\x00\x00\x00\x00")
	s.WriteMsg(cn, wire.ReadyForQuery, "I")
}

func (s *Server) readStartup(cn net.Conn) ([]byte, bool) {
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(cn, hdr); err != nil {
		return nil, false
	}
	n := binary.BigEndian.Uint32(hdr)
	body := make([]byte, int(n)-4)
	if _, err := io.ReadFull(cn, body); err != nil {
		return nil, false
	}
	return body, true
}

// ReadMsg reads one frontend message: its type byte and payload.
func (s *Server) ReadMsg(cn net.Conn) (byte, []byte, bool) {
	hdr := make([]byte, 5)
	if _, err := io.ReadFull(cn, hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, false
		}
		return 0, nil, false
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	body := make([]byte, int(n)-4)
	if _, err := io.ReadFull(cn, body); err != nil {
		return 0, nil, false
	}
	return hdr[0], body, true
}

// WriteMsg writes one backend message.
func (s *Server) WriteMsg(cn net.Conn, typ wire.ResponseType, payload string) {
	buf := make([]byte, 5, 5+len(payload))
	buf[0] = byte(typ)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)+4))
	buf = append(buf, payload...)
	if _, err := cn.Write(buf); err != nil {
		s.t.Error(err)
	}
}

// Row is a single (name, text value) pair used by SimpleQuery/ExtendedQuery.
type Row struct {
	Name, Value string
}

// SimpleQuery answers a simple-query round trip with a single data row and
// a command-complete tag. It mirrors the teacher's Fake.SimpleQuery but
// speaks this package's wire types instead of oid/proto.
func (s *Server) SimpleQuery(cn net.Conn, tag string, cols []Row) {
	s.writeRowDescription(cn, cols)
	s.writeDataRow(cn, cols)
	s.WriteMsg(cn, wire.CommandComplete, tag+"\x00")
}

// ExtendedQuery answers a Parse+Bind+Describe+Execute+Sync sequence with
// ParseComplete, BindComplete, RowDescription, DataRow, CommandComplete and
// ReadyForQuery, which is the sequence query_extended.go expects.
func (s *Server) ExtendedQuery(cn net.Conn, tag string, cols []Row) {
	s.WriteMsg(cn, wire.ParseComplete, "")
	s.WriteMsg(cn, wire.BindComplete, "")
	s.writeRowDescription(cn, cols)
	s.writeDataRow(cn, cols)
	s.WriteMsg(cn, wire.CommandComplete, tag+"\x00")
	s.WriteMsg(cn, wire.ReadyForQuery, "I")
}

func (s *Server) writeRowDescription(cn net.Conn, cols []Row) {
	b := make([]byte, 0, 64)
	b = binary.BigEndian.AppendUint16(b, uint16(len(cols)))
	for _, c := range cols {
		b = append(b, c.Name...)
		b = append(b, 0)
		b = append(b, 0, 0, 0, 0, 0, 0) // table oid, column attnum: unused
		b = binary.BigEndian.AppendUint32(b, 25) // text oid
		b = binary.BigEndian.AppendUint16(b, 0xffff)
		b = append(b, 0xff, 0xff, 0xff, 0xff)
		b = append(b, 0, 0) // format code: text
	}
	s.WriteMsg(cn, wire.RowDescription, string(b))
}

func (s *Server) writeDataRow(cn net.Conn, cols []Row) {
	b := make([]byte, 0, 64)
	b = binary.BigEndian.AppendUint16(b, uint16(len(cols)))
	for _, c := range cols {
		b = binary.BigEndian.AppendUint32(b, uint32(len(c.Value)))
		b = append(b, c.Value...)
	}
	s.WriteMsg(cn, wire.DataRow, string(b))
}

// ReadyForQuery writes a standalone ReadyForQuery(idle) message.
func (s *Server) ReadyForQuery(cn net.Conn) {
	s.WriteMsg(cn, wire.ReadyForQuery, "I")
}

// ErrorResponse writes a minimal ErrorResponse with severity/code/message
// fields, enough for dispatch.go's parsePostgresError to decode.
func (s *Server) ErrorResponse(cn net.Conn, severity, code, message string) {
	b := make([]byte, 0, 64)
	b = append(b, 'S')
	b = append(b, severity...)
	b = append(b, 0)
	b = append(b, 'C')
	b = append(b, code...)
	b = append(b, 0)
	b = append(b, 'M')
	b = append(b, message...)
	b = append(b, 0)
	b = append(b, 0)
	s.WriteMsg(cn, wire.ErrorResponse, string(b))
}
