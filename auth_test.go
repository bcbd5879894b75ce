package pgwire

import (
	"crypto/md5"
	"encoding/hex"
	"net"
	"testing"

	"github.com/wirepg/pgwire/internal/testserver"
	"github.com/wirepg/pgwire/internal/wire"
)

func TestMD5Hex(t *testing.T) {
	want := md5.Sum([]byte("hello"))
	if got := md5Hex("hello"); got != hex.EncodeToString(want[:]) {
		t.Fatalf("md5Hex(%q) = %q", "hello", got)
	}
}

// writeAuthRequest sends a raw AuthenticationRequest message with the given
// sub-code and payload, bypassing testserver.Server's trust-auth Startup
// helper so these tests can exercise authMD5/authSCRAM end to end.
func writeAuthRequest(cn net.Conn, code wire.AuthCode, extra []byte) {
	var w wire.Writer
	w.Int32(int32(code))
	w.Bytes(extra)
	buf := append([]byte{byte(wire.AuthenticationRequest)}, make([]byte, 4)...)
	payload := w.Payload()
	n := uint32(len(payload) + 4)
	buf[1], buf[2], buf[3], buf[4] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	buf = append(buf, payload...)
	cn.Write(buf)
}

func TestConnectWithMD5Auth(t *testing.T) {
	srv := testserver.New(t)
	salt := []byte{1, 2, 3, 4}
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		if _, ok := readStartupRaw(cn); !ok {
			return
		}
		writeAuthRequest(cn, wire.AuthMD5, salt)

		typ, payload, ok := srv.ReadMsg(cn)
		if !ok || wire.RequestType(typ) != wire.PasswordMessage {
			t.Errorf("expected PasswordMessage, got %v", typ)
			return
		}
		inner := md5Hex("secret" + "alice")
		want := "md5" + md5Hex(inner+string(salt)) + "\x00"
		if string(payload) != want {
			t.Errorf("got digest %q, want %q", payload, want)
		}

		writeAuthRequest(cn, wire.AuthOK, nil)
		srv.ReadyForQuery(cn)
	})

	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app", Password: "secret"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()
}

func TestConnectMD5AuthMissingPassword(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		if _, ok := readStartupRaw(cn); !ok {
			return
		}
		writeAuthRequest(cn, wire.AuthMD5, []byte{1, 2, 3, 4})
	})

	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	if _, err := Connect(cfg); err == nil {
		t.Fatal("expected KindMissingPassword error")
	}
}

func TestConnectSCRAMRejectsWhenMechanismNotOffered(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		if _, ok := readStartupRaw(cn); !ok {
			return
		}
		// advertise only a mechanism this package does not speak.
		writeAuthRequest(cn, wire.AuthSASL, []byte("SCRAM-SHA-1\x00\x00"))
	})

	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app", Password: "secret"}
	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("expected KindAuthenticationFailed error")
	}
	pgErr, ok := err.(*Error)
	if !ok || pgErr.Kind != KindAuthenticationFailed {
		t.Fatalf("got %v, want KindAuthenticationFailed", err)
	}
}

func readStartupRaw(cn net.Conn) ([]byte, bool) {
	hdr := make([]byte, 4)
	if _, err := cn.Read(hdr); err != nil {
		return nil, false
	}
	n := int(hdr[0])<<24 | int(hdr[1])<<16 | int(hdr[2])<<8 | int(hdr[3])
	body := make([]byte, n-4)
	if _, err := cn.Read(body); err != nil {
		return nil, false
	}
	return body, true
}
