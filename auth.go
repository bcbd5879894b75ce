package pgwire

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/wirepg/pgwire/internal/wire"
	"github.com/wirepg/pgwire/scram"
)

// runAuth drives the authentication sub-protocol that follows the backend's
// first AuthenticationRequest message, per spec §4.2. code is the AuthCode
// just read off the wire; payload is whatever followed it (the MD5 salt,
// the list of SASL mechanisms, and so on). It returns once authentication
// has fully succeeded (AuthenticationOk observed) or panics an *Error via
// errorf/errorfCause, to be recovered by the caller's errRecover.
func (c *Conn) runAuth(code wire.AuthCode, payload []byte) {
	switch code {
	case wire.AuthOK:
		return
	case wire.AuthCleartext:
		c.authCleartext()
	case wire.AuthMD5:
		c.authMD5(payload)
	case wire.AuthSASL:
		c.authSCRAM(payload)
	case wire.AuthKerberosV5:
		if err := attemptKerberos(c.cfg); err != nil {
			panic(err)
		}
	case wire.AuthGSS, wire.AuthGSSContinue:
		errorf(KindGSSAPINotSupported, "server requested GSSAPI authentication")
	case wire.AuthSSPI:
		if err := attemptSSPI(c.cfg); err != nil {
			panic(err)
		}
	case wire.AuthSCMCredential:
		errorf(KindSCMNotSupported, "server requested SCM credential authentication")
	default:
		errorf(KindUnknownAuthMethod, "unrecognized authentication method %d", code)
	}

	c.waitForAuthOK()
}

// authCleartext sends the password as-is, per spec §4.2 "Cleartext
// password". Used only over an already-TLS-protected connection in
// practice; this package does not second-guess the caller's TLSMode
// choice.
func (c *Conn) authCleartext() {
	if c.cfg.Password == "" {
		errorf(KindMissingPassword, "server requested password authentication but no password was configured")
	}
	var w wire.Writer
	w.CString(c.cfg.Password)
	if err := c.framer.WriteMessage(byte(wire.PasswordMessage), w.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending cleartext password")
	}
}

// authMD5 computes the PostgreSQL-specific double MD5 digest
// ("md5" + md5(md5(password+user)+salt)) and sends it as a PasswordMessage,
// per spec §4.2 "MD5 password".
func (c *Conn) authMD5(salt []byte) {
	if c.cfg.Password == "" {
		errorf(KindMissingPassword, "server requested password authentication but no password was configured")
	}
	if len(salt) != 4 {
		errorf(KindInvalidServerResponse, "MD5 auth request carried a %d-byte salt, want 4", len(salt))
	}

	inner := md5Hex(c.cfg.Password + c.cfg.Username)
	outer := "md5" + md5Hex(inner+string(salt))

	var w wire.Writer
	w.CString(outer)
	if err := c.framer.WriteMessage(byte(wire.PasswordMessage), w.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending MD5 password")
	}
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// parseSASLMechanisms reads the null-terminated list of SASL mechanism
// names out of an AuthenticationSASL payload, stopping at the list's empty
// C-string terminator.
func parseSASLMechanisms(payload []byte) []string {
	r := wire.Reader(payload)
	var mechanisms []string
	for {
		s, err := r.CString()
		if err != nil || s == "" {
			break
		}
		mechanisms = append(mechanisms, s)
	}
	return mechanisms
}

func hasMechanism(mechanisms []string, want string) bool {
	for _, m := range mechanisms {
		if m == want {
			return true
		}
	}
	return false
}

// authSCRAM drives the SCRAM-SHA-256 SASL exchange described in spec §4.2.
// payload is the server's list of supported SASL mechanisms from the
// initial AuthenticationSASL message; this package only ever offers
// SCRAM-SHA-256, and fails outright if the server didn't advertise it.
func (c *Conn) authSCRAM(payload []byte) {
	if c.cfg.Password == "" {
		errorf(KindMissingPassword, "server requested SASL authentication but no password was configured")
	}

	mechanisms := parseSASLMechanisms(payload)
	if !hasMechanism(mechanisms, scram.Mechanism) {
		errorf(KindAuthenticationFailed, "server does not offer %s (advertised: %v)", scram.Mechanism, mechanisms)
	}

	sess, err := scram.NewSession(c.cfg.Username, c.cfg.Password)
	if err != nil {
		errorfCause(KindAuthenticationFailed, err, "starting SCRAM session")
	}

	first := sess.FirstMessage()
	var w wire.Writer
	w.CString(scram.Mechanism)
	w.Int32(int32(len(first)))
	w.Bytes([]byte(first))
	if err := c.framer.WriteMessage(byte(wire.SASLInitialResponse), w.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending SASL initial response")
	}

	typ, rPayload := c.readAuthMessage()
	if wire.AuthCode(int32FromBytes(rPayload[:4])) != wire.AuthSASLContinue {
		errorf(KindInvalidServerResponse, "expected AuthenticationSASLContinue, got backend message %q", typ)
	}
	if err := sess.ReceiveServerFirst(rPayload[4:]); err != nil {
		errorfCause(KindAuthenticationFailed, err, "processing server-first-message")
	}

	final := sess.ClientFinalMessage()
	var w2 wire.Writer
	w2.Bytes([]byte(final))
	if err := c.framer.WriteMessage(byte(wire.SASLResponse), w2.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending SASL response")
	}

	typ, rPayload = c.readAuthMessage()
	if wire.AuthCode(int32FromBytes(rPayload[:4])) != wire.AuthSASLFinal {
		errorf(KindInvalidServerResponse, "expected AuthenticationSASLFinal, got backend message %q", typ)
	}
	if err := sess.ReceiveServerFinal(rPayload[4:]); err != nil {
		errorfCause(KindServerSignatureMismatch, err, "verifying server signature")
	}
}

// readAuthMessage reads the next backend message, requiring it to be an
// AuthenticationRequest, and returns its type byte and raw payload.
func (c *Conn) readAuthMessage() (byte, []byte) {
	typ, payload, _, err := c.framer.ReadMessage()
	if err != nil {
		errorfCause(KindUnexpectedEOF, err, "reading authentication message")
	}
	if wire.ResponseType(typ) != wire.AuthenticationRequest {
		errorf(KindInvalidServerResponse, "expected AuthenticationRequest, got %q", typ)
	}
	return typ, append([]byte(nil), payload...)
}

// waitForAuthOK consumes backend messages until AuthenticationOk arrives,
// since some mechanisms (SASL) end with an extra round trip the caller does
// not otherwise need to see.
func (c *Conn) waitForAuthOK() {
	typ, payload := c.readAuthMessage()
	if wire.AuthCode(int32FromBytes(payload[:4])) != wire.AuthOK {
		errorf(KindAuthenticationFailed, "authentication did not conclude with AuthenticationOk (got backend message %q)", typ)
	}
}

func int32FromBytes(b []byte) int32 {
	return int32(b[0])<<24 | int32(b[1])<<16 | int32(b[2])<<8 | int32(b[3])
}
