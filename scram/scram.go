// Package scram implements the client side of the SCRAM-SHA-256 SASL
// mechanism PostgreSQL uses for password authentication (RFC 5802). It
// never sends the password itself over the wire: only nonces, a proof
// derived from a PBKDF2-stretched key, and a signature the server can
// verify independently.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/xdg-go/stringprep"
	"golang.org/x/crypto/pbkdf2"
)

// Mechanism is the SASL mechanism name this package speaks.
const Mechanism = "SCRAM-SHA-256"

// Session holds the state of one SCRAM-SHA-256 exchange. A Session is used
// once: FirstMessage, then ReceiveServerFirst, then ClientFinalMessage,
// then ReceiveServerFinal. No field is explicitly wiped; the state is
// released with the Session once it is no longer referenced.
type Session struct {
	user        string
	password    string
	clientNonce string
	serverNonce string
	salt        []byte
	iterations  int
	serverFirst string
	saltedPass  []byte
	authMessage []byte
}

// NewSession starts a SCRAM-SHA-256 session for the given username and
// password. The client nonce is 24 random bytes, base64-encoded, per
// spec §4.2 step 1.
func NewSession(user, password string) (*Session, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, fmt.Errorf("scram: generating client nonce: %w", err)
	}
	return &Session{user: user, password: password, clientNonce: nonce}, nil
}

func randomNonce() (string, error) {
	data := make([]byte, 24)
	if _, err := rand.Read(data); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// bareFirst returns the bare client-first-message ("n=<user>,r=<nonce>");
// FirstMessage prepends the GS2 header to it ("n,,<bare message>").
func (s *Session) bareFirst() string {
	return "n=" + s.user + ",r=" + s.clientNonce
}

// FirstMessage returns the full client-first-message, channel-binding
// header included, as sent in SASLInitialResponse.
func (s *Session) FirstMessage() string {
	return "n,,"+s.bareFirst()
}

// ReceiveServerFirst parses the server-first-message carried by
// AuthenticationSASLContinue: "r=<nonce>,s=<salt>,i=<iterations>". It fails
// if the server's nonce does not begin with the client's, per spec §4.2
// step 3.
func (s *Session) ReceiveServerFirst(raw []byte) error {
	msg := string(raw)
	parts := strings.Split(msg, ",")
	if len(parts) < 3 {
		return fmt.Errorf("scram: malformed server-first-message %q", msg)
	}
	var rPart, sPart, iPart string
	for _, p := range parts {
		switch {
		case strings.HasPrefix(p, "r="):
			rPart = p[2:]
		case strings.HasPrefix(p, "s="):
			sPart = p[2:]
		case strings.HasPrefix(p, "i="):
			iPart = p[2:]
		}
	}
	if rPart == "" || sPart == "" || iPart == "" {
		return fmt.Errorf("scram: server-first-message missing r/s/i: %q", msg)
	}
	if !strings.HasPrefix(rPart, s.clientNonce) || len(rPart) == len(s.clientNonce) {
		return fmt.Errorf("scram: server nonce does not extend client nonce")
	}
	salt, err := base64.StdEncoding.DecodeString(sPart)
	if err != nil {
		return fmt.Errorf("scram: invalid salt: %w", err)
	}
	iterations, err := strconv.Atoi(iPart)
	if err != nil || iterations <= 0 {
		return fmt.Errorf("scram: invalid iteration count %q", iPart)
	}

	s.serverNonce = rPart
	s.salt = salt
	s.iterations = iterations
	s.serverFirst = msg
	return nil
}

// ClientFinalMessage computes SaltedPassword/ClientKey/StoredKey/
// ClientSignature/ClientProof per spec §4.2 step 4 and returns the full
// client-final-message ("c=biws,r=<nonce>,p=<proof>").
func (s *Session) ClientFinalMessage() string {
	normalized, err := stringprep.SASLprep.Prepare(s.password)
	if err != nil {
		// PostgreSQL accepts passwords that don't fit the SASLprep profile;
		// fall back to the raw password rather than failing the handshake.
		normalized = s.password
	}

	s.saltedPass = pbkdf2.Key([]byte(normalized), s.salt, s.iterations, 32, sha256.New)

	withoutProof := "c=biws,r=" + s.serverNonce
	s.authMessage = []byte(s.bareFirst() + "," + s.serverFirst + "," + withoutProof)

	clientKey := hmacSum(s.saltedPass, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSig := hmacSum(storedKey[:], s.authMessage)

	proof := make([]byte, len(clientKey))
	for i := range proof {
		proof[i] = clientKey[i] ^ clientSig[i]
	}

	return fmt.Sprintf("%s,p=%s", withoutProof, base64.StdEncoding.EncodeToString(proof))
}

// ReceiveServerFinal verifies the server-final-message ("v=<signature>")
// against the independently computed ServerSignature, per spec §4.2 step 6.
func (s *Session) ReceiveServerFinal(raw []byte) error {
	msg := string(raw)
	if !strings.HasPrefix(msg, "v=") {
		return fmt.Errorf("scram: malformed server-final-message %q", msg)
	}
	got := msg[2:]

	serverKey := hmacSum(s.saltedPass, []byte("Server Key"))
	want := base64.StdEncoding.EncodeToString(hmacSum(serverKey, s.authMessage))

	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return fmt.Errorf("scram: server signature mismatch")
	}
	return nil
}

func hmacSum(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
