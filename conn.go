package pgwire

import (
	"net"
	"sync"

	"github.com/wirepg/pgwire/internal/wire"
)

// connState tracks a Conn's lifecycle, replacing the teacher's looser
// "assume good unless the last read failed" tracking with an explicit enum
// (spec §9 Design Notes, connState guidance) so a pool can cheaply tell a
// connection it must not reuse from one still mid-transaction.
type connState int

const (
	stateConnecting connState = iota
	stateIdle
	stateInTransaction
	stateInFailedTransaction
	stateError
	stateClosed
)

// preparedStatement records how a name was last registered through either
// query facade, so Extended's idempotent prepare and Simple's EXECUTE can
// both consult the same registry (spec §4.4 "Statement registry").
type preparedStatement struct {
	verb string
	sql  string
}

// Conn is a single PostgreSQL backend connection speaking protocol 3.0. It
// is not safe for concurrent use by multiple goroutines — Pool is what
// provides concurrency safety, by handing out exactly one *Conn per
// in-flight query (spec §5).
type Conn struct {
	cfg    Config
	net    net.Conn
	framer *wire.Framer
	logger Logger

	mu    sync.Mutex
	state connState

	backendPID int32
	backendKey int32
	params     map[string]string

	statements map[string]preparedStatement
}

// Connect dials cfg.Addr(), negotiates TLS per cfg.TLSMode, sends the
// startup message, drives authentication, and blocks until the server's
// first ReadyForQuery — the full sequence of spec §4.3.
func Connect(cfg Config) (conn *Conn, err error) {
	defer errRecover(&err)

	cfg = cfg.WithDefaults()
	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}

	raw, dialErr := net.Dial("tcp", cfg.Addr())
	if dialErr != nil {
		return nil, wrapErr(KindConnectionFailed, dialErr, "dialing %s", cfg.Addr())
	}

	transport, tlsErr := negotiateTLS(raw, cfg)
	if tlsErr != nil {
		raw.Close()
		return nil, tlsErr
	}

	c := &Conn{
		cfg:        cfg,
		net:        raw,
		framer:     wire.NewFramer(transport),
		logger:     loggerOrDefault(cfg.Logger),
		state:      stateConnecting,
		params:     make(map[string]string),
		statements: make(map[string]preparedStatement),
	}

	c.sendStartup()
	c.runStartupSequence()

	c.state = stateIdle
	return c, nil
}

// sendStartup writes the StartupMessage (spec §4.3 step 2): protocol
// version followed by "user"/"database" keyword pairs and a trailing NUL.
func (c *Conn) sendStartup() {
	var w wire.Writer
	w.Int32(wire.ProtocolVersion30)
	w.CString("user")
	w.CString(c.cfg.Username)
	w.CString("database")
	w.CString(c.cfg.Database)
	w.Byte(0)

	if err := c.framer.WriteMessage(0, w.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending StartupMessage")
	}
}

// runStartupSequence reads the first AuthenticationRequest, drives
// authentication to completion, then drains ParameterStatus/
// BackendKeyData/NoticeResponse messages until ReadyForQuery (spec §4.3
// steps 3-4).
func (c *Conn) runStartupSequence() {
	typ, payload, _, err := c.framer.ReadMessage()
	if err != nil {
		errorfCause(KindUnexpectedEOF, err, "reading first authentication message")
	}
	if wire.ResponseType(typ) != wire.AuthenticationRequest {
		if wire.ResponseType(typ) == wire.ErrorResponse {
			panic(parsePostgresError(payload))
		}
		errorf(KindInvalidServerResponse, "expected AuthenticationRequest, got %q", typ)
	}
	code := wire.AuthCode(int32FromBytes(payload[:4]))
	c.runAuth(code, append([]byte(nil), payload[4:]...))

	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			errorfCause(KindUnexpectedEOF, err, "reading startup message")
		}
		switch wire.ResponseType(typ) {
		case wire.ParameterStatus:
			r := wire.Reader(payload)
			name, _ := r.CString()
			val, _ := r.CString()
			c.params[name] = val
		case wire.BackendKeyData:
			r := wire.Reader(payload)
			c.backendPID = r.Int32()
			c.backendKey = r.Int32()
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ReadyForQuery:
			return
		case wire.ErrorResponse:
			panic(parsePostgresError(payload))
		default:
			errorf(KindProtocolError, "unexpected message %q during startup", typ)
		}
	}
}

// Close sends Terminate and closes the underlying socket. It is safe to
// call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return nil
	}
	_ = c.framer.WriteMessage(byte(wire.Terminate), nil, false)
	c.state = stateClosed
	return c.net.Close()
}

// IsAlive reports whether the connection is usable for another query —
// false once a fatal protocol or I/O error has put it into stateError, or
// once it has been closed (spec §5 "Health checking").
func (c *Conn) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateError && c.state != stateClosed
}

func (c *Conn) markError() {
	c.mu.Lock()
	c.state = stateError
	c.mu.Unlock()
}

func (c *Conn) setState(s connState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
