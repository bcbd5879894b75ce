package pgwire

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/wirepg/pgwire/internal/pgpass"
	"github.com/wirepg/pgwire/internal/pqutil"
)

// TLSMode selects whether and how the connection negotiates TLS before the
// startup handshake (spec §4.3 step 1).
type TLSMode int

const (
	TLSDisable TLSMode = iota
	TLSPrefer
	TLSRequire
)

func (m TLSMode) String() string {
	switch m {
	case TLSDisable:
		return "disable"
	case TLSPrefer:
		return "prefer"
	case TLSRequire:
		return "require"
	default:
		return "unknown"
	}
}

// Config describes how to reach and authenticate against a PostgreSQL
// server. WithDefaults fills in the optional fields it lists; TLSMode is not
// one of them, so a Config built by hand uses TLSDisable (the zero value)
// unless TLSMode is set, while ParseDSN uses TLSPrefer when the string has
// no sslmode.
type Config struct {
	Host     string
	Port     uint16
	Username string
	Database string // defaults to Username
	Password string

	TLSMode       TLSMode
	TLSCAFile     string
	TLSClientCert string
	TLSClientKey  string

	// PassFile, if set, names a libpq-style .pgpass file to consult when
	// Password is empty; an empty PassFile falls back to ~/.pgpass.
	PassFile string

	// Timeout is the default connection pool acquisition timeout.
	Timeout time.Duration

	// Logger receives NoticeResponse and pool-warning log lines through the
	// Logger seam. A nil Logger (the zero value) discards them; call
	// WithLogger or set the field directly to observe them.
	Logger Logger
}

// WithLogger returns a copy of c with Logger set to l.
func (c Config) WithLogger(l Logger) Config {
	c.Logger = l
	return c
}

// WithDefaults returns a copy of c with every zero-valued optional field
// filled in: Username from the OS user if empty, Port 5432, Database equal
// to Username, Password looked up from a .pgpass file if empty, and a 10
// second acquisition timeout.
func (c Config) WithDefaults() Config {
	if c.Username == "" {
		if u, err := pqutil.User(); err == nil {
			c.Username = u
		}
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Database == "" {
		c.Database = c.Username
	}
	if c.Password == "" {
		c.Password = pgpass.Lookup(c.Host, c.Port, c.Database, c.Username, c.PassFile)
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Validate checks the required fields and the TLS client-cert/key pairing
// invariant from spec §6/§7.
func (c Config) Validate() error {
	if c.Host == "" {
		return newErr(KindEmptyHost, "host must not be empty")
	}
	if c.Username == "" {
		return newErr(KindEmptyUsername, "username must not be empty")
	}
	if c.Port == 0 {
		return newErr(KindInvalidPort, "port must not be zero")
	}
	if c.TLSMode == TLSRequire && c.TLSClientCert != "" && c.TLSClientKey == "" {
		return newErr(KindTLSClientCertNeedsKey, "tls_client_cert given without tls_client_key")
	}
	return nil
}

// Addr returns the "host:port" dial address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseDSN parses a libpq-style keyword/value connection string
// ("host=localhost port=5432 user=alice dbname=app sslmode=require") into a
// Config. This mirrors the teacher's own `parseOpts`/scanner approach
// (conn.go) rather than a URL scheme, since the spec's configuration
// surface is keyword-based, not a single "postgres://" URL.
func ParseDSN(dsn string) (Config, error) {
	values := make(map[string]string)
	if err := scanKeywordValues(dsn, values); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:          values["host"],
		Username:      values["user"],
		Database:      values["dbname"],
		Password:      values["password"],
		TLSCAFile:     values["sslrootcert"],
		TLSClientCert: values["sslcert"],
		TLSClientKey:  values["sslkey"],
	}
	if p := values["port"]; p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Config{}, newErr(KindInvalidPort, "invalid port %q", p)
		}
		cfg.Port = uint16(n)
	}
	switch values["sslmode"] {
	case "", "prefer":
		cfg.TLSMode = TLSPrefer
	case "require", "verify-ca", "verify-full":
		cfg.TLSMode = TLSRequire
	case "disable":
		cfg.TLSMode = TLSDisable
	default:
		return Config{}, newErr(KindInvalidTLSResponse, "unsupported sslmode %q", values["sslmode"])
	}
	if t := values["timeout"]; t != "" {
		ms, err := strconv.Atoi(t)
		if err != nil {
			return Config{}, newErr(KindInvalidPort, "invalid timeout %q", t)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg.WithDefaults(), nil
}

// scanKeywordValues implements the same whitespace/quote scanning rules as
// the teacher's parseOpts: "key=value" pairs separated by whitespace,
// values optionally single-quoted with backslash escaping.
func scanKeywordValues(s string, out map[string]string) error {
	runes := []rune(s)
	i := 0
	skipSpace := func() {
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
	}

	for {
		skipSpace()
		if i >= len(runes) {
			return nil
		}

		start := i
		for i < len(runes) && runes[i] != '=' && !unicode.IsSpace(runes[i]) {
			i++
		}
		key := string(runes[start:i])
		skipSpace()
		if i >= len(runes) || runes[i] != '=' {
			return fmt.Errorf(`pgwire: missing "=" after %q in connection string`, key)
		}
		i++ // consume '='
		skipSpace()

		var val strings.Builder
		if i < len(runes) && runes[i] == '\'' {
			i++
			for {
				if i >= len(runes) {
					return fmt.Errorf("pgwire: unterminated quoted value for %q", key)
				}
				r := runes[i]
				if r == '\\' && i+1 < len(runes) {
					i++
					val.WriteRune(runes[i])
					i++
					continue
				}
				if r == '\'' {
					i++
					break
				}
				val.WriteRune(r)
				i++
			}
		} else {
			for i < len(runes) && !unicode.IsSpace(runes[i]) {
				val.WriteRune(runes[i])
				i++
			}
		}
		out[key] = val.String()
	}
}
