package pgwire

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"

	"github.com/wirepg/pgwire/internal/pqutil"
	"github.com/wirepg/pgwire/internal/wire"
)

// negotiateTLS implements the SSLRequest handshake of spec §4.3 step 1: an
// 8-byte SSLRequest packet is sent ahead of the startup message, and the
// server's single-byte reply ('S' or 'N') decides whether the connection
// upgrades to TLS before continuing. Grounded on the teacher's ssl.go,
// trimmed to the three TLSMode values this package's Config exposes
// (disable/prefer/require); verify-ca/verify-full are the teacher's, not
// this package's — spec §6 only names the three above, so the finer
// verification levels are left to a future Config addition rather than
// invented here.
func negotiateTLS(conn net.Conn, cfg Config) (net.Conn, error) {
	if cfg.TLSMode == TLSDisable {
		return conn, nil
	}

	req := make([]byte, 0, 8)
	req = appendInt32(req, 8)
	req = appendInt32(req, wire.SSLRequestCode)
	if _, err := conn.Write(req); err != nil {
		return nil, wrapErr(KindUnexpectedEOF, err, "writing SSLRequest")
	}

	resp := make([]byte, 1)
	if _, err := readFull(conn, resp); err != nil {
		return nil, wrapErr(KindInvalidTLSResponse, err, "reading SSLRequest response")
	}

	switch resp[0] {
	case 'N':
		if cfg.TLSMode == TLSRequire {
			return nil, newErr(KindTLSRequiredButNotSupported, "server does not support TLS")
		}
		return conn, nil
	case 'S':
		tlsCfg, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		tc := tls.Client(conn, tlsCfg)
		if err := tc.Handshake(); err != nil {
			return nil, wrapErr(KindInvalidTLSResponse, err, "TLS handshake")
		}
		return tc, nil
	default:
		return nil, newErr(KindInvalidTLSResponse, "unexpected SSLRequest response byte %q", resp[0])
	}
}

func appendInt32(b []byte, v int32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// buildTLSConfig assembles a *tls.Config from Config's CA/client-cert
// fields, mirroring the teacher's ssl.go file-loading approach.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}

	if cfg.TLSCAFile != "" {
		pemBytes, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, wrapErr(KindInvalidTLSResponse, err, "reading CA file %s", cfg.TLSCAFile)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, newErr(KindInvalidTLSResponse, "no certificates found in %s", cfg.TLSCAFile)
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.TLSClientCert != "" {
		if err := pqutil.SSLKeyPermissions(cfg.TLSClientKey); err != nil {
			return nil, wrapErr(KindInvalidTLSResponse, err, "checking client key permissions")
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLSClientCert, cfg.TLSClientKey)
		if err != nil {
			return nil, wrapErr(KindInvalidTLSResponse, err, "loading client certificate")
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}
