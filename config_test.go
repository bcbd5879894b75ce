package pgwire

import "testing"

func TestParseDSNBasic(t *testing.T) {
	cfg, err := ParseDSN("host=db.internal port=6543 user=alice dbname=app sslmode=require")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "db.internal" || cfg.Port != 6543 || cfg.Username != "alice" || cfg.Database != "app" {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.TLSMode != TLSRequire {
		t.Fatalf("TLSMode = %v, want TLSRequire", cfg.TLSMode)
	}
}

func TestParseDSNQuotedValue(t *testing.T) {
	cfg, err := ParseDSN(`host=localhost user='bob smith' dbname=app`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Username != "bob smith" {
		t.Fatalf("Username = %q, want %q", cfg.Username, "bob smith")
	}
}

func TestParseDSNDefaultsSslmode(t *testing.T) {
	cfg, err := ParseDSN("host=localhost user=bob dbname=app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TLSMode != TLSPrefer {
		t.Fatalf("TLSMode = %v, want TLSPrefer", cfg.TLSMode)
	}
}

func TestParseDSNRejectsUnknownSSLMode(t *testing.T) {
	if _, err := ParseDSN("host=localhost user=bob sslmode=bogus"); err == nil {
		t.Fatal("expected error for invalid sslmode")
	}
}

func TestParseDSNMissingEquals(t *testing.T) {
	if _, err := ParseDSN("host"); err == nil {
		t.Fatal("expected error for missing '='")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Host: "localhost", Username: "bob", Port: 5432}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Config{Username: "bob", Port: 5432}).Validate(); err == nil {
		t.Fatal("expected error for empty host")
	}
	if err := (Config{Host: "localhost", Port: 5432}).Validate(); err == nil {
		t.Fatal("expected error for empty username")
	}
}

func TestConfigValidateTLSClientCertNeedsKey(t *testing.T) {
	cfg := Config{
		Host: "localhost", Username: "bob", Port: 5432,
		TLSMode: TLSRequire, TLSClientCert: "client.crt",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for client cert without key")
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Host: "localhost", Username: "bob"}.WithDefaults()
	if cfg.Port != 5432 {
		t.Fatalf("Port = %d, want 5432", cfg.Port)
	}
	if cfg.Database != "bob" {
		t.Fatalf("Database = %q, want %q", cfg.Database, "bob")
	}
	if cfg.Timeout <= 0 {
		t.Fatal("expected a nonzero default timeout")
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: 5432}
	if cfg.Addr() != "db.internal:5432" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestConfigWithLogger(t *testing.T) {
	l := NewLogger(nil)
	cfg := Config{Host: "localhost", Username: "bob"}.WithLogger(l)
	if cfg.Logger == nil {
		t.Fatal("expected Logger to be set")
	}
}
