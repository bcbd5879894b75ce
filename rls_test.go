package pgwire

import "testing"

func TestValidateRLSKey(t *testing.T) {
	if err := validateRLSKey("app.current_user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateRLSKey(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := validateRLSKey("app; DROP TABLE users"); err == nil {
		t.Fatal("expected error for key with illegal characters")
	}
}

func TestBuildSessionStatementsSortedAndEscaped(t *testing.T) {
	stmts, err := buildSessionStatements(RLSContext{
		"app.tenant": "O'Brien",
		"app.user":   "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"SET SESSION app.tenant = 'O''Brien'",
		"SET SESSION app.user = 'alice'",
	}
	if len(stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(stmts), len(want))
	}
	for i := range want {
		if stmts[i] != want[i] {
			t.Errorf("stmts[%d] = %q, want %q", i, stmts[i], want[i])
		}
	}
}

func TestBuildSessionStatementsRejectsInvalidKey(t *testing.T) {
	if _, err := buildSessionStatements(RLSContext{"bad key": "x"}); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestResetSessionStatement(t *testing.T) {
	if resetSessionStatement() != "RESET ALL" {
		t.Fatalf("resetSessionStatement() = %q", resetSessionStatement())
	}
}
