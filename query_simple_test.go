package pgwire

import (
	"net"
	"testing"

	"github.com/wirepg/pgwire/internal/testserver"
	"github.com/wirepg/pgwire/internal/wire"
)

type simpleUser struct {
	Name string
	Age  int32
}

func (u *simpleUser) PGFields() []Field {
	return []Field{
		{Name: "name", Codec: StringCodec{Dst: &u.Name, MaxLen: DefaultStringCap}},
		{Name: "age", Codec: IntCodec[int32]{Dst: &u.Age}},
	}
}

func TestSimpleSelectDecodesRows(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		srv.Startup(cn)
		if _, _, ok := srv.ReadMsg(cn); !ok {
			return
		}
		srv.SimpleQuery(cn, "SELECT 1", []testserver.Row{
			{Name: "name", Value: "alice"},
			{Name: "age", Value: "30"},
		})
		srv.ReadyForQuery(cn)
	})

	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	result, err := SimpleSelect[simpleUser, *simpleUser](c, "SELECT name, age FROM users")
	if err != nil {
		t.Fatalf("SimpleSelect: %v", err)
	}
	if result.Kind != ResultSelect {
		t.Fatalf("Kind = %v, want ResultSelect", result.Kind)
	}
	if len(result.Rows) != 1 || result.Rows[0].Name != "alice" || result.Rows[0].Age != 30 {
		t.Fatalf("got %+v", result.Rows)
	}
}

func TestSimpleSelectRejectsNonSelectVerb(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		srv.Startup(cn)
	})
	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if _, err := SimpleSelect[simpleUser, *simpleUser](c, "DELETE FROM users"); err == nil {
		t.Fatal("expected KindNotASelectQuery error")
	}
}

func TestSimpleExecReturnsAffectedCount(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		srv.Startup(cn)
		if _, _, ok := srv.ReadMsg(cn); !ok {
			return
		}
		srv.WriteMsg(cn, wire.CommandComplete, "UPDATE 3\x00")
		srv.ReadyForQuery(cn)
	})
	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	result, err := SimpleExec(c, "UPDATE users SET age = 31 WHERE name = 'alice'")
	if err != nil {
		t.Fatalf("SimpleExec: %v", err)
	}
	if result.Kind != ResultCommand || result.RowsAffected != 3 {
		t.Fatalf("got %+v, want ResultCommand with RowsAffected 3", result)
	}
}

func TestSimpleExecDistinguishesSuccessFromCommand(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		srv.Startup(cn)
		if _, _, ok := srv.ReadMsg(cn); !ok {
			return
		}
		srv.WriteMsg(cn, wire.CommandComplete, "CREATE TABLE\x00")
		srv.ReadyForQuery(cn)
	})
	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	result, err := SimpleExec(c, "CREATE TABLE t (id int)")
	if err != nil {
		t.Fatalf("SimpleExec: %v", err)
	}
	if result.Kind != ResultSuccess || !result.Success {
		t.Fatalf("got %+v, want ResultSuccess with Success=true", result)
	}
}

func TestRenderExecute(t *testing.T) {
	got := renderExecute("q1", []Param{Int(4, 42), String("x")})
	want := "EXECUTE q1 (42, 'x')"
	if got != want {
		t.Fatalf("renderExecute() = %q, want %q", got, want)
	}
	if renderExecute("q2", nil) != "EXECUTE q2" {
		t.Fatalf("renderExecute with no params failed")
	}
}

func TestSimpleExecuteCommandRequiresRegisteredStatement(t *testing.T) {
	srv := testserver.New(t)
	srv.Accept(func(cn net.Conn) {
		defer cn.Close()
		srv.Startup(cn)
	})
	cfg := Config{Host: srv.Host(), Port: srv.Port(), Username: "alice", Database: "app"}
	c, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if _, err := SimpleExecuteCommand(c, "unregistered"); err == nil {
		t.Fatal("expected KindUnknownPreparedStatement error")
	}
}

func TestLeadingVerb(t *testing.T) {
	cases := map[string]string{
		"  select * from x": "SELECT",
		"INSERT INTO x":     "INSERT",
		"with q as (...)":   "WITH",
	}
	for sql, want := range cases {
		if got := leadingVerb(sql); got != want {
			t.Errorf("leadingVerb(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestIsMultiStatement(t *testing.T) {
	if !isMultiStatement("BEGIN; SELECT 1; COMMIT;") {
		t.Error("expected multi-statement batch to be detected")
	}
	if isMultiStatement("SELECT 1;") {
		t.Error("single trailing semicolon should not count as multi-statement")
	}
}
