package pgwire

import "strings"

// simpleVerbs is the fixed set of leading keywords the Simple facade
// recognizes. SimpleExecuteSelect checks a prepared statement's recorded
// verb against it; leadingVerb itself returns the whole upper-cased first
// word, whatever its length.
var simpleVerbs = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"EXPLAIN": true, "PREPARE": true, "EXECUTE": true, "CREATE": true,
	"DROP": true, "ALTER": true, "BEGIN": true, "COMMIT": true,
	"ROLLBACK": true, "TRUNCATE": true, "WITH": true, "VALUES": true,
}

// leadingVerb returns the upper-cased first word of sql, trimmed of
// leading whitespace, for verb dispatch. It does not attempt to parse SQL
// beyond that first token (spec §1 Non-goals: no SQL dialect parsing).
func leadingVerb(sql string) string {
	s := strings.TrimSpace(sql)
	end := 0
	for end < len(s) && !isSQLSpace(s[end]) {
		end++
	}
	return strings.ToUpper(s[:end])
}

func isSQLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isMultiStatement reports whether sql contains more than one
// semicolon-terminated statement, which selects the "command count" rather
// than "command" receive shape (spec §4.4).
func isMultiStatement(sql string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(sql), ";")
	return strings.Count(trimmed, ";") > 0
}

// SimpleExec runs sql (anything other than a row-returning statement)
// through the Simple Query protocol and returns a Result[struct{}]: Kind
// ResultCommand with RowsAffected for INSERT/UPDATE/DELETE/MERGE (or the
// count of statements completed for a semicolon-separated batch), Kind
// ResultSuccess for tagless commands like CREATE TABLE (spec §4.4
// "Command count"/"Simple command" shapes).
func SimpleExec(c *Conn, sql string) (result Result[struct{}], err error) {
	defer errRecover(&err)
	c.sendQuery(sql)
	if isMultiStatement(sql) {
		return Result[struct{}]{Kind: ResultCommand, RowsAffected: c.recvCommandCount()}, nil
	}
	kind, affected := c.recvSimpleCommand()
	if kind == ResultSuccess {
		return Result[struct{}]{Kind: ResultSuccess, Success: true}, nil
	}
	return Result[struct{}]{Kind: ResultCommand, RowsAffected: affected}, nil
}

// SimpleSelect runs a row-returning statement through the Simple Query
// protocol and decodes each row into T.
func SimpleSelect[T any, PT interface {
	*T
	Record
}](c *Conn, sql string) (result Result[T], err error) {
	defer errRecover(&err)
	verb := leadingVerb(sql)
	if verb != "SELECT" && verb != "WITH" && verb != "VALUES" {
		return Result[T]{}, newErr(KindNotASelectQuery, "statement does not begin with SELECT/WITH/VALUES: %q", verb)
	}
	c.sendQuery(sql)
	return Result[T]{Kind: ResultSelect, Rows: recvSelect[T, PT](c)}, nil
}

// SimpleExplain runs an EXPLAIN statement and returns its parsed plan rows.
func SimpleExplain(c *Conn, sql string) (result Result[ExplainRow], err error) {
	defer errRecover(&err)
	if leadingVerb(sql) != "EXPLAIN" {
		return Result[ExplainRow]{}, newErr(KindInvalidExplainFormat, "statement does not begin with EXPLAIN")
	}
	c.sendQuery(sql)
	return Result[ExplainRow]{Kind: ResultExplain, Rows: c.recvExplain()}, nil
}

// SimplePrepare issues "PREPARE name AS sql" and records name's inner verb
// in the connection's statement registry, so a later SimpleExecuteCommand
// or SimpleExecuteSelect call knows which receive state machine to use
// (spec §4.4 "Statement registry").
func SimplePrepare(c *Conn, name, sql string) (err error) {
	defer errRecover(&err)
	innerVerb := leadingVerb(sql)
	stmt := "PREPARE " + name + " AS " + sql
	c.sendQuery(stmt)
	c.recvSimpleCommand()
	c.statements[name] = preparedStatement{verb: innerVerb, sql: sql}
	return nil
}

// renderExecute builds the literal "EXECUTE name (lit1, lit2, ...)" SQL
// text for the given bound parameters, per spec §4.4's Simple-facade
// EXECUTE scenario: each Param is rendered through its own SQL literal
// form rather than bound out-of-band, since the Simple protocol carries no
// separate parameter channel.
func renderExecute(name string, params []Param) string {
	if len(params) == 0 {
		return "EXECUTE " + name
	}
	lits := make([]string, len(params))
	for i, p := range params {
		lits[i] = p.sqlLiteral()
	}
	return "EXECUTE " + name + " (" + strings.Join(lits, ", ") + ")"
}

// SimpleExecuteCommand executes a previously PREPAREd non-SELECT statement
// by name, rendering params as SQL literals.
func SimpleExecuteCommand(c *Conn, name string, params ...Param) (result Result[struct{}], err error) {
	defer errRecover(&err)
	if _, ok := c.statements[name]; !ok {
		return Result[struct{}]{}, newErr(KindUnknownPreparedStatement, "no statement registered as %q", name)
	}
	c.sendQuery(renderExecute(name, params))
	kind, affected := c.recvSimpleCommand()
	if kind == ResultSuccess {
		return Result[struct{}]{Kind: ResultSuccess, Success: true}, nil
	}
	return Result[struct{}]{Kind: ResultCommand, RowsAffected: affected}, nil
}

// SimpleExecuteSelect executes a previously PREPAREd row-returning
// statement by name, rendering params as SQL literals, and decodes the
// result into T.
func SimpleExecuteSelect[T any, PT interface {
	*T
	Record
}](c *Conn, name string, params ...Param) (result Result[T], err error) {
	defer errRecover(&err)
	stmt, ok := c.statements[name]
	if !ok {
		return Result[T]{}, newErr(KindUnknownPreparedStatement, "no statement registered as %q", name)
	}
	if !simpleVerbs[stmt.verb] || (stmt.verb != "SELECT" && stmt.verb != "WITH" && stmt.verb != "VALUES") {
		return Result[T]{}, newErr(KindNotASelectQuery, "statement %q is not a row-returning statement", name)
	}
	c.sendQuery(renderExecute(name, params))
	return Result[T]{Kind: ResultSelect, Rows: recvSelect[T, PT](c)}, nil
}
