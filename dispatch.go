package pgwire

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wirepg/pgwire/internal/wire"
)

// parsePostgresError decodes an ErrorResponse payload into an *Error with
// Kind == KindPostgresError, per spec §4.1's field-tag table (S/C/M/D/H/W
// and friends — this package keeps Severity/Code/Message/Detail/Hint/
// Where, matching spec §7's taxonomy, and discards the rarer diagnostic
// fields the teacher's error.go preserves for psql's own display).
func parsePostgresError(payload []byte) *Error {
	e := &Error{Kind: KindPostgresError}
	r := wire.Reader(payload)
	for {
		tag := r.Byte()
		if tag == 0 {
			break
		}
		val, _ := r.CString()
		switch tag {
		case 'S':
			e.Severity = val
		case 'C':
			e.Code = val
		case 'M':
			e.Message = val
		case 'D':
			e.Detail = val
		case 'H':
			e.Hint = val
		case 'W':
			e.Where = val
		}
	}
	return e
}

// logNotice logs a NoticeResponse through the Conn's Logger seam rather
// than surfacing it as an error — per spec §4.1, notices never interrupt
// the current request.
func (c *Conn) logNotice(payload []byte) {
	e := parsePostgresError(payload)
	c.logger.Log(context.Background(), logLevelForSeverity(e.Severity), "postgres notice", "severity", e.Severity, "message", e.Message)
}

// logLevelForSeverity maps a PostgreSQL notice severity to the nearest
// slog level, so a caller's structured logging backend can filter on it
// the way it would any other log line.
func logLevelForSeverity(severity string) slog.Level {
	switch severity {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// --- frontend message senders ----------------------------------------------

func (c *Conn) sendQuery(sql string) {
	var w wire.Writer
	w.CString(sql)
	if err := c.framer.WriteMessage(byte(wire.Query), w.Payload(), false); err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending Query")
	}
}

// sendParseBindDescribeExecuteSync coalesces the five Extended-query
// messages (Parse, Bind, Describe, Execute, Sync) into one write, per spec §9's latency guidance (also honored by
// internal/wire.Framer.WriteMessages).
func (c *Conn) sendParseBindDescribeExecuteSync(stmtName, sql string, params []Param) {
	var parseBuf wire.Writer
	parseBuf.CString(stmtName)
	parseBuf.CString(sql)
	parseBuf.Int16(0) // no parameter type OIDs specified; server infers them

	var bindBuf wire.Writer
	bindBuf.CString("") // unnamed portal
	bindBuf.CString(stmtName)
	bindBuf.Int16(int16(len(params)))
	for _, p := range params {
		bindBuf.Int16(int16(p.wireFormat()))
	}
	bindBuf.Int16(int16(len(params)))
	for _, p := range params {
		bindBuf.LenPrefixed(p.wireBytes())
	}
	bindBuf.Int16(1) // one result-format code
	bindBuf.Int16(int16(FormatText))

	var describeBuf wire.Writer
	describeBuf.Byte('S')
	describeBuf.CString(stmtName)

	var executeBuf wire.Writer
	executeBuf.CString("")
	executeBuf.Int32(0) // no row limit

	err := c.framer.WriteMessages(
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Parse), parseBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Bind), bindBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Describe), describeBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Execute), executeBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Sync), nil, false},
	)
	if err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending Parse/Bind/Describe/Execute/Sync")
	}
}

// --- receive state machines -------------------------------------------------
//
// Each of the four state machines below consumes backend messages for one
// request until ReadyForQuery, matching spec §4.4's four result shapes.
// They are named after the leading verb that selects them, per spec §9
// Design Notes.

// recvSimpleCommand drives a Simple-query request whose statement is not a
// SELECT: it expects CommandComplete (or EmptyQueryResponse) followed by
// ReadyForQuery. It returns ResultCommand with the affected-row count
// parsed from the command tag when the tag carries one (INSERT/UPDATE/
// DELETE/MERGE), or ResultSuccess when it doesn't (CREATE/ALTER/DROP/
// GRANT/REVOKE/COMMIT/ROLLBACK/PREPARE and friends), per spec §4.4's
// "Command count" vs "Simple command" shapes.
func (c *Conn) recvSimpleCommand() (kind ResultKind, affected int64) {
	kind = ResultSuccess
	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			c.markError()
			errorfCause(KindUnexpectedEOF, err, "reading command response")
		}
		switch wire.ResponseType(typ) {
		case wire.CommandComplete:
			if n, hasCount := parseCommandTag(payload); hasCount {
				kind, affected = ResultCommand, n
			} else {
				kind, affected = ResultSuccess, 0
			}
		case wire.EmptyQueryResponse:
			kind, affected = ResultSuccess, 0
		case wire.BindComplete, wire.ParseComplete, wire.NoData:
			// extended-protocol acknowledgements preceding the command tag.
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ErrorResponse:
			c.drainToReadyForQuery()
			panic(parsePostgresError(payload))
		case wire.ReadyForQuery:
			c.setState(stateFromTxByte(payload))
			return kind, affected
		default:
			c.markError()
			errorf(KindProtocolError, "unexpected message %q awaiting command completion", typ)
		}
	}
}

// recvCommandCount drives a multi-statement Simple-query batch, returning
// the number of CommandComplete tags observed (spec §4.4 "Command count"
// shape) rather than any individual tag's row count.
func (c *Conn) recvCommandCount() int64 {
	var count int64
	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			c.markError()
			errorfCause(KindUnexpectedEOF, err, "reading command batch response")
		}
		switch wire.ResponseType(typ) {
		case wire.CommandComplete, wire.EmptyQueryResponse:
			count++
		case wire.RowDescription, wire.DataRow:
			// a SELECT embedded in the batch; its rows are not collected in
			// this shape, only counted as a completed statement once its
			// CommandComplete arrives.
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ErrorResponse:
			c.drainToReadyForQuery()
			panic(parsePostgresError(payload))
		case wire.ReadyForQuery:
			c.setState(stateFromTxByte(payload))
			return count
		default:
			c.markError()
			errorf(KindProtocolError, "unexpected message %q awaiting command batch completion", typ)
		}
	}
}

// recvSelect drives a request expected to return rows: it collects the
// RowDescription's column list, decodes each DataRow into a freshly
// allocated T via decode, and stops at ReadyForQuery.
func recvSelect[T any, PT interface {
	*T
	Record
}](c *Conn) []T {
	var rows []T
	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			c.markError()
			errorfCause(KindUnexpectedEOF, err, "reading select response")
		}
		switch wire.ResponseType(typ) {
		case wire.RowDescription:
			cols, derr := parseRowDescription(payload)
			if derr != nil {
				c.markError()
				panic(derr)
			}
			var zero T
			want := len(PT(&zero).PGFields())
			if len(cols) != want {
				c.markError()
				errorf(KindColumnCountMismatch, "row description has %d columns, record expects %d", len(cols), want)
			}
		case wire.DataRow:
			rec, derr := NewRows[T, PT](payload)
			if derr != nil {
				c.markError()
				panic(derr)
			}
			rows = append(rows, *rec)
		case wire.CommandComplete, wire.EmptyQueryResponse:
			// row stream finished; ReadyForQuery follows.
		case wire.BindComplete, wire.ParseComplete, wire.NoData, wire.PortalSuspended:
			// extended-protocol acknowledgements around the row stream.
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ErrorResponse:
			c.drainToReadyForQuery()
			panic(parsePostgresError(payload))
		case wire.ReadyForQuery:
			c.setState(stateFromTxByte(payload))
			return rows
		default:
			c.markError()
			errorf(KindProtocolError, "unexpected message %q awaiting rows", typ)
		}
	}
}

// recvExplain drives an EXPLAIN request: its rows are single text columns
// ("Seq Scan on foo  (cost=0.00..35.50 rows=2550 width=...)") which this
// function splits into ExplainRow's conventional fields rather than
// decoding through a caller-supplied Record (spec §4.4 "Explain" shape).
func (c *Conn) recvExplain() []ExplainRow {
	var rows []ExplainRow
	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			c.markError()
			errorfCause(KindUnexpectedEOF, err, "reading explain response")
		}
		switch wire.ResponseType(typ) {
		case wire.RowDescription:
			// single "QUERY PLAN" text column; nothing further to validate.
		case wire.DataRow:
			r := wire.Reader(payload)
			n := r.Int16()
			if n != 1 {
				c.markError()
				errorf(KindInvalidExplainFormat, "explain row has %d columns, want 1", n)
			}
			length := r.Int32()
			var line string
			if length >= 0 {
				line = string(r.Bytes(int(length)))
			}
			rows = append(rows, parseExplainLine(line))
		case wire.CommandComplete, wire.EmptyQueryResponse:
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ErrorResponse:
			c.drainToReadyForQuery()
			panic(parsePostgresError(payload))
		case wire.ReadyForQuery:
			c.setState(stateFromTxByte(payload))
			return rows
		default:
			c.markError()
			errorf(KindProtocolError, "unexpected message %q awaiting explain output", typ)
		}
	}
}

// drainToReadyForQuery consumes messages until ReadyForQuery after an
// ErrorResponse has already been observed, so the connection is left at a
// clean request boundary for its next use.
func (c *Conn) drainToReadyForQuery() {
	for {
		typ, payload, _, err := c.framer.ReadMessage()
		if err != nil {
			c.markError()
			return
		}
		if wire.ResponseType(typ) == wire.ReadyForQuery {
			c.setState(stateFromTxByte(payload))
			return
		}
	}
}

func stateFromTxByte(payload []byte) connState {
	if len(payload) == 0 {
		return stateIdle
	}
	switch wire.TransactionStatus(payload[0]) {
	case wire.TxInBlock:
		return stateInTransaction
	case wire.TxInFailed:
		return stateInFailedTransaction
	default:
		return stateIdle
	}
}

// parseCommandTag extracts the trailing row count from a CommandComplete
// tag ("INSERT 0 3", "UPDATE 5", "SELECT 10"). hasCount is false for tags
// with no numeric suffix ("CREATE TABLE", "PREPARE"), which distinguishes
// spec §4.4's Command-count shape from its tagless Simple-command/Success
// shape — a 0-row UPDATE ("UPDATE 0") must not collapse into Success.
func parseCommandTag(payload []byte) (affected int64, hasCount bool) {
	r := wire.Reader(payload)
	tag, _ := r.CString()
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return 0, false
	}
	last := fields[len(fields)-1]
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseExplainLine splits one EXPLAIN text line into its conventional
// "Operation on Target  (cost=... rows=... ...)" pieces, leaving anything
// it cannot confidently split in Details.
func parseExplainLine(line string) ExplainRow {
	trimmed := strings.TrimSpace(line)
	openParen := strings.Index(trimmed, "(cost=")
	if openParen < 0 {
		return ExplainRow{Details: trimmed}
	}
	head := strings.TrimSpace(trimmed[:openParen])
	rest := trimmed[openParen:]

	op, target := head, ""
	if idx := strings.Index(head, " on "); idx >= 0 {
		op = head[:idx]
		target = head[idx+len(" on "):]
	}

	cost, rows := "", ""
	rest = strings.Trim(rest, "()")
	for _, part := range strings.Fields(rest) {
		switch {
		case strings.HasPrefix(part, "cost="):
			cost = strings.TrimPrefix(part, "cost=")
		case strings.HasPrefix(part, "rows="):
			rows = strings.TrimPrefix(part, "rows=")
		}
	}

	return ExplainRow{Operation: op, Target: target, Cost: cost, Rows: rows, Details: rest}
}
