package pgwire

import "github.com/wirepg/pgwire/internal/wire"

// ExtendedPrepare parses sql under a named statement. It is idempotent: if
// name is already registered with the identical sql text, this is a no-op;
// if name is registered with different sql, the old statement is closed
// first and name is re-parsed against the new text (spec §4.4 "Extended
// facade, idempotent prepare").
func ExtendedPrepare(c *Conn, name, sql string) (err error) {
	defer errRecover(&err)

	if existing, ok := c.statements[name]; ok && existing.sql == sql {
		return nil
	} else if ok {
		c.closeStatement(name)
	}

	var parseBuf wire.Writer
	parseBuf.CString(name)
	parseBuf.CString(sql)
	parseBuf.Int16(0)

	err2 := c.framer.WriteMessages(
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Parse), parseBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Sync), nil, false},
	)
	if err2 != nil {
		errorfCause(KindUnexpectedEOF, err2, "sending Parse for %q", name)
	}

	for {
		typ, payload, _, rerr := c.framer.ReadMessage()
		if rerr != nil {
			c.markError()
			errorfCause(KindUnexpectedEOF, rerr, "reading Parse response")
		}
		switch wire.ResponseType(typ) {
		case wire.ParseComplete:
			// keep draining to ReadyForQuery
		case wire.NoticeResponse:
			c.logNotice(payload)
		case wire.ErrorResponse:
			c.drainToReadyForQuery()
			panic(parsePostgresError(payload))
		case wire.ReadyForQuery:
			c.setState(stateFromTxByte(payload))
			c.statements[name] = preparedStatement{verb: leadingVerb(sql), sql: sql}
			return nil
		default:
			c.markError()
			errorf(KindProtocolError, "unexpected message %q awaiting ParseComplete", typ)
		}
	}
}

// closeStatement sends Close(Statement, name) + Sync and drains the
// response, used internally before re-parsing a name with new SQL text.
func (c *Conn) closeStatement(name string) {
	var closeBuf wire.Writer
	closeBuf.Byte('S')
	closeBuf.CString(name)

	err := c.framer.WriteMessages(
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Close), closeBuf.Payload(), false},
		struct {
			Type         byte
			Payload      []byte
			TrailingNull bool
		}{byte(wire.Sync), nil, false},
	)
	if err != nil {
		errorfCause(KindUnexpectedEOF, err, "sending Close for %q", name)
	}
	c.drainToReadyForQuery()
	delete(c.statements, name)
}

// ExtendedExecuteSelect binds params against the already-ExtendedPrepare'd
// statement name and decodes the resulting rows into T, using
// Bind+Describe+Execute+Sync coalesced into a single write (spec §4.4,
// §9 latency guidance).
func ExtendedExecuteSelect[T any, PT interface {
	*T
	Record
}](c *Conn, name string, params ...Param) (result Result[T], err error) {
	defer errRecover(&err)
	if _, ok := c.statements[name]; !ok {
		return Result[T]{}, newErr(KindUnknownPreparedStatement, "no statement registered as %q", name)
	}
	c.sendBindDescribeExecuteSync(name, params)
	return Result[T]{Kind: ResultSelect, Rows: recvSelect[T, PT](c)}, nil
}

// ExtendedExecuteCommand binds params against the already-ExtendedPrepare'd
// statement name and returns a Result[struct{}] distinguishing a tagless
// Success from a counted Command, per spec §4.4.
func ExtendedExecuteCommand(c *Conn, name string, params ...Param) (result Result[struct{}], err error) {
	defer errRecover(&err)
	if _, ok := c.statements[name]; !ok {
		return Result[struct{}]{}, newErr(KindUnknownPreparedStatement, "no statement registered as %q", name)
	}
	c.sendBindDescribeExecuteSync(name, params)
	kind, affected := c.recvSimpleCommand()
	if kind == ResultSuccess {
		return Result[struct{}]{Kind: ResultSuccess, Success: true}, nil
	}
	return Result[struct{}]{Kind: ResultCommand, RowsAffected: affected}, nil
}

// ExtendedQuerySelect parses, binds, and executes sql as a one-shot,
// unnamed Extended-protocol statement, decoding its rows into T. Use this
// when the statement will not be reused; ExtendedPrepare +
// ExtendedExecuteSelect amortizes Parse across repeated calls instead.
func ExtendedQuerySelect[T any, PT interface {
	*T
	Record
}](c *Conn, sql string, params ...Param) (result Result[T], err error) {
	defer errRecover(&err)
	c.sendParseBindDescribeExecuteSync("", sql, params)
	return Result[T]{Kind: ResultSelect, Rows: recvSelect[T, PT](c)}, nil
}

// ExtendedQueryCommand parses, binds, and executes sql as a one-shot,
// unnamed Extended-protocol statement, returning a Result[struct{}].
func ExtendedQueryCommand(c *Conn, sql string, params ...Param) (result Result[struct{}], err error) {
	defer errRecover(&err)
	c.sendParseBindDescribeExecuteSync("", sql, params)
	kind, affected := c.recvSimpleCommand()
	if kind == ResultSuccess {
		return Result[struct{}]{Kind: ResultSuccess, Success: true}, nil
	}
	return Result[struct{}]{Kind: ResultCommand, RowsAffected: affected}, nil
}

// sendBindDescribeExecuteSync emits Bind+Describe+Execute+Sync against an
// already-parsed named statement, coalesced into a single write.
func (c *Conn) sendBindDescribeExecuteSync(stmtName string, params []Param) {
	var bindBuf wire.Writer
	bindBuf.CString("")
	bindBuf.CString(stmtName)
	bindBuf.Int16(int16(len(params)))
	for _, p := range params {
		bindBuf.Int16(int16(p.wireFormat()))
	}
	bindBuf.Int16(int16(len(params)))
	for _, p := range params {
		bindBuf.LenPrefixed(p.wireBytes())
	}
	bindBuf.Int16(1)
	bindBuf.Int16(int16(FormatText))

	var describeBuf wire.Writer
	describeBuf.Byte('S')
	describeBuf.CString(stmtName)

	var executeBuf wire.Writer
	executeBuf.CString("")
	executeBuf.Int32(0)

	err := c.framer.WriteMessages(
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
		errorfCause(KindUnexpectedEOF, err, "sending Bind/Describe/Execute/Sync")
	}
}
