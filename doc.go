/*
Package pgwire is a native client for the PostgreSQL frontend/backend
protocol, version 3.0. It speaks the wire protocol directly rather than
sitting behind database/sql: there is no driver.Conn, no placeholder
rewriting, and no sql.Rows — callers get a Conn, a Pool, and the Simple and
Extended query facades.

# Connecting

	cfg := pgwire.Config{Host: "localhost", Username: "app", Password: "s3cret"}
	conn, err := pgwire.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

Config can also be built from a libpq-style keyword/value string:

	cfg, err := pgwire.ParseDSN("host=localhost user=app password=s3cret sslmode=require")

# Queries

The Simple facade sends a statement as one untyped Query message and is
used for anything that doesn't need bound parameters. Every facade call
returns a Result[T] tagged by Kind — Select rows, a Command row count, or a
tagless command's Success:

	result, err := pgwire.SimpleExec(conn, "update users set active = true")
	fmt.Println(result.Kind, result.RowsAffected)

	result, err := pgwire.SimpleSelect[User, *User](conn, "select id, name from users")
	fmt.Println(result.Rows)

The Extended facade binds typed parameters through Parse/Bind/Describe/
Execute/Sync:

	result, err := pgwire.ExtendedQuerySelect[User, *User](conn,
		"select id, name from users where id = $1", pgwire.Int(4, 42))

A row type decodes itself by implementing Record:

	type User struct {
		ID   int64
		Name string
	}

	func (u *User) PGFields() []pgwire.Field {
		return []pgwire.Field{
			{Name: "id", Codec: pgwire.IntCodec[int64]{Dst: &u.ID}},
			{Name: "name", Codec: pgwire.StringCodec{Dst: &u.Name}},
		}
	}

# Authentication

Connect negotiates cleartext, MD5, and SCRAM-SHA-256 password
authentication automatically from Config.Password. Kerberos, GSSAPI, SCM
credential, and SSPI requests are recognized but fail with a specific
*Error rather than completing a ticket exchange — see the package-level
Kind constants.

# Errors

Exported functions return a *pgwire.Error (or wrap one), with two
exceptions: ParseDSN reports a malformed keyword/value string (a missing
"=" or an unterminated quote) as a plain error, and Conn.Close and
Pool.Close pass on the socket's own close error. An Error's Kind field
classifies the failure; KindPostgresError carries the Severity/Code/
Message/Detail/Hint/Where fields PostgreSQL sent in its ErrorResponse.

# Connection pooling

Pool hands out a fixed number of pre-dialed connections, applying and
resetting row-level-security session variables around each checkout:

	pool, err := pgwire.NewPool(cfg, 10)
	pc, err := pool.Acquire(ctx, pgwire.RLSContext{"app.user_id": "42"})
	defer pool.Release(pc)
*/
package pgwire
