package pgwire

import "github.com/wirepg/pgwire/internal/wire"

// columnDescriptor is the subset of a RowDescription field the deserializer
// needs: the name (for diagnostics) and nothing else, since this package
// does not decode by PostgreSQL OID (spec §1 Non-goals — no concrete
// per-type codec table is built into the core).
type columnDescriptor struct {
	name string
}

// parseRowDescription reads a RowDescription payload into a slice of
// column names, per the wire layout in spec §4.1: Int16 field count,
// followed per field by a C-string name and five fields the decoder does
// not need (table OID, column attr number, type OID, type size, type
// modifier) plus an Int16 format code.
func parseRowDescription(payload []byte) ([]columnDescriptor, error) {
	r := wire.Reader(payload)
	n := r.Int16()
	cols := make([]columnDescriptor, 0, n)
	for i := 0; i < n; i++ {
		name, err := r.CString()
		if err != nil {
			return nil, wrapErr(KindProtocolError, err, "reading column name")
		}
		r.Int32() // table OID
		r.Int16() // column attribute number
		r.Int32() // type OID
		r.Int16() // type size
		r.Int32() // type modifier
		r.Int16() // format code
		cols = append(cols, columnDescriptor{name: name})
	}
	return cols, nil
}

// decodeRow applies a DataRow payload's columns, in order, to the Fields of
// rec. The column count must match len(fields) exactly, per spec §4.6
// "Column count mismatch"; a NULL column (length prefix -1) is passed to
// the Codec with isNull=true and an empty slice.
func decodeRow(payload []byte, fields []Field) error {
	r := wire.Reader(payload)
	n := r.Int16()
	if int(n) != len(fields) {
		return newErr(KindColumnCountMismatch, "row has %d columns, record expects %d", n, len(fields))
	}
	for _, f := range fields {
		length := r.Int32()
		if length < 0 {
			if err := f.Codec.DecodeText(nil, true); err != nil {
				return err
			}
			continue
		}
		raw := r.Bytes(int(length))
		if err := f.Codec.DecodeText(raw, false); err != nil {
			return err
		}
	}
	return nil
}

// NewRows is a constructor helper for generic callers: it decodes one
// DataRow payload into a freshly allocated *T through T's PGFields. Query
// facades use this to materialize the Result[T].Rows slice without
// reflection (spec §9 Design Notes, Record interface guidance).
func NewRows[T any, PT interface {
	*T
	Record
}](payload []byte) (*T, error) {
	var v T
	rec := PT(&v)
	if err := decodeRow(payload, rec.PGFields()); err != nil {
		return nil, err
	}
	return &v, nil
}
