package pgwire

// ResultKind classifies what shape of CommandComplete/RowDescription
// sequence a query produced, per spec §4.4's four response shapes.
type ResultKind int

const (
	ResultSelect ResultKind = iota
	ResultCommand
	ResultSuccess
	ResultExplain
)

// Result is what every query facade entry point returns. Exactly one of
// Rows, RowsAffected or Success is meaningful, selected by Kind. An EXPLAIN
// result is a Result[ExplainRow] with Kind == ResultExplain, using Rows for
// its plan lines.
type Result[T any] struct {
	Kind ResultKind

	// Rows holds the decoded rows for a Select or Explain result.
	Rows []T

	// RowsAffected holds the row count parsed out of a CommandComplete tag
	// (INSERT/UPDATE/DELETE/MERGE) for a Command result.
	RowsAffected int64

	// Success reports whether a tagless command (e.g. CREATE TABLE)
	// completed, for a Success result.
	Success bool
}

// ExplainRow is one line of a text-format EXPLAIN plan, split into its
// conventional fields (spec §4.4 "Explain" shape). Details holds the
// contents of the line's "(cost=...)" group with the parentheses stripped,
// so it repeats Cost and Rows; for a line with no such group it holds the
// whole trimmed line and the other fields are empty.
type ExplainRow struct {
	Operation string
	Target    string
	Cost      string
	Rows      string
	Details   string
}
