// Package sqlengine provides SQL implementations of the lending repositories.
//
// A Store wraps one database connection (pgxpool.Pool, sql.DB or sqlx.DB) and hands out
// a BookRepository, MemberRepository and LoanRepository that share it. Queries are built
// with goqu for the configured dialect, "postgres" by default, "sqlite3" as an alternative.
//
// Store implements lending.Transactor: repositories called with the context passed into
// RunInTransaction's callback run inside that transaction.
//
// Saves use optimistic concurrency. A new entity (Version 0) is inserted only if its key
// does not exist yet, an existing entity is updated only if the stored version still
// matches. Otherwise Save fails with lending.ErrConcurrencyConflict. The schema also
// guarantees at most one active loan per ISBN.
//
// Dates are stored as ISO "YYYY-MM-DD" text, so the same schema works for all dialects.
package sqlengine
