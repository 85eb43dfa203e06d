// Package adapters provide database adapter implementations for the SQL lending repositories.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, including transactions, so the repositories work with any
// supported connection type.
package adapters
