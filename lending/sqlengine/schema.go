package sqlengine

import (
	"context"
	"fmt"
)

// Schema holds the DDL statements that create the lending tables. They are valid for all supported dialects.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		isbn TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		version BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		member_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		borrowed_books_count INTEGER NOT NULL,
		max_borrow_limit INTEGER NOT NULL,
		version BIGINT NOT NULL,
		CHECK (borrowed_books_count >= 0 AND borrowed_books_count <= max_borrow_limit)
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		loan_id TEXT PRIMARY KEY,
		isbn TEXT NOT NULL,
		member_id TEXT NOT NULL,
		loan_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		return_date TEXT NULL,
		late_fee_per_day BIGINT NOT NULL,
		version BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS loans_member_id_idx ON loans (member_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_active_isbn_uidx ON loans (isbn) WHERE return_date IS NULL`,
}

// Migrate creates the lending tables and indexes if they don't exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for i, statement := range Schema {
		if _, err := s.exec(ctx, "migrate", statement); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	return nil
}
