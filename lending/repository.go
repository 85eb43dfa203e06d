package lending

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Storage errors, shared by all engines.
var (
	// ErrConcurrencyConflict is returned by Save when the stored version differs from the entity's version.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrQueryFailed is returned when a lookup fails in the storage engine.
	ErrQueryFailed = errors.New("query failed")

	// ErrSaveFailed is returned when a write fails in the storage engine.
	ErrSaveFailed = errors.New("save failed")

	// ErrScanningRowFailed is returned when a database row can't be decoded.
	ErrScanningRowFailed = errors.New("scanning row failed")

	// ErrTransactionFailed is returned when a transaction can't be started, committed or rolled back.
	ErrTransactionFailed = errors.New("transaction failed")
)

// BookRepository stores the catalog.
//
// Find methods return copies, mutating them does not affect the store until Save is called.
// Save is an upsert keyed by ISBN. It increments Version on success and fails with
// ErrConcurrencyConflict if the stored version differs from the given book's Version.
// Lists are ordered by ISBN.
type BookRepository interface {
	Save(ctx context.Context, book *Book) error
	FindByISBN(ctx context.Context, isbn ISBNString) (Book, bool, error)
	FindAll(ctx context.Context) ([]Book, error)
	FindAvailable(ctx context.Context) ([]Book, error)
	ExistsByISBN(ctx context.Context, isbn ISBNString) (bool, error)
	DeleteByISBN(ctx context.Context, isbn ISBNString) error

	// FindByTitle and FindByAuthor match a case-insensitive substring.
	FindByTitle(ctx context.Context, fragment string) ([]Book, error)
	FindByAuthor(ctx context.Context, fragment string) ([]Book, error)
}

// MemberRepository stores the registered members. Same contract as BookRepository, keyed by member ID.
type MemberRepository interface {
	Save(ctx context.Context, member *Member) error
	FindByID(ctx context.Context, memberID MemberIDString) (Member, bool, error)
	FindAll(ctx context.Context) ([]Member, error)
	ExistsByID(ctx context.Context, memberID MemberIDString) (bool, error)
}

// LoanRepository stores active loans and the loan history, keyed by loan ID.
// Lists are ordered by loan date, then ID.
type LoanRepository interface {
	Save(ctx context.Context, loan *Loan) error
	FindByID(ctx context.Context, loanID uuid.UUID) (Loan, bool, error)
	FindByMember(ctx context.Context, memberID MemberIDString) ([]Loan, error)
	FindActiveLoans(ctx context.Context) ([]Loan, error)
	FindActiveLoanByISBN(ctx context.Context, isbn ISBNString) (Loan, bool, error)
	CountActiveLoansByMember(ctx context.Context, memberID MemberIDString) (int, error)
}

// Transactor runs fn in a single storage transaction.
// Repositories of the same engine join the transaction through the context passed to fn.
// The transaction commits if fn returns nil, otherwise it rolls back and the error is returned.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
