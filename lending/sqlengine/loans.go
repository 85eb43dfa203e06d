package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// LoanRepository is a lending.LoanRepository backed by a Store.
type LoanRepository struct {
	store *Store
}

// Save inserts a new loan or updates an existing one if its Version still matches.
// Inserting a second active loan for the same ISBN fails with lending.ErrConcurrencyConflict.
func (r *LoanRepository) Save(ctx context.Context, loan *lending.Loan) error {
	var ds interface {
		ToSQL() (string, []any, error)
	}

	var returnDate any
	if loan.ReturnDate != nil {
		returnDate = lending.FormatDate(*loan.ReturnDate)
	}

	if loan.Version == 0 {
		ds = r.store.builder.Insert(tableLoans).
			Rows(goqu.Record{
				colLoanID:        loan.ID.String(),
				colISBN:          loan.ISBN,
				colMemberID:      loan.MemberID,
				colLoanDate:      lending.FormatDate(loan.LoanDate),
				colDueDate:       lending.FormatDate(loan.DueDate),
				colReturnDate:    returnDate,
				colLateFeePerDay: loan.LateFeePerDay,
				colVersion:       1,
			}).
			OnConflict(goqu.DoNothing())
	} else {
		ds = r.store.builder.Update(tableLoans).
			Set(goqu.Record{
				colReturnDate: returnDate,
				colVersion:    loan.Version + 1,
			}).
			Where(goqu.C(colLoanID).Eq(loan.ID.String()), goqu.C(colVersion).Eq(loan.Version))
	}

	sqlQuery, err := r.store.toSQL(ctx, "save loan", ds)
	if err != nil {
		return err
	}

	if err = r.store.execVersioned(ctx, "save loan", sqlQuery); err != nil {
		return err
	}

	loan.Version++

	return nil
}

// FindByID returns the loan with the given ID.
func (r *LoanRepository) FindByID(ctx context.Context, loanID uuid.UUID) (lending.Loan, bool, error) {
	return r.findOne(ctx, "find loan by id", goqu.C(colLoanID).Eq(loanID.String()))
}

// FindByMember returns the member's complete loan history.
func (r *LoanRepository) FindByMember(ctx context.Context, memberID lending.MemberIDString) ([]lending.Loan, error) {
	return r.find(ctx, "find loans by member", goqu.C(colMemberID).Eq(memberID))
}

// FindActiveLoans returns all loans that are not returned.
func (r *LoanRepository) FindActiveLoans(ctx context.Context) ([]lending.Loan, error) {
	return r.find(ctx, "find active loans", goqu.C(colReturnDate).IsNull())
}

// FindActiveLoanByISBN returns the unreturned loan of the book, if any.
func (r *LoanRepository) FindActiveLoanByISBN(ctx context.Context, isbn lending.ISBNString) (lending.Loan, bool, error) {
	return r.findOne(ctx, "find active loan by isbn", goqu.C(colISBN).Eq(isbn), goqu.C(colReturnDate).IsNull())
}

// CountActiveLoansByMember returns the number of unreturned loans of the member.
func (r *LoanRepository) CountActiveLoansByMember(ctx context.Context, memberID lending.MemberIDString) (int, error) {
	count, err := r.store.count(
		ctx,
		"count active loans by member",
		tableLoans,
		goqu.C(colMemberID).Eq(memberID),
		goqu.C(colReturnDate).IsNull())

	return int(count), err
}

func (r *LoanRepository) findOne(ctx context.Context, action string, where ...exp.Expression) (lending.Loan, bool, error) {
	loans, err := r.find(ctx, action, where...)
	if err != nil || len(loans) == 0 {
		return lending.Loan{}, false, err
	}

	return loans[0], true, nil
}

func (r *LoanRepository) find(ctx context.Context, action string, where ...exp.Expression) ([]lending.Loan, error) {
	ds := r.store.builder.
		From(tableLoans).
		Select(colLoanID, colISBN, colMemberID, colLoanDate, colDueDate, colReturnDate, colLateFeePerDay, colVersion).
		Where(where...).
		Order(goqu.C(colLoanDate).Asc(), goqu.C(colLoanID).Asc())

	sqlQuery, err := r.store.toSQL(ctx, action, ds)
	if err != nil {
		return nil, err
	}

	loans := make([]lending.Loan, 0)
	err = r.store.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return scanErr
		}

		loans = append(loans, *loan)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func scanLoan(rows adapters.DBRows) (*lending.Loan, error) {
	var (
		loanID, isbn, memberID string
		loanDate, dueDate      string
		returnDate             sql.NullString
		lateFeePerDay, version int64
	)

	if err := rows.Scan(&loanID, &isbn, &memberID, &loanDate, &dueDate, &returnDate, &lateFeePerDay, &version); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(loanID)
	if err != nil {
		return nil, fmt.Errorf("loan id %q: %w", loanID, err)
	}

	parsedLoanDate, err := lending.ParseDate(loanDate)
	if err != nil {
		return nil, fmt.Errorf("loan date: %w", err)
	}

	parsedDueDate, err := lending.ParseDate(dueDate)
	if err != nil {
		return nil, fmt.Errorf("due date: %w", err)
	}

	var parsedReturnDate *time.Time
	if returnDate.Valid {
		rd, parseErr := lending.ParseDate(returnDate.String)
		if parseErr != nil {
			return nil, fmt.Errorf("return date: %w", parseErr)
		}

		parsedReturnDate = &rd
	}

	return lending.RestoreLoan(
		id,
		isbn,
		memberID,
		parsedLoanDate,
		parsedDueDate,
		parsedReturnDate,
		lateFeePerDay,
		uint(version),
	), nil
}
