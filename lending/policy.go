package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLoanPeriodDays is the number of days between loan date and due date.
	DefaultLoanPeriodDays = 14

	// DefaultLateFeePerDay is the late fee per overdue day, in the smallest currency unit.
	DefaultLateFeePerDay = int64(100)

	// DefaultBorrowLimit is the number of books a member may borrow simultaneously.
	DefaultBorrowLimit = 3
)

// Policy holds the tunable lending rules.
type Policy struct {
	LoanPeriodDays     int
	LateFeePerDay      int64
	DefaultBorrowLimit int
}

// DefaultPolicy returns the policy with a 14 days loan period, a fee of 100 per day and a borrow limit of 3.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriodDays:     DefaultLoanPeriodDays,
		LateFeePerDay:      DefaultLateFeePerDay,
		DefaultBorrowLimit: DefaultBorrowLimit,
	}
}

// Validate checks that all rules are usable.
func (p Policy) Validate() error {
	switch {
	case p.LoanPeriodDays <= 0:
		return newError(ErrInvalidPolicy, fmt.Sprintf("loan period must be positive, got %d", p.LoanPeriodDays), nil)
	case p.LateFeePerDay < 0:
		return newError(ErrInvalidPolicy, fmt.Sprintf("late fee per day must not be negative, got %d", p.LateFeePerDay), nil)
	case p.DefaultBorrowLimit <= 0:
		return newError(ErrInvalidPolicy, fmt.Sprintf("borrow limit must be positive, got %d", p.DefaultBorrowLimit), nil)
	}

	return nil
}

// BuildMember creates a Member whose borrow limit defaults to the policy's DefaultBorrowLimit.
func (p Policy) BuildMember(memberID MemberIDString, name string, opts ...MemberOption) (*Member, error) {
	allOpts := append([]MemberOption{WithBorrowLimit(p.DefaultBorrowLimit)}, opts...)

	return buildMember(memberID, name, allOpts...)
}

// BuildLoan creates a Loan of book to member starting at loanDate.
// The due date is loanDate plus the policy's loan period, the late fee per day is frozen into the loan.
func (p Policy) BuildLoan(book *Book, member *Member, loanDate time.Time) (*Loan, error) {
	if book == nil {
		return nil, missingFieldError("book")
	}

	if member == nil {
		return nil, missingFieldError("member")
	}

	if loanDate.IsZero() {
		return nil, missingFieldError("loan date")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &Loan{
		ID:            uuid.New(),
		ISBN:          book.ISBN,
		MemberID:      member.ID,
		LoanDate:      ToCivilDate(loanDate),
		DueDate:       AddDays(loanDate, p.LoanPeriodDays),
		LateFeePerDay: p.LateFeePerDay,
	}, nil
}
