package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Loan records that a book was lent to a member. It references both by identity.
// A returned loan stays as history, loans are never deleted.
type Loan struct {
	ID            uuid.UUID
	ISBN          ISBNString
	MemberID      MemberIDString
	LoanDate      time.Time
	DueDate       time.Time
	ReturnDate    *time.Time // nil while the loan is active
	LateFeePerDay int64
	Version       uint // storage revision, 0 until the first save
}

// BuildLoan creates a Loan with the DefaultPolicy loan period and late fee.
func BuildLoan(book *Book, member *Member, loanDate time.Time) (*Loan, error) {
	return DefaultPolicy().BuildLoan(book, member, loanDate)
}

// RestoreLoan rebuilds a persisted Loan. It is meant for storage engines and does not validate.
func RestoreLoan(
	id uuid.UUID,
	isbn ISBNString,
	memberID MemberIDString,
	loanDate time.Time,
	dueDate time.Time,
	returnDate *time.Time,
	lateFeePerDay int64,
	version uint,
) *Loan {
	loan := &Loan{
		ID:            id,
		ISBN:          isbn,
		MemberID:      memberID,
		LoanDate:      ToCivilDate(loanDate),
		DueDate:       ToCivilDate(dueDate),
		LateFeePerDay: lateFeePerDay,
		Version:       version,
	}

	if returnDate != nil {
		rd := ToCivilDate(*returnDate)
		loan.ReturnDate = &rd
	}

	return loan
}

// IsReturned reports whether the return date is set.
func (l *Loan) IsReturned() bool {
	return l.ReturnDate != nil
}

// Return finalizes the loan at returnDate, which must not lie before the loan date.
func (l *Loan) Return(returnDate time.Time) error {
	if l.IsReturned() {
		return newError(
			ErrLoanAlreadyReturned,
			fmt.Sprintf("loan already returned on %s", FormatDate(*l.ReturnDate)),
			map[string]string{metaISBN: l.ISBN, metaMemberID: l.MemberID})
	}

	if returnDate.IsZero() {
		return missingFieldError("return date")
	}

	rd := ToCivilDate(returnDate)
	if rd.Before(l.LoanDate) {
		return newError(
			ErrReturnBeforeLoanDate,
			fmt.Sprintf("return before loan date: %s is before %s", FormatDate(rd), FormatDate(l.LoanDate)),
			map[string]string{metaISBN: l.ISBN, metaField: "return date"})
	}

	l.ReturnDate = &rd

	return nil
}

// effectiveDate is the date lateness is measured at:
// checkDate, or the return date if the book came back before checkDate.
func (l *Loan) effectiveDate(checkDate time.Time) time.Time {
	cd := ToCivilDate(checkDate)
	if l.ReturnDate != nil && l.ReturnDate.Before(cd) {
		return *l.ReturnDate
	}

	return cd
}

// IsOverdue reports whether the loan was late at checkDate.
func (l *Loan) IsOverdue(checkDate time.Time) bool {
	return l.OverdueDays(checkDate) > 0
}

// OverdueDays returns the days past the due date at checkDate, never less than 0.
func (l *Loan) OverdueDays(checkDate time.Time) int {
	return max(0, DaysBetween(l.DueDate, l.effectiveDate(checkDate)))
}

// DaysUntilDue returns the days from checkDate until the due date, negative once overdue.
func (l *Loan) DaysUntilDue(checkDate time.Time) int {
	return DaysBetween(checkDate, l.DueDate)
}

// CalculateLateFee returns the late fee at referenceDate in the smallest currency unit.
func (l *Loan) CalculateLateFee(referenceDate time.Time) int64 {
	return int64(l.OverdueDays(referenceDate)) * l.LateFeePerDay
}

// Clone returns a deep copy.
func (l *Loan) Clone() *Loan {
	clone := *l
	if l.ReturnDate != nil {
		rd := *l.ReturnDate
		clone.ReturnDate = &rd
	}

	return &clone
}
