package lending_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func buildLoan(t *testing.T, loanDate time.Time) *lending.Loan {
	t.Helper()

	book, err := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	require.NoError(t, err)
	member, err := lending.BuildMember("m-1", "Ada")
	require.NoError(t, err)
	loan, err := lending.BuildLoan(book, member, loanDate)
	require.NoError(t, err)

	return loan
}

func Test_BuildLoan_DueDateIsFourteenDaysLater(t *testing.T) {
	// act
	loan := buildLoan(t, date(2025, 9, 1))

	// assert
	assert.Equal(t, date(2025, 9, 15), loan.DueDate)
	assert.Equal(t, date(2025, 9, 1), loan.LoanDate)
	assert.Nil(t, loan.ReturnDate)
	assert.False(t, loan.IsReturned())
	assert.Equal(t, "978-0441172719", loan.ISBN)
	assert.Equal(t, "m-1", loan.MemberID)
	assert.Equal(t, lending.DefaultLateFeePerDay, loan.LateFeePerDay)
	assert.NotEqual(t, [16]byte{}, [16]byte(loan.ID))
}

func Test_BuildLoan_DueDateForEveryLoanDate(t *testing.T) {
	start := date(2024, 1, 1)

	for i := 0; i < 400; i++ {
		// arrange
		loanDate := start.AddDate(0, 0, i).Add(17 * time.Hour)

		// act
		loan := buildLoan(t, loanDate)

		// assert
		assert.Equal(t, 14, lending.DaysBetween(loan.LoanDate, loan.DueDate))
	}
}

func Test_BuildLoan_MissingArguments(t *testing.T) {
	// arrange
	book, _ := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	member, _ := lending.BuildMember("m-1", "Ada")

	tests := []struct {
		name     string
		book     *lending.Book
		member   *lending.Member
		loanDate time.Time
	}{
		{name: "nil book", member: member, loanDate: date(2025, 9, 1)},
		{name: "nil member", book: book, loanDate: date(2025, 9, 1)},
		{name: "zero loan date", book: book, member: member},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			loan, err := lending.BuildLoan(tt.book, tt.member, tt.loanDate)

			// assert
			assert.Nil(t, loan)
			assert.ErrorIs(t, err, lending.ErrValidationFailed)
		})
	}
}

func Test_Policy_BuildLoan_UsesPolicy(t *testing.T) {
	// arrange
	book, _ := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	member, _ := lending.BuildMember("m-1", "Ada")
	policy := lending.Policy{LoanPeriodDays: 7, LateFeePerDay: 25, DefaultBorrowLimit: 1}

	// act
	loan, err := policy.BuildLoan(book, member, date(2025, 9, 1))

	// assert
	require.NoError(t, err)
	assert.Equal(t, date(2025, 9, 8), loan.DueDate)
	assert.Equal(t, int64(25*3), loan.CalculateLateFee(date(2025, 9, 11)))
}

func Test_Policy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		policy lending.Policy
		valid  bool
	}{
		{name: "default", policy: lending.DefaultPolicy(), valid: true},
		{name: "free of charge", policy: lending.Policy{LoanPeriodDays: 1, LateFeePerDay: 0, DefaultBorrowLimit: 1}, valid: true},
		{name: "zero period", policy: lending.Policy{LoanPeriodDays: 0, LateFeePerDay: 1, DefaultBorrowLimit: 1}},
		{name: "negative fee", policy: lending.Policy{LoanPeriodDays: 1, LateFeePerDay: -1, DefaultBorrowLimit: 1}},
		{name: "zero limit", policy: lending.Policy{LoanPeriodDays: 1, LateFeePerDay: 1, DefaultBorrowLimit: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			err := tt.policy.Validate()

			// assert
			if tt.valid {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, lending.ErrInvalidPolicy)
		})
	}
}

func Test_Loan_ReturnBeforeLoanDate(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))

	// act
	err := loan.Return(date(2025, 8, 31))

	// assert
	assert.ErrorIs(t, err, lending.ErrReturnBeforeLoanDate)
	assert.True(t, lending.IsKind(err, lending.KindValidation))
	assert.Contains(t, err.Error(), "return before loan date")
	assert.False(t, loan.IsReturned())
}

func Test_Loan_ReturnTwice(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))
	require.NoError(t, loan.Return(date(2025, 9, 10)))

	// act
	err := loan.Return(date(2025, 9, 11))

	// assert
	assert.ErrorIs(t, err, lending.ErrLoanAlreadyReturned)
	assert.Contains(t, err.Error(), "already returned")
	assert.Equal(t, date(2025, 9, 10), *loan.ReturnDate)
}

func Test_Loan_ReturnOnLoanDate(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))

	// act
	err := loan.Return(date(2025, 9, 1).Add(20 * time.Hour))

	// assert
	require.NoError(t, err)
	assert.True(t, loan.IsReturned())
	assert.Equal(t, date(2025, 9, 1), *loan.ReturnDate)
}

func Test_Loan_ReturnWithZeroDate(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))

	// act
	err := loan.Return(time.Time{})

	// assert
	assert.ErrorIs(t, err, lending.ErrValidationFailed)
}

func Test_Loan_LateFeeTwentyDaysAfterLoan(t *testing.T) {
	// arrange
	checkDate := date(2025, 9, 21)
	loan := buildLoan(t, checkDate.AddDate(0, 0, -20))

	// act
	fee := loan.CalculateLateFee(checkDate)

	// assert
	assert.True(t, loan.IsOverdue(checkDate))
	assert.Equal(t, 6, loan.OverdueDays(checkDate))
	assert.Equal(t, int64(600), fee)
}

func Test_Loan_LateFeeIsMonotonicAndZeroUntilDue(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))
	previous := int64(0)

	for offset := -14; offset <= 30; offset++ {
		checkDate := loan.DueDate.AddDate(0, 0, offset)

		// act
		fee := loan.CalculateLateFee(checkDate)

		// assert
		assert.GreaterOrEqual(t, fee, previous)
		if offset <= 0 {
			assert.Equal(t, int64(0), fee)
			assert.False(t, loan.IsOverdue(checkDate))
		}

		previous = fee
	}
}

func Test_Loan_LatenessStopsAtReturnDate(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))
	require.NoError(t, loan.Return(date(2025, 9, 18)))

	// assert
	assert.Equal(t, int64(300), loan.CalculateLateFee(date(2025, 10, 30)))
	assert.Equal(t, int64(100), loan.CalculateLateFee(date(2025, 9, 16)))
	assert.True(t, loan.IsOverdue(date(2025, 12, 1)))
}

func Test_Loan_ReturnedInTimeIsNeverOverdue(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))
	require.NoError(t, loan.Return(date(2025, 9, 10)))

	// assert
	assert.False(t, loan.IsOverdue(date(2025, 10, 1)))
	assert.Equal(t, int64(0), loan.CalculateLateFee(date(2025, 10, 1)))
}

func Test_Loan_DaysUntilDue(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))

	// assert
	assert.Equal(t, 14, loan.DaysUntilDue(date(2025, 9, 1)))
	assert.Equal(t, 0, loan.DaysUntilDue(date(2025, 9, 15)))
	assert.Equal(t, -2, loan.DaysUntilDue(date(2025, 9, 17)))
}

func Test_Loan_CloneIsDeep(t *testing.T) {
	// arrange
	loan := buildLoan(t, date(2025, 9, 1))
	require.NoError(t, loan.Return(date(2025, 9, 10)))

	// act
	clone := loan.Clone()
	*clone.ReturnDate = date(2025, 9, 12)

	// assert
	assert.Equal(t, date(2025, 9, 10), *loan.ReturnDate)
}

func Test_RestoreLoan_NormalizesDates(t *testing.T) {
	// arrange
	source := buildLoan(t, date(2025, 9, 1))
	returnDate := time.Date(2025, 9, 3, 15, 4, 5, 0, time.UTC)

	// act
	restored := lending.RestoreLoan(
		source.ID, source.ISBN, source.MemberID,
		source.LoanDate.Add(3*time.Hour), source.DueDate, &returnDate, 50, 2)

	// assert
	assert.Equal(t, source.ID, restored.ID)
	assert.Equal(t, date(2025, 9, 1), restored.LoanDate)
	assert.Equal(t, date(2025, 9, 3), *restored.ReturnDate)
	assert.Equal(t, int64(50), restored.LateFeePerDay)
	assert.Equal(t, uint(2), restored.Version)
}
