package helper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// GivenDate returns the civil date at midnight UTC.
func GivenDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixtureISBN returns a distinct, well-formed ISBN for the n-th test book.
func FixtureISBN(n int) lending.ISBNString {
	return fmt.Sprintf("978-1-098-%05d-1", n)
}

// FixtureMemberID returns a distinct member ID for the n-th test member.
func FixtureMemberID(n int) lending.MemberIDString {
	return fmt.Sprintf("member-%03d", n)
}

// FixtureBook builds the n-th test book.
func FixtureBook(t testing.TB, n int) *lending.Book {
	t.Helper()

	book, err := lending.BuildBook(
		fmt.Sprintf("Learning Domain-Driven Design, Vol. %d", n),
		"Vlad Khononov",
		FixtureISBN(n))
	require.NoError(t, err, "error in arranging test data")

	return book
}

// FixtureMember builds the n-th test member with the default borrow limit.
func FixtureMember(t testing.TB, n int, opts ...lending.MemberOption) *lending.Member {
	t.Helper()

	member, err := lending.BuildMember(FixtureMemberID(n), fmt.Sprintf("Reader %d", n), opts...)
	require.NoError(t, err, "error in arranging test data")

	return member
}

// FixtureLoan builds a loan of the n-th book to the m-th member.
func FixtureLoan(t testing.TB, n int, m int, loanDate time.Time) *lending.Loan {
	t.Helper()

	loan, err := lending.BuildLoan(FixtureBook(t, n), FixtureMember(t, m), loanDate)
	require.NoError(t, err, "error in arranging test data")

	return loan
}
