package library

import (
	"context"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// GetMemberLoans returns the member's complete loan history, active and returned,
// ordered by loan date. It fails with lending.ErrMemberNotFound.
func (s *LibraryService) GetMemberLoans(
	ctx context.Context,
	memberID lending.MemberIDString,
) (loans []lending.Loan, err error) {
	memberID = strings.TrimSpace(memberID)

	ctx, op := s.startOperation(ctx, OperationGetMemberLoans, map[string]string{LogAttrMemberID: memberID})
	defer func() { op.finish(err) }()

	if err = s.requireMember(ctx, memberID); err != nil {
		return nil, err
	}

	return s.loans.FindByMember(ctx, memberID)
}

// GetOverdueBooks returns the active loans that are overdue at checkDate, ordered by loan date.
// A zero checkDate means today. The query has no side effects, calling it twice yields the same result.
func (s *LibraryService) GetOverdueBooks(ctx context.Context, checkDate time.Time) (loans []lending.Loan, err error) {
	ctx, op := s.startOperation(ctx, OperationGetOverdueBooks, nil)
	defer func() { op.finish(err) }()

	overdue, err := s.overdueLoans(ctx, s.today(checkDate))
	if err != nil {
		return nil, err
	}

	s.recordValue(ctx, OverdueLoansMetric, float64(len(overdue)), nil)

	return overdue, nil
}

// CalculateLateFee returns the late fee of the book's active loan at checkDate.
// A zero checkDate means today. It fails with lending.ErrNoActiveLoan if the book is not lent.
func (s *LibraryService) CalculateLateFee(
	ctx context.Context,
	isbn lending.ISBNString,
	checkDate time.Time,
) (fee int64, err error) {
	isbn = strings.TrimSpace(isbn)

	ctx, op := s.startOperation(ctx, OperationCalculateLateFee, map[string]string{LogAttrISBN: isbn})
	defer func() { op.finish(err) }()

	loan, found, err := s.loans.FindActiveLoanByISBN(ctx, isbn)
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, lending.NoActiveLoanError(isbn)
	}

	return loan.CalculateLateFee(s.today(checkDate)), nil
}

// FindBook returns the book with isbn or fails with lending.ErrBookNotFound.
func (s *LibraryService) FindBook(ctx context.Context, isbn lending.ISBNString) (book lending.Book, err error) {
	isbn = strings.TrimSpace(isbn)

	ctx, op := s.startOperation(ctx, OperationFindBook, map[string]string{LogAttrISBN: isbn})
	defer func() { op.finish(err) }()

	book, found, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		return lending.Book{}, err
	}

	if !found {
		return lending.Book{}, lending.BookNotFoundError(isbn)
	}

	return book, nil
}

// ListBooks returns the whole catalog ordered by ISBN.
func (s *LibraryService) ListBooks(ctx context.Context) (books []lending.Book, err error) {
	ctx, op := s.startOperation(ctx, OperationListBooks, nil)
	defer func() { op.finish(err) }()

	return s.books.FindAll(ctx)
}

// ListAvailableBooks returns the books that can be borrowed, ordered by ISBN.
func (s *LibraryService) ListAvailableBooks(ctx context.Context) (books []lending.Book, err error) {
	ctx, op := s.startOperation(ctx, OperationListAvailableBooks, nil)
	defer func() { op.finish(err) }()

	return s.books.FindAvailable(ctx)
}

// SearchBooksByTitle returns the books whose title contains query, ignoring case.
// It fails with lending.ErrValidationFailed if query is blank.
func (s *LibraryService) SearchBooksByTitle(ctx context.Context, query string) (books []lending.Book, err error) {
	ctx, op := s.startOperation(ctx, OperationSearchBooksByTitle, nil)
	defer func() { op.finish(err) }()

	query, err = searchQuery(query)
	if err != nil {
		return nil, err
	}

	return s.books.FindByTitle(ctx, query)
}

// SearchBooksByAuthor returns the books whose author contains query, ignoring case.
// It fails with lending.ErrValidationFailed if query is blank.
func (s *LibraryService) SearchBooksByAuthor(ctx context.Context, query string) (books []lending.Book, err error) {
	ctx, op := s.startOperation(ctx, OperationSearchBooksByAuthor, nil)
	defer func() { op.finish(err) }()

	query, err = searchQuery(query)
	if err != nil {
		return nil, err
	}

	return s.books.FindByAuthor(ctx, query)
}

// ListMembers returns all members ordered by ID.
func (s *LibraryService) ListMembers(ctx context.Context) (members []lending.Member, err error) {
	ctx, op := s.startOperation(ctx, OperationListMembers, nil)
	defer func() { op.finish(err) }()

	return s.members.FindAll(ctx)
}

// CountActiveLoans returns the number of books the member holds.
// It fails with lending.ErrMemberNotFound.
func (s *LibraryService) CountActiveLoans(ctx context.Context, memberID lending.MemberIDString) (count int, err error) {
	memberID = strings.TrimSpace(memberID)

	ctx, op := s.startOperation(ctx, OperationCountActiveLoans, map[string]string{LogAttrMemberID: memberID})
	defer func() { op.finish(err) }()

	if err = s.requireMember(ctx, memberID); err != nil {
		return 0, err
	}

	return s.loans.CountActiveLoansByMember(ctx, memberID)
}

func (s *LibraryService) requireMember(ctx context.Context, memberID lending.MemberIDString) error {
	exists, err := s.members.ExistsByID(ctx, memberID)
	if err != nil {
		return err
	}

	if !exists {
		return lending.MemberNotFoundError(memberID)
	}

	return nil
}

func (s *LibraryService) overdueLoans(ctx context.Context, checkDate time.Time) ([]lending.Loan, error) {
	active, err := s.loans.FindActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	overdue := make([]lending.Loan, 0, len(active))
	for _, loan := range active {
		if loan.IsOverdue(checkDate) {
			overdue = append(overdue, loan)
		}
	}

	return overdue, nil
}

func searchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", lending.ValidationError("query", "search query must not be blank")
	}

	return query, nil
}
