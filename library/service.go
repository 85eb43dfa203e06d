package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LibraryService coordinates the lending of books to members.
// It is safe for concurrent use.
type LibraryService struct {
	books   lending.BookRepository
	members lending.MemberRepository
	loans   lending.LoanRepository

	policy       lending.Policy
	notifier     lending.Notifier
	transactor   lending.Transactor
	retryOptions []RetryOption
	clock        func() time.Time
	locker       *keyLocker

	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// NewLibraryService creates a LibraryService on top of the given repositories.
// Defaults: lending.DefaultPolicy, a notifier that discards everything, no transaction, no observability.
func NewLibraryService(
	books lending.BookRepository,
	members lending.MemberRepository,
	loans lending.LoanRepository,
	options ...Option,
) (*LibraryService, error) {
	if books == nil || members == nil || loans == nil {
		return nil, ErrNilRepository
	}

	service := &LibraryService{
		books:    books,
		members:  members,
		loans:    loans,
		policy:   lending.DefaultPolicy(),
		notifier: lending.NoopNotifier{},
		clock:    time.Now,
		locker:   newKeyLocker(),
	}

	for _, option := range options {
		if err := option(service); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// Policy returns the lending rules the service applies.
func (s *LibraryService) Policy() lending.Policy {
	return s.policy
}

// BorrowBook lends the book with isbn to the member with memberID, starting at loanDate.
//
// Errors, checked in this order before anything is changed:
//   - lending.ErrBookNotFound
//   - lending.ErrMemberNotFound
//   - lending.ErrBookNotAvailable if the book is lent
//   - lending.ErrMemberBorrowLimitExceeded if the member holds MaxBorrowLimit books
//   - lending.ErrValidationFailed if loanDate is zero
//
// On success the book is unavailable, the member's count is incremented, the new loan is stored
// and a loan confirmation is sent.
func (s *LibraryService) BorrowBook(
	ctx context.Context,
	isbn lending.ISBNString,
	memberID lending.MemberIDString,
	loanDate time.Time,
) (loan lending.Loan, err error) {
	isbn, memberID = strings.TrimSpace(isbn), strings.TrimSpace(memberID)

	ctx, op := s.startOperation(ctx, OperationBorrowBook, map[string]string{
		LogAttrISBN:     isbn,
		LogAttrMemberID: memberID,
	})
	defer func() { op.finish(err) }()

	unlockBook := s.locker.lock(bookKey(isbn))
	defer unlockBook()

	unlockMember := s.locker.lock(memberKey(memberID))
	defer unlockMember()

	var (
		book   lending.Book
		member lending.Member
	)

	err = s.inUnitOfWork(ctx, OperationBorrowBook, func(ctx context.Context) error {
		b, m, err := s.loadBookAndMember(ctx, isbn, memberID)
		if err != nil {
			return err
		}

		if !b.IsAvailable() {
			return lending.BookNotAvailableError(b.ISBN, b.Title)
		}

		if !m.CanBorrow() {
			return lending.MemberBorrowLimitExceededError(m.ID, m.MaxBorrowLimit)
		}

		newLoan, err := s.policy.BuildLoan(&b, &m, loanDate)
		if err != nil {
			return err
		}

		if err = b.Borrow(); err != nil {
			return err
		}

		if err = m.BorrowBook(); err != nil {
			return err
		}

		if err = s.books.Save(ctx, &b); err != nil {
			return err
		}

		if err = s.members.Save(ctx, &m); err != nil {
			return err
		}

		if err = s.loans.Save(ctx, newLoan); err != nil {
			return err
		}

		book, member, loan = b, m, *newLoan

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	op.attrs[LogAttrLoanID] = loan.ID.String()

	s.notify(ctx, notificationLoanConfirmation, member, book, func() error {
		return s.notifier.SendLoanConfirmation(ctx, member, book)
	})

	return loan, nil
}

// ReturnBook closes the active loan of the book with isbn at returnDate.
//
// Errors:
//   - lending.ErrNoActiveLoan if the book is not lent
//   - lending.ErrReturnBeforeLoanDate if returnDate is before the loan date
//   - lending.ErrValidationFailed if returnDate is zero
//
// On success the book is available again, the member's count is decremented
// and a return confirmation is sent. The returned loan stays in the member's history.
func (s *LibraryService) ReturnBook(
	ctx context.Context,
	isbn lending.ISBNString,
	returnDate time.Time,
) (loan lending.Loan, err error) {
	isbn = strings.TrimSpace(isbn)

	ctx, op := s.startOperation(ctx, OperationReturnBook, map[string]string{LogAttrISBN: isbn})
	defer func() { op.finish(err) }()

	unlockBook := s.locker.lock(bookKey(isbn))
	defer unlockBook()

	// The borrower is only known from the loan, so the member lock follows the first lookup.
	active, found, err := s.loans.FindActiveLoanByISBN(ctx, isbn)
	if err != nil {
		return lending.Loan{}, err
	}

	if !found {
		return lending.Loan{}, lending.NoActiveLoanError(isbn)
	}

	op.attrs[LogAttrMemberID] = active.MemberID
	op.attrs[LogAttrLoanID] = active.ID.String()

	unlockMember := s.locker.lock(memberKey(active.MemberID))
	defer unlockMember()

	var (
		book   lending.Book
		member lending.Member
	)

	err = s.inUnitOfWork(ctx, OperationReturnBook, func(ctx context.Context) error {
		l, found, err := s.loans.FindActiveLoanByISBN(ctx, isbn)
		if err != nil {
			return err
		}

		if !found {
			return lending.NoActiveLoanError(isbn)
		}

		if l.ID != active.ID {
			// another process returned and lent the book between the lookups
			return errors.Join(lending.ErrConcurrencyConflict, fmt.Errorf("active loan of %s changed", isbn))
		}

		b, m, err := s.loadBookAndMember(ctx, l.ISBN, l.MemberID)
		if err != nil {
			return err
		}

		if err = l.Return(returnDate); err != nil {
			return err
		}

		if err = b.Return(); err != nil {
			return err
		}

		if err = m.ReturnBook(); err != nil {
			return err
		}

		if err = s.loans.Save(ctx, &l); err != nil {
			return err
		}

		if err = s.books.Save(ctx, &b); err != nil {
			return err
		}

		if err = s.members.Save(ctx, &m); err != nil {
			return err
		}

		loan, book, member = l, b, m

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	s.notify(ctx, notificationReturnConfirmation, member, book, func() error {
		return s.notifier.SendReturnConfirmation(ctx, member, book)
	})

	return loan, nil
}

// RegisterBook adds a new book to the catalog.
// It fails with lending.ErrValidationFailed for blank fields and with
// lending.ErrBookAlreadyRegistered if the ISBN is taken.
func (s *LibraryService) RegisterBook(
	ctx context.Context,
	title string,
	author string,
	isbn lending.ISBNString,
) (book lending.Book, err error) {
	ctx, op := s.startOperation(ctx, OperationRegisterBook, map[string]string{LogAttrISBN: strings.TrimSpace(isbn)})
	defer func() { op.finish(err) }()

	newBook, err := lending.BuildBook(title, author, isbn)
	if err != nil {
		return lending.Book{}, err
	}

	unlock := s.locker.lock(bookKey(newBook.ISBN))
	defer unlock()

	err = s.inUnitOfWork(ctx, OperationRegisterBook, func(ctx context.Context) error {
		exists, err := s.books.ExistsByISBN(ctx, newBook.ISBN)
		if err != nil {
			return err
		}

		if exists {
			return lending.BookAlreadyRegisteredError(newBook.ISBN)
		}

		b := *newBook
		if err = s.books.Save(ctx, &b); err != nil {
			return err
		}

		book = b

		return nil
	})
	if err != nil {
		return lending.Book{}, err
	}

	return book, nil
}

// RegisterMember adds a new member. The borrow limit defaults to the policy's DefaultBorrowLimit.
// It fails with lending.ErrValidationFailed for blank fields or a limit below 1, and with
// lending.ErrMemberAlreadyRegistered if the ID is taken.
func (s *LibraryService) RegisterMember(
	ctx context.Context,
	memberID lending.MemberIDString,
	name string,
	opts ...lending.MemberOption,
) (member lending.Member, err error) {
	ctx, op := s.startOperation(ctx, OperationRegisterMember, map[string]string{
		LogAttrMemberID: strings.TrimSpace(memberID),
	})
	defer func() { op.finish(err) }()

	newMember, err := s.policy.BuildMember(memberID, name, opts...)
	if err != nil {
		return lending.Member{}, err
	}

	unlock := s.locker.lock(memberKey(newMember.ID))
	defer unlock()

	err = s.inUnitOfWork(ctx, OperationRegisterMember, func(ctx context.Context) error {
		exists, err := s.members.ExistsByID(ctx, newMember.ID)
		if err != nil {
			return err
		}

		if exists {
			return lending.MemberAlreadyRegisteredError(newMember.ID)
		}

		m := *newMember
		if err = s.members.Save(ctx, &m); err != nil {
			return err
		}

		member = m

		return nil
	})
	if err != nil {
		return lending.Member{}, err
	}

	return member, nil
}

// RemoveBook deletes a book from the catalog.
// It fails with lending.ErrBookNotFound, or lending.ErrBookIsBorrowed while the book is lent.
func (s *LibraryService) RemoveBook(ctx context.Context, isbn lending.ISBNString) (err error) {
	isbn = strings.TrimSpace(isbn)

	ctx, op := s.startOperation(ctx, OperationRemoveBook, map[string]string{LogAttrISBN: isbn})
	defer func() { op.finish(err) }()

	unlock := s.locker.lock(bookKey(isbn))
	defer unlock()

	return s.inUnitOfWork(ctx, OperationRemoveBook, func(ctx context.Context) error {
		book, found, err := s.books.FindByISBN(ctx, isbn)
		if err != nil {
			return err
		}

		if !found {
			return lending.BookNotFoundError(isbn)
		}

		if !book.IsAvailable() {
			return lending.BookIsBorrowedError(isbn)
		}

		return s.books.DeleteByISBN(ctx, isbn)
	})
}

// loadBookAndMember looks up both entities, the book first.
func (s *LibraryService) loadBookAndMember(
	ctx context.Context,
	isbn lending.ISBNString,
	memberID lending.MemberIDString,
) (lending.Book, lending.Member, error) {
	book, found, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		return lending.Book{}, lending.Member{}, err
	}

	if !found {
		return lending.Book{}, lending.Member{}, lending.BookNotFoundError(isbn)
	}

	member, found, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return lending.Book{}, lending.Member{}, err
	}

	if !found {
		return lending.Book{}, lending.Member{}, lending.MemberNotFoundError(memberID)
	}

	return book, member, nil
}

// inUnitOfWork runs fn directly, or in a retried transaction if a Transactor is configured.
// Without a transaction a partially applied fn can't be undone, so it is never repeated.
func (s *LibraryService) inUnitOfWork(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if s.transactor == nil {
		return fn(ctx)
	}

	metrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return s.transactor.RunInTransaction(retryCtx, fn)
	}, s.retryOptions...)

	s.observeRetries(ctx, operation, metrics)

	return err
}

// today returns checkDate, or the clock's date if checkDate is zero.
func (s *LibraryService) today(checkDate time.Time) time.Time {
	if checkDate.IsZero() {
		return lending.ToCivilDate(s.clock())
	}

	return lending.ToCivilDate(checkDate)
}
