package library

import (
	"context"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	notificationLoanConfirmation   = "loan_confirmation"
	notificationReturnConfirmation = "return_confirmation"
	notificationOverdue            = "overdue"
	notificationDueDateReminder    = "due_date_reminder"
)

// SendOverdueNotifications notifies the borrower of every loan that is overdue at checkDate.
// A zero checkDate means today. It returns the number of notifications the notifier accepted.
// Failed notifications are logged and skipped.
func (s *LibraryService) SendOverdueNotifications(ctx context.Context, checkDate time.Time) (sent int, err error) {
	ctx, op := s.startOperation(ctx, OperationSendOverdueNotifications, nil)
	defer func() { op.finish(err) }()

	checkDate = s.today(checkDate)

	overdue, err := s.overdueLoans(ctx, checkDate)
	if err != nil {
		return 0, err
	}

	s.recordValue(ctx, OverdueLoansMetric, float64(len(overdue)), nil)

	for _, loan := range overdue {
		member, book, ok, err := s.loanParties(ctx, loan, notificationOverdue)
		if err != nil {
			return sent, err
		}

		if !ok {
			continue
		}

		overdueDays := loan.OverdueDays(checkDate)
		if s.notify(ctx, notificationOverdue, member, book, func() error {
			return s.notifier.SendOverdueNotification(ctx, member, book, overdueDays)
		}) {
			sent++
		}
	}

	op.attrs["sent"] = strconv.Itoa(sent)

	return sent, nil
}

// SendDueDateReminders reminds the borrowers of active loans that are not overdue and
// fall due within withinDays after checkDate, the due date included.
// A zero checkDate means today. It fails with lending.ErrValidationFailed if withinDays is negative.
func (s *LibraryService) SendDueDateReminders(
	ctx context.Context,
	checkDate time.Time,
	withinDays int,
) (sent int, err error) {
	ctx, op := s.startOperation(ctx, OperationSendDueDateReminders, map[string]string{
		"within_days": strconv.Itoa(withinDays),
	})
	defer func() { op.finish(err) }()

	if withinDays < 0 {
		return 0, lending.ValidationError("within days", "within days must not be negative")
	}

	checkDate = s.today(checkDate)

	active, err := s.loans.FindActiveLoans(ctx)
	if err != nil {
		return 0, err
	}

	for _, loan := range active {
		daysUntilDue := loan.DaysUntilDue(checkDate)
		if daysUntilDue < 0 || daysUntilDue > withinDays {
			continue
		}

		member, book, ok, err := s.loanParties(ctx, loan, notificationDueDateReminder)
		if err != nil {
			return sent, err
		}

		if !ok {
			continue
		}

		if s.notify(ctx, notificationDueDateReminder, member, book, func() error {
			return s.notifier.SendDueDateReminder(ctx, member, book, daysUntilDue)
		}) {
			sent++
		}
	}

	op.attrs["sent"] = strconv.Itoa(sent)

	return sent, nil
}

// loanParties loads the member and the book of a loan. ok is false if one of them no longer exists.
func (s *LibraryService) loanParties(
	ctx context.Context,
	loan lending.Loan,
	kind string,
) (member lending.Member, book lending.Book, ok bool, err error) {
	member, memberFound, err := s.members.FindByID(ctx, loan.MemberID)
	if err != nil {
		return lending.Member{}, lending.Book{}, false, err
	}

	book, bookFound, err := s.books.FindByISBN(ctx, loan.ISBN)
	if err != nil {
		return lending.Member{}, lending.Book{}, false, err
	}

	if !memberFound || !bookFound {
		s.logWarn(ctx, LogMsgNotificationSkipped,
			LogAttrNotification, kind,
			LogAttrLoanID, loan.ID.String(),
			LogAttrISBN, loan.ISBN,
			LogAttrMemberID, loan.MemberID)

		return lending.Member{}, lending.Book{}, false, nil
	}

	return member, book, true, nil
}

// notify calls send and reports whether it succeeded. Errors are logged, never returned.
func (s *LibraryService) notify(
	ctx context.Context,
	kind string,
	member lending.Member,
	book lending.Book,
	send func() error,
) bool {
	if err := send(); err != nil {
		s.logWarn(ctx, LogMsgNotificationFailed,
			LogAttrNotification, kind,
			LogAttrISBN, book.ISBN,
			LogAttrMemberID, member.ID,
			LogAttrError, err.Error())
		s.incrementCounter(ctx, NotificationsFailedMetric, map[string]string{LogAttrNotification: kind})

		return false
	}

	return true
}
