package lending

import "context"

// Notifier informs members about their loans.
// Delivery is best-effort: the LibraryService logs a failed notification and carries on.
type Notifier interface {
	SendLoanConfirmation(ctx context.Context, member Member, book Book) error
	SendReturnConfirmation(ctx context.Context, member Member, book Book) error
	SendOverdueNotification(ctx context.Context, member Member, book Book, overdueDays int) error
	SendDueDateReminder(ctx context.Context, member Member, book Book, daysUntilDue int) error
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) SendLoanConfirmation(context.Context, Member, Book) error   { return nil }
func (NoopNotifier) SendReturnConfirmation(context.Context, Member, Book) error { return nil }
func (NoopNotifier) SendOverdueNotification(context.Context, Member, Book, int) error {
	return nil
}
func (NoopNotifier) SendDueDateReminder(context.Context, Member, Book, int) error { return nil }
