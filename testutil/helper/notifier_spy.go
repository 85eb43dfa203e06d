package helper

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Notification kinds recorded by the NotifierSpy.
const (
	NotificationLoanConfirmation   = "loan_confirmation"
	NotificationReturnConfirmation = "return_confirmation"
	NotificationOverdue            = "overdue"
	NotificationDueDateReminder    = "due_date_reminder"
)

// SpyNotification represents one recorded notification.
type SpyNotification struct {
	Kind     string
	MemberID lending.MemberIDString
	ISBN     lending.ISBNString
	Days     int
}

// NotifierSpy is a lending.Notifier that records all notifications.
// If Err is set, every call is recorded and then fails with Err.
type NotifierSpy struct {
	Err           error
	notifications []SpyNotification
	mu            sync.Mutex
}

// NewNotifierSpy creates a new NotifierSpy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{notifications: make([]SpyNotification, 0)}
}

// SendLoanConfirmation implements lending.Notifier.
func (s *NotifierSpy) SendLoanConfirmation(_ context.Context, member lending.Member, book lending.Book) error {
	return s.record(NotificationLoanConfirmation, member, book, 0)
}

// SendReturnConfirmation implements lending.Notifier.
func (s *NotifierSpy) SendReturnConfirmation(_ context.Context, member lending.Member, book lending.Book) error {
	return s.record(NotificationReturnConfirmation, member, book, 0)
}

// SendOverdueNotification implements lending.Notifier.
func (s *NotifierSpy) SendOverdueNotification(
	_ context.Context,
	member lending.Member,
	book lending.Book,
	overdueDays int,
) error {
	return s.record(NotificationOverdue, member, book, overdueDays)
}

// SendDueDateReminder implements lending.Notifier.
func (s *NotifierSpy) SendDueDateReminder(
	_ context.Context,
	member lending.Member,
	book lending.Book,
	daysUntilDue int,
) error {
	return s.record(NotificationDueDateReminder, member, book, daysUntilDue)
}

func (s *NotifierSpy) record(kind string, member lending.Member, book lending.Book, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, SpyNotification{
		Kind:     kind,
		MemberID: member.ID,
		ISBN:     book.ISBN,
		Days:     days,
	})

	return s.Err
}

// GetNotifications returns a copy of all recorded notifications.
func (s *NotifierSpy) GetNotifications() []SpyNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := make([]SpyNotification, len(s.notifications))
	copy(notifications, s.notifications)

	return notifications
}

// CountKind returns how many notifications of the given kind were recorded.
func (s *NotifierSpy) CountKind(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if n.Kind == kind {
			count++
		}
	}

	return count
}
