package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Message kinds.
const (
	KindLoanConfirmation   = "loan_confirmation"
	KindReturnConfirmation = "return_confirmation"
	KindOverdue            = "overdue"
	KindDueDateReminder    = "due_date_reminder"
)

// Message is one notification to one member about one book.
type Message struct {
	Kind       string    `json:"kind"`
	MemberID   string    `json:"member_id"`
	MemberName string    `json:"member_name"`
	Email      string    `json:"email,omitempty"`
	ISBN       string    `json:"isbn"`
	Title      string    `json:"title"`
	Days       int       `json:"days,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier implements lending.Notifier on top of a Sender.
type Notifier struct {
	sender Sender
	clock  func() time.Time
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithClock sets the clock for Message.CreatedAt.
func WithClock(clock func() time.Time) NotifierOption {
	return func(n *Notifier) {
		n.clock = clock
	}
}

// NewNotifier creates a Notifier that sends every notification through sender.
func NewNotifier(sender Sender, opts ...NotifierOption) *Notifier {
	notifier := &Notifier{sender: sender, clock: time.Now}

	for _, opt := range opts {
		opt(notifier)
	}

	return notifier
}

// SendLoanConfirmation implements lending.Notifier.
func (n *Notifier) SendLoanConfirmation(ctx context.Context, member lending.Member, book lending.Book) error {
	text := fmt.Sprintf("Dear %s, you borrowed %q (%s).", member.Name, book.Title, book.ISBN)

	return n.sender.Send(ctx, n.message(KindLoanConfirmation, member, book, 0, text))
}

// SendReturnConfirmation implements lending.Notifier.
func (n *Notifier) SendReturnConfirmation(ctx context.Context, member lending.Member, book lending.Book) error {
	text := fmt.Sprintf("Dear %s, thank you for returning %q (%s).", member.Name, book.Title, book.ISBN)

	return n.sender.Send(ctx, n.message(KindReturnConfirmation, member, book, 0, text))
}

// SendOverdueNotification implements lending.Notifier.
func (n *Notifier) SendOverdueNotification(
	ctx context.Context,
	member lending.Member,
	book lending.Book,
	overdueDays int,
) error {
	text := fmt.Sprintf("Dear %s, %q (%s) is %d day(s) overdue.", member.Name, book.Title, book.ISBN, overdueDays)

	return n.sender.Send(ctx, n.message(KindOverdue, member, book, overdueDays, text))
}

// SendDueDateReminder implements lending.Notifier.
func (n *Notifier) SendDueDateReminder(
	ctx context.Context,
	member lending.Member,
	book lending.Book,
	daysUntilDue int,
) error {
	var text string
	if daysUntilDue == 0 {
		text = fmt.Sprintf("Dear %s, %q (%s) is due today.", member.Name, book.Title, book.ISBN)
	} else {
		text = fmt.Sprintf("Dear %s, %q (%s) is due in %d day(s).", member.Name, book.Title, book.ISBN, daysUntilDue)
	}

	return n.sender.Send(ctx, n.message(KindDueDateReminder, member, book, daysUntilDue, text))
}

func (n *Notifier) message(kind string, member lending.Member, book lending.Book, days int, text string) Message {
	return Message{
		Kind:       kind,
		MemberID:   member.ID,
		MemberName: member.Name,
		Email:      member.Email,
		ISBN:       book.ISBN,
		Title:      book.Title,
		Days:       days,
		Text:       text,
		CreatedAt:  n.clock().UTC(),
	}
}

var _ lending.Notifier = (*Notifier)(nil)
