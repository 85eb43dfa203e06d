package library_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func Test_LibraryService_SendOverdueNotifications(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			notifier := helper.NewNotifierSpy()
			service := engine.newService(t, library.WithNotifier(notifier))
			for n := 1; n <= 3; n++ {
				givenRegisteredBook(t, service, n)
				givenRegisteredMember(t, service, n)
			}
			givenBorrowedBook(t, service, 1, 1, helper.GivenDate(2025, 9, 1))  // due 09-15
			givenBorrowedBook(t, service, 2, 2, helper.GivenDate(2025, 9, 10)) // due 09-24
			givenBorrowedBook(t, service, 3, 3, helper.GivenDate(2025, 9, 20)) // due 10-04
			checkDate := helper.GivenDate(2025, 10, 1)

			// act
			sent, err := service.SendOverdueNotifications(ctx, checkDate)

			// assert
			require.NoError(t, err)
			assert.Equal(t, 2, sent)

			overdue := filterKind(notifier.GetNotifications(), helper.NotificationOverdue)
			assert.Equal(t, []helper.SpyNotification{
				{Kind: helper.NotificationOverdue, MemberID: helper.FixtureMemberID(1), ISBN: helper.FixtureISBN(1), Days: 16},
				{Kind: helper.NotificationOverdue, MemberID: helper.FixtureMemberID(2), ISBN: helper.FixtureISBN(2), Days: 7},
			}, overdue)
		})
	}
}

func Test_LibraryService_SendDueDateReminders(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			notifier := helper.NewNotifierSpy()
			service := engine.newService(t, library.WithNotifier(notifier))
			for n := 1; n <= 3; n++ {
				givenRegisteredBook(t, service, n)
				givenRegisteredMember(t, service, n)
			}
			givenBorrowedBook(t, service, 1, 1, helper.GivenDate(2025, 9, 1))  // due 09-15, overdue
			givenBorrowedBook(t, service, 2, 2, helper.GivenDate(2025, 9, 5))  // due 09-19
			givenBorrowedBook(t, service, 3, 3, helper.GivenDate(2025, 9, 10)) // due 09-24
			checkDate := helper.GivenDate(2025, 9, 17)

			// act
			sent, err := service.SendDueDateReminders(ctx, checkDate, 3)
			_, negativeErr := service.SendDueDateReminders(ctx, checkDate, -1)

			// assert
			require.NoError(t, err)
			assert.Equal(t, 1, sent)
			assert.Equal(t, []helper.SpyNotification{
				{Kind: helper.NotificationDueDateReminder, MemberID: helper.FixtureMemberID(2), ISBN: helper.FixtureISBN(2), Days: 2},
			}, filterKind(notifier.GetNotifications(), helper.NotificationDueDateReminder))
			assert.ErrorIs(t, negativeErr, lending.ErrValidationFailed)
		})
	}
}

func Test_LibraryService_NotifierErrorsAreLoggedAndIgnored(t *testing.T) {
	// arrange
	ctx := context.Background()
	logSpy := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	notifier := helper.NewNotifierSpy()
	notifier.Err = errors.New("smtp unavailable")
	service := newMemoryService(t,
		library.WithNotifier(notifier),
		library.WithLogger(slog.New(logSpy)),
		library.WithMetrics(metrics))
	givenRegisteredBook(t, service, 1)
	givenRegisteredMember(t, service, 1)

	// act
	loan, borrowErr := service.BorrowBook(ctx, helper.FixtureISBN(1), helper.FixtureMemberID(1), helper.GivenDate(2025, 9, 1))
	sent, sweepErr := service.SendOverdueNotifications(ctx, helper.GivenDate(2025, 10, 1))

	// assert
	require.NoError(t, borrowErr, "a failed notification does not fail the borrow")
	assert.NotEqual(t, lending.Loan{}, loan)
	require.NoError(t, sweepErr)
	assert.Zero(t, sent, "failed notifications are not counted")

	assert.Equal(t, 2, logSpy.HasWarnLogWithMessage(library.LogMsgNotificationFailed).
		WithAttribute(library.LogAttrError, "smtp unavailable").
		Count())
	assert.True(t, logSpy.HasWarnLogWithMessage(library.LogMsgNotificationFailed).
		WithAttribute(library.LogAttrNotification, "overdue").
		Assert())
	assert.Equal(t, 2, metrics.HasCounterRecordForMetric(library.NotificationsFailedMetric).Count())
}

func filterKind(notifications []helper.SpyNotification, kind string) []helper.SpyNotification {
	filtered := make([]helper.SpyNotification, 0)
	for _, n := range notifications {
		if n.Kind == kind {
			filtered = append(filtered, n)
		}
	}

	return filtered
}
