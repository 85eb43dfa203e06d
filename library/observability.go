package library

import (
	"context"
	"errors"
	"maps"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// OperationDurationMetric tracks the duration of service operations.
	OperationDurationMetric = "libraryservice_operation_duration_seconds"
	// OperationCallsMetric counts service operations by status.
	OperationCallsMetric = "libraryservice_operation_calls_total"
	// BusinessRejectionsMetric counts operations that violated a business rule, by error code.
	BusinessRejectionsMetric = "libraryservice_business_rejections_total"
	// RetriesMetric counts operations that needed more than one attempt.
	RetriesMetric = "libraryservice_retries_total"
	// MaxRetriesReachedMetric counts operations that gave up on a concurrency conflict.
	MaxRetriesReachedMetric = "libraryservice_max_retries_reached_total"
	// OverdueLoansMetric is the number of overdue loans found by the last overdue query.
	OverdueLoansMetric = "libraryservice_overdue_loans"
	// NotificationsFailedMetric counts notifications the notifier could not deliver.
	NotificationsFailedMetric = "libraryservice_notifications_failed_total"

	// StatusSuccess indicates a completed operation.
	StatusSuccess = "success"
	// StatusRejected indicates a violated business rule.
	StatusRejected = "rejected"
	// StatusConflict indicates a concurrency conflict that could not be resolved by retrying.
	StatusConflict = "conflict"
	// StatusCanceled indicates a canceled or timed out context.
	StatusCanceled = "canceled"
	// StatusError indicates an infrastructure failure.
	StatusError = "error"

	// LogMsgOperationCompleted is logged when an operation succeeds.
	LogMsgOperationCompleted = "library operation completed"
	// LogMsgOperationRejected is logged when an operation violates a business rule.
	LogMsgOperationRejected = "library operation rejected"
	// LogMsgOperationFailed is logged when an operation fails for a technical reason.
	LogMsgOperationFailed = "library operation failed"
	// LogMsgOperationRetried is logged when an operation needed more than one attempt.
	LogMsgOperationRetried = "library operation retried after concurrency conflict"
	// LogMsgNotificationFailed is logged when the notifier returns an error.
	LogMsgNotificationFailed = "notification failed"
	// LogMsgNotificationSkipped is logged when a loan references a book or member that no longer exists.
	LogMsgNotificationSkipped = "notification skipped"

	// LogAttrOperation identifies the operation in logs and metric labels.
	LogAttrOperation = "operation"
	// LogAttrStatus indicates the outcome of the operation.
	LogAttrStatus = "status"
	// LogAttrDurationMS indicates the operation duration in milliseconds.
	LogAttrDurationMS = "duration_ms"
	// LogAttrError contains error details.
	LogAttrError = "error"
	// LogAttrErrorCode contains the lending.Code of a rejection.
	LogAttrErrorCode = "error_code"
	// LogAttrErrorType classifies retried errors.
	LogAttrErrorType = "error_type"
	// LogAttrAttempts is the number of attempts of a retried operation.
	LogAttrAttempts = "attempts"
	// LogAttrNotification is the kind of notification.
	LogAttrNotification = "notification"
	// LogAttrISBN identifies a book.
	LogAttrISBN = "isbn"
	// LogAttrMemberID identifies a member.
	LogAttrMemberID = "member_id"
	// LogAttrLoanID identifies a loan.
	LogAttrLoanID = "loan_id"

	// SpanNamePrefix prefixes the operation name in span names, e.g. "libraryservice.borrow_book".
	SpanNamePrefix = "libraryservice."
)

// Operation names used in logs, metric labels and span names.
const (
	OperationBorrowBook               = "borrow_book"
	OperationReturnBook               = "return_book"
	OperationGetMemberLoans           = "get_member_loans"
	OperationGetOverdueBooks          = "get_overdue_books"
	OperationCalculateLateFee         = "calculate_late_fee"
	OperationRegisterBook             = "register_book"
	OperationRegisterMember           = "register_member"
	OperationRemoveBook               = "remove_book"
	OperationFindBook                 = "find_book"
	OperationListBooks                = "list_books"
	OperationListAvailableBooks       = "list_available_books"
	OperationSearchBooksByTitle       = "search_books_by_title"
	OperationSearchBooksByAuthor      = "search_books_by_author"
	OperationListMembers              = "list_members"
	OperationCountActiveLoans         = "count_active_loans"
	OperationSendOverdueNotifications = "send_overdue_notifications"
	OperationSendDueDateReminders     = "send_due_date_reminders"
)

// observedOperation carries the measurements of one service call from start to finish.
type observedOperation struct {
	service *LibraryService
	ctx     context.Context
	name    string
	attrs   map[string]string
	start   time.Time
	span    lending.SpanContext
}

func (s *LibraryService) startOperation(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, *observedOperation) {
	if attrs == nil {
		attrs = make(map[string]string)
	}

	op := &observedOperation{
		service: s,
		name:    name,
		attrs:   attrs,
		start:   time.Now(),
	}

	if s.tracingCollector != nil {
		spanAttrs := maps.Clone(attrs)
		spanAttrs[LogAttrOperation] = name

		ctx, op.span = s.tracingCollector.StartSpan(ctx, SpanNamePrefix+name, spanAttrs)
	}

	op.ctx = ctx

	return ctx, op
}

// finish records duration and calls, logs the outcome and ends the span.
func (o *observedOperation) finish(err error) {
	s := o.service
	duration := time.Since(o.start)
	status := classifyOutcome(err)

	labels := map[string]string{LogAttrOperation: o.name, LogAttrStatus: status}
	s.recordDuration(o.ctx, OperationDurationMetric, duration, labels)
	s.incrementCounter(o.ctx, OperationCallsMetric, labels)

	args := []any{LogAttrOperation, o.name, LogAttrStatus, status, LogAttrDurationMS, toMilliseconds(duration)}
	for _, key := range slices.Sorted(maps.Keys(o.attrs)) {
		args = append(args, key, o.attrs[key])
	}

	spanAttrs := map[string]string{LogAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64)}

	switch status {
	case StatusSuccess:
		s.logDebug(o.ctx, LogMsgOperationCompleted, args...)

	case StatusRejected:
		code := string(lending.GetCode(err))
		s.incrementCounter(o.ctx, BusinessRejectionsMetric, map[string]string{
			LogAttrOperation: o.name,
			LogAttrErrorCode: code,
		})
		s.logInfo(o.ctx, LogMsgOperationRejected, append(args, LogAttrErrorCode, code, LogAttrError, err.Error())...)
		spanAttrs[LogAttrErrorCode] = code

	default:
		s.logError(o.ctx, LogMsgOperationFailed, err, args...)
		spanAttrs[LogAttrError] = err.Error()
	}

	if o.span != nil {
		s.tracingCollector.FinishSpan(o.span, status, spanAttrs)
	}
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case lending.GetKind(err) != lending.KindUnknown:
		return StatusRejected
	case errors.Is(err, lending.ErrConcurrencyConflict):
		return StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}

// observeRetries records the retry metrics of one unit of work, if it was retried at all.
func (s *LibraryService) observeRetries(ctx context.Context, operation string, metrics RetryMetrics) {
	if metrics.Attempts > 1 {
		s.incrementCounter(ctx, RetriesMetric, map[string]string{
			LogAttrOperation: operation,
			LogAttrAttempts:  strconv.Itoa(metrics.Attempts),
		})
		s.logInfo(ctx, LogMsgOperationRetried,
			LogAttrOperation, operation,
			LogAttrAttempts, metrics.Attempts,
			LogAttrErrorType, metrics.LastErrorType,
			"total_delay_ms", toMilliseconds(metrics.TotalDelay))
	}

	if metrics.RetriesExhausted {
		s.incrementCounter(ctx, MaxRetriesReachedMetric, map[string]string{
			LogAttrOperation: operation,
			LogAttrErrorType: metrics.LastErrorType,
		})
	}
}

func (s *LibraryService) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *LibraryService) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *LibraryService) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *LibraryService) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

func (s *LibraryService) recordDuration(
	ctx context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	if collector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		collector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metric, duration, labels)
	}
}

func (s *LibraryService) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if collector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		collector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, labels)
	}
}

func (s *LibraryService) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if collector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		collector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	if s.metricsCollector != nil {
		s.metricsCollector.RecordValue(metric, value, labels)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
