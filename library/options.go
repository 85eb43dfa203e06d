package library

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var (
	// ErrNilRepository is returned by NewLibraryService when a repository is missing.
	ErrNilRepository = errors.New("repository must not be nil")

	// ErrNilNotifier is returned when a nil notifier is provided to WithNotifier.
	ErrNilNotifier = errors.New("notifier must not be nil")

	// ErrNilClock is returned when a nil clock is provided to WithClock.
	ErrNilClock = errors.New("clock must not be nil")
)

// Option defines a functional option for configuring a LibraryService.
type Option func(*LibraryService) error

// WithPolicy sets the lending rules. The policy is validated when the option is applied.
func WithPolicy(policy lending.Policy) Option {
	return func(s *LibraryService) error {
		if err := policy.Validate(); err != nil {
			return err
		}

		s.policy = policy

		return nil
	}
}

// WithNotifier sets the notifier for loan confirmations, return confirmations, overdue notices and reminders.
// Without it, notifications are discarded.
func WithNotifier(notifier lending.Notifier) Option {
	return func(s *LibraryService) error {
		if notifier == nil {
			return ErrNilNotifier
		}

		s.notifier = notifier

		return nil
	}
}

// WithTransactor makes all writes of an operation run in one storage transaction.
// Only with a transactor are concurrency conflicts from the storage retried.
func WithTransactor(transactor lending.Transactor) Option {
	return func(s *LibraryService) error {
		s.transactor = transactor
		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for concurrency conflicts.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(s *LibraryService) error {
		// validate eagerly, so a broken configuration fails at construction time
		probe := &retryConfig{}
		for _, opt := range opts {
			if err := opt(probe); err != nil {
				return err
			}
		}

		s.retryOptions = opts

		return nil
	}
}

// WithLogger sets the logger for the LibraryService.
//
// Debug level: completed operations with timing
// Info level: business rejections and retried conflicts
// Warn level: failed notifications
// Error level: storage failures.
func WithLogger(logger lending.Logger) Option {
	return func(s *LibraryService) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger, which is used instead of the plain logger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(s *LibraryService) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for operation durations, calls, rejections and retries.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *LibraryService) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector. Every operation runs in its own span.
func WithTracing(collector lending.TracingCollector) Option {
	return func(s *LibraryService) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithClock sets the clock used for "today" when a query is called with a zero check date.
func WithClock(clock func() time.Time) Option {
	return func(s *LibraryService) error {
		if clock == nil {
			return ErrNilClock
		}

		s.clock = clock

		return nil
	}
}
