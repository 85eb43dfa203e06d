package sqlengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func (s *Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

// observeDuration logs the statement at debug level and records its duration.
func (s *Store) observeDuration(ctx context.Context, action string, sqlQuery string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)

	labels := map[string]string{labelOperation: action, labelStatus: statusSuccess}

	if collector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		collector.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
	}
}

func (s *Store) recordError(ctx context.Context, action string, errorType string) {
	s.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		labelOperation: action,
		labelStatus:    statusError,
		labelErrorType: errorType,
	})
}

func (s *Store) recordConflict(ctx context.Context, action string) {
	s.incrementCounter(ctx, metricConcurrencyConflict, map[string]string{labelOperation: action})
}

func (s *Store) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if collector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		collector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, labels)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
