package library_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func Test_LibraryService_Observability_Success(t *testing.T) {
	// arrange
	logSpy := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	tracing := helper.NewTracingCollectorSpy(true)
	service := newMemoryService(t,
		library.WithLogger(slog.New(logSpy)),
		library.WithMetrics(metrics),
		library.WithTracing(tracing))
	givenRegisteredBook(t, service, 1)
	givenRegisteredMember(t, service, 1)

	// act
	loan := givenBorrowedBook(t, service, 1, 1, helper.GivenDate(2025, 9, 1))

	// assert
	assert.True(t, logSpy.HasDebugLogWithMessage(library.LogMsgOperationCompleted).
		WithAttribute(library.LogAttrOperation, library.OperationBorrowBook).
		WithAttribute(library.LogAttrISBN, helper.FixtureISBN(1)).
		WithAttribute(library.LogAttrLoanID, loan.ID.String()).
		WithDurationMS().
		Assert())

	assert.True(t, metrics.HasDurationRecordForMetric(library.OperationDurationMetric).
		WithOperation(library.OperationBorrowBook).
		WithStatus(library.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(library.OperationCallsMetric).
		WithOperation(library.OperationRegisterBook).
		WithStatus(library.StatusSuccess).
		Assert())

	assert.True(t, tracing.HasSpan(library.SpanNamePrefix+library.OperationBorrowBook, library.StatusSuccess))
}

func Test_LibraryService_Observability_BusinessRejection(t *testing.T) {
	// arrange
	logSpy := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	tracing := helper.NewTracingCollectorSpy(true)
	service := newMemoryService(t,
		library.WithLogger(slog.New(logSpy)),
		library.WithMetrics(metrics),
		library.WithTracing(tracing))

	// act
	_, err := service.BorrowBook(
		context.Background(),
		helper.FixtureISBN(1),
		helper.FixtureMemberID(1),
		helper.GivenDate(2025, 9, 1))

	// assert
	require.ErrorIs(t, err, lending.ErrBookNotFound)

	assert.True(t, logSpy.HasInfoLogWithMessage(library.LogMsgOperationRejected).
		WithAttribute(library.LogAttrErrorCode, string(lending.CodeBookNotFound)).
		Assert())
	assert.False(t, logSpy.HasErrorLogWithMessage(library.LogMsgOperationFailed).Assert(),
		"business rejections are not errors")

	assert.True(t, metrics.HasCounterRecordForMetric(library.BusinessRejectionsMetric).
		WithOperation(library.OperationBorrowBook).
		WithLabel(library.LogAttrErrorCode, string(lending.CodeBookNotFound)).
		Assert())
	assert.True(t, tracing.HasSpan(library.SpanNamePrefix+library.OperationBorrowBook, library.StatusRejected))
}

// failingBookRepository fails every lookup.
type failingBookRepository struct {
	lending.BookRepository
}

func (failingBookRepository) FindByISBN(context.Context, lending.ISBNString) (lending.Book, bool, error) {
	return lending.Book{}, false, errors.Join(lending.ErrQueryFailed, errors.New("connection reset"))
}

func Test_LibraryService_Observability_StorageFailure(t *testing.T) {
	// arrange
	logSpy := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	service, err := library.NewLibraryService(
		failingBookRepository{BookRepository: memoryengine.NewBookRepository()},
		memoryengine.NewMemberRepository(),
		memoryengine.NewLoanRepository(),
		library.WithContextualLogger(oteladapters.NewSlogBridgeLoggerWithHandler(logSpy)),
		library.WithMetrics(metrics))
	require.NoError(t, err)

	// act
	_, err = service.FindBook(context.Background(), helper.FixtureISBN(1))

	// assert
	require.ErrorIs(t, err, lending.ErrQueryFailed)
	assert.Equal(t, lending.KindUnknown, lending.GetKind(err))

	assert.True(t, logSpy.HasErrorLogWithMessage(library.LogMsgOperationFailed).
		WithAttribute(library.LogAttrOperation, library.OperationFindBook).
		WithAttributeKey(library.LogAttrError).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(library.OperationCallsMetric).
		WithOperation(library.OperationFindBook).
		WithStatus(library.StatusError).
		Assert())
}

func Test_LibraryService_WithOpenTelemetry(t *testing.T) {
	// arrange
	exporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer

	service := newMemoryService(t,
		library.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer("library"))),
		library.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter("library"))),
		library.WithContextualLogger(oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&logs, nil))))
	givenRegisteredBook(t, service, 1)
	givenRegisteredMember(t, service, 1)

	// act
	givenBorrowedBook(t, service, 1, 1, helper.GivenDate(2025, 9, 1))
	_, err := service.BorrowBook(context.Background(), helper.FixtureISBN(1), helper.FixtureMemberID(1), helper.GivenDate(2025, 9, 2))

	// assert
	require.ErrorIs(t, err, lending.ErrBookNotAvailable)

	statusByName := make(map[string][]codes.Code)
	for _, span := range exporter.GetSpans() {
		statusByName[span.Name] = append(statusByName[span.Name], span.Status.Code)
	}
	assert.Equal(t, []codes.Code{codes.Ok, codes.Unset}, statusByName[library.SpanNamePrefix+library.OperationBorrowBook])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names[library.OperationDurationMetric])
	assert.True(t, names[library.OperationCallsMetric])
	assert.True(t, names[library.BusinessRejectionsMetric])

	assert.Contains(t, logs.String(), library.LogMsgOperationRejected)
}
