package sqlengine_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func newSQLiteStore(t *testing.T, options ...sqlengine.Option) *sqlengine.Store {
	t.Helper()

	ctx := context.Background()
	db, err := config.SQLiteDB(ctx, "file:"+filepath.Join(t.TempDir(), "lending.db"))
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlengine.NewStoreFromSQLDB(db, append([]sqlengine.Option{sqlengine.WithDialect(sqlengine.DialectSQLite)}, options...)...)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, store.Migrate(ctx), "error in arranging test data")

	return store
}

func Test_BookRepository_Contract(t *testing.T) {
	helper.RunBookRepositoryContract(t, func(t *testing.T) lending.BookRepository {
		return newSQLiteStore(t).Books()
	})
}

func Test_MemberRepository_Contract(t *testing.T) {
	helper.RunMemberRepositoryContract(t, func(t *testing.T) lending.MemberRepository {
		return newSQLiteStore(t).Members()
	})
}

func Test_LoanRepository_Contract(t *testing.T) {
	helper.RunLoanRepositoryContract(t, func(t *testing.T) lending.LoanRepository {
		return newSQLiteStore(t).Loans()
	})
}

func Test_LoanRepository_Contract_WithSQLX(t *testing.T) {
	helper.RunLoanRepositoryContract(t, func(t *testing.T) lending.LoanRepository {
		ctx := context.Background()
		db, err := config.SQLiteDB(ctx, "file:"+filepath.Join(t.TempDir(), "lending.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		store, err := sqlengine.NewStoreFromSQLX(sqlx.NewDb(db, "sqlite"), sqlengine.WithDialect(sqlengine.DialectSQLite))
		require.NoError(t, err)
		require.NoError(t, store.Migrate(ctx))

		return store.Loans()
	})
}

func Test_NewStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	// act
	_, pgxErr := sqlengine.NewStoreFromPGXPool(nil)
	_, sqlErr := sqlengine.NewStoreFromSQLDB(nil)
	_, sqlxErr := sqlengine.NewStoreFromSQLX(nil)

	// assert
	assert.ErrorIs(t, pgxErr, sqlengine.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlErr, sqlengine.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, sqlengine.ErrNilDatabaseConnection)
}

func Test_WithDialect_ShouldFail_ForUnknownDialect(t *testing.T) {
	// arrange
	db, err := config.SQLiteDB(context.Background(), "file:"+filepath.Join(t.TempDir(), "lending.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// act
	_, err = sqlengine.NewStoreFromSQLDB(db, sqlengine.WithDialect("mssql"))

	// assert
	assert.ErrorIs(t, err, sqlengine.ErrUnsupportedDialect)
}

func Test_Migrate_IsIdempotent(t *testing.T) {
	// arrange
	store := newSQLiteStore(t)

	// act
	err := store.Migrate(context.Background())

	// assert
	assert.NoError(t, err)
}

func Test_LoanRepository_SecondActiveLoanForSameISBN_IsAConflict(t *testing.T) {
	// arrange
	ctx := context.Background()
	loans := newSQLiteStore(t).Loans()
	first := helper.FixtureLoan(t, 1, 1, helper.GivenDate(2025, 9, 1))
	second := helper.FixtureLoan(t, 1, 2, helper.GivenDate(2025, 9, 2))
	require.NoError(t, loans.Save(ctx, first))

	// act
	err := loans.Save(ctx, second)

	// assert
	assert.ErrorIs(t, err, lending.ErrConcurrencyConflict)
	assert.Equal(t, uint(0), second.Version)
}

func Test_RunInTransaction_Commits(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := newSQLiteStore(t)
	book := helper.FixtureBook(t, 1)
	member := helper.FixtureMember(t, 1)

	// act
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := store.Books().Save(ctx, book); err != nil {
			return err
		}

		return store.Members().Save(ctx, member)
	})

	// assert
	require.NoError(t, err)
	bookExists, _ := store.Books().ExistsByISBN(ctx, book.ISBN)
	memberExists, _ := store.Members().ExistsByID(ctx, member.ID)
	assert.True(t, bookExists)
	assert.True(t, memberExists)
}

func Test_RunInTransaction_RollsBackOnError(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := helper.NewLogHandlerSpy(false)
	store := newSQLiteStore(t, sqlengine.WithLogger(slog.New(logHandler)))
	book := helper.FixtureBook(t, 1)
	errBoom := errors.New("boom")

	// act
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := store.Books().Save(ctx, book); err != nil {
			return err
		}

		return errBoom
	})

	// assert
	assert.ErrorIs(t, err, errBoom)
	exists, existsErr := store.Books().ExistsByISBN(ctx, book.ISBN)
	require.NoError(t, existsErr)
	assert.False(t, exists)
	assert.True(t, logHandler.HasInfoLogWithMessage("transaction rolled back").Assert())
}

func Test_RunInTransaction_NestedCallJoinsTransaction(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := newSQLiteStore(t)
	book := helper.FixtureBook(t, 1)

	// act
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		innerErr := store.RunInTransaction(ctx, func(ctx context.Context) error {
			return store.Books().Save(ctx, book)
		})
		if innerErr != nil {
			return innerErr
		}

		return errors.New("abort outer")
	})

	// assert
	require.Error(t, err)
	exists, _ := store.Books().ExistsByISBN(ctx, book.ISBN)
	assert.False(t, exists)
}

func Test_Store_LogsAndMeasuresStatements(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	store := newSQLiteStore(t, sqlengine.WithLogger(slog.New(logHandler)), sqlengine.WithMetrics(metrics))
	book := helper.FixtureBook(t, 1)
	require.NoError(t, store.Books().Save(ctx, book))
	stale := *book
	require.NoError(t, store.Books().Save(ctx, book))

	// act
	err := store.Books().Save(ctx, &stale)

	// assert
	assert.ErrorIs(t, err, lending.ErrConcurrencyConflict)
	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: save book").WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("concurrency conflict detected").
		WithAttribute("action", "save book").Assert())
	assert.True(t, metrics.HasDurationRecordForMetric("sqlengine_query_duration_seconds").
		WithOperation("save book").WithStatus("success").Assert())
	assert.Equal(t, 1, metrics.HasCounterRecordForMetric("sqlengine_concurrency_conflicts_total").Count())
}

func Test_Store_LogsQueryFailures(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := helper.NewLogHandlerSpy(false)
	metrics := helper.NewMetricsCollectorSpy(true)
	db, err := config.SQLiteDB(ctx, "file:"+filepath.Join(t.TempDir(), "lending.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store, err := sqlengine.NewStoreFromSQLDB(
		db,
		sqlengine.WithDialect(sqlengine.DialectSQLite),
		sqlengine.WithLogger(slog.New(logHandler)),
		sqlengine.WithMetrics(metrics))
	require.NoError(t, err)

	// act
	_, err = store.Books().FindAll(ctx) // no schema

	// assert
	assert.ErrorIs(t, err, lending.ErrQueryFailed)
	assert.True(t, logHandler.HasErrorLogWithMessage("database query execution failed").Assert())
	assert.True(t, metrics.HasCounterRecordForMetric("sqlengine_database_errors_total").
		WithErrorType("query").Assert())
}
