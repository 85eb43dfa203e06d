package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// Supported goqu dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const (
	tableBooks   = "books"
	tableMembers = "members"
	tableLoans   = "loans"

	colISBN               = "isbn"
	colTitle              = "title"
	colAuthor             = "author"
	colAvailable          = "available"
	colVersion            = "version"
	colMemberID           = "member_id"
	colName               = "name"
	colEmail              = "email"
	colBorrowedBooksCount = "borrowed_books_count"
	colMaxBorrowLimit     = "max_borrow_limit"
	colLoanID             = "loan_id"
	colLoanDate           = "loan_date"
	colDueDate            = "due_date"
	colReturnDate         = "return_date"
	colLateFeePerDay      = "late_fee_per_day"

	logMsgBuildQueryFailed    = "failed to build sql query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgTxRolledBack        = "transaction rolled back"
	logMsgTxFailed            = "transaction handling failed"
	logMsgSQLExecuted         = "executed sql for: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrAction             = "action"
	logAttrDurationMS         = "duration_ms"

	metricQueryDuration       = "sqlengine_query_duration_seconds"
	metricDatabaseErrors      = "sqlengine_database_errors_total"
	metricConcurrencyConflict = "sqlengine_concurrency_conflicts_total"
	labelOperation            = "operation"
	labelStatus               = "status"
	labelErrorType            = "error_type"
	statusSuccess             = "success"
	statusError               = "error"
)

var (
	// ErrNilDatabaseConnection is returned when a constructor receives a nil connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrUnsupportedDialect is returned by WithDialect for an unknown dialect.
	ErrUnsupportedDialect = errors.New("unsupported sql dialect")

	// ErrBuildingQueryFailed is returned when goqu can't render a statement.
	ErrBuildingQueryFailed = errors.New("building query failed")
)

type txContextKey struct{}

type txContextValue struct {
	store *Store
	tx    adapters.DBTx
}

// Store owns the database connection shared by the SQL repositories.
type Store struct {
	db               adapters.DBAdapter
	dialect          string
	builder          goqu.DialectWrapper
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		dialect: DialectPostgres,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.builder = goqu.Dialect(s.dialect)

	return s, nil
}

// Books returns the BookRepository backed by this Store.
func (s *Store) Books() *BookRepository {
	return &BookRepository{store: s}
}

// Members returns the MemberRepository backed by this Store.
func (s *Store) Members() *MemberRepository {
	return &MemberRepository{store: s}
}

// Loans returns the LoanRepository backed by this Store.
func (s *Store) Loans() *LoanRepository {
	return &LoanRepository{store: s}
}

// RunInTransaction runs fn inside a database transaction.
// It commits if fn returns nil and rolls back otherwise, returning fn's error unchanged.
// A nested call joins the transaction that is already active in ctx.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logError(ctx, logMsgTxFailed, err, logAttrAction, "begin")
		return errors.Join(lending.ErrTransactionFailed, err)
	}

	txCtx := context.WithValue(ctx, txContextKey{}, txContextValue{store: s, tx: tx})

	if fnErr := fn(txCtx); fnErr != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			s.logError(ctx, logMsgTxFailed, rollbackErr, logAttrAction, "rollback")
		}

		s.logInfo(ctx, logMsgTxRolledBack, logAttrError, fnErr.Error())

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgTxFailed, commitErr, logAttrAction, "commit")
		return errors.Join(lending.ErrTransactionFailed, commitErr)
	}

	return nil
}

func (s *Store) txFromContext(ctx context.Context) (adapters.DBTx, bool) {
	value, ok := ctx.Value(txContextKey{}).(txContextValue)
	if !ok || value.store != s {
		return nil, false
	}

	return value.tx, true
}

// executor returns the transaction active in ctx, or the plain connection.
func (s *Store) executor(ctx context.Context) adapters.DBExecutor {
	if tx, ok := s.txFromContext(ctx); ok {
		return tx
	}

	return s.db
}

// toSQL renders a goqu statement with interpolated values.
func (s *Store) toSQL(ctx context.Context, action string, ds interface {
	ToSQL() (string, []any, error)
}) (string, error) {
	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrAction, action)
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// query runs a select statement and calls scan for each row.
func (s *Store) query(
	ctx context.Context,
	action string,
	sqlQuery string,
	scan func(rows adapters.DBRows) error,
) error {
	start := time.Now()

	rows, err := s.executor(ctx).Query(ctx, sqlQuery)
	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrAction, action, logAttrQuery, sqlQuery)
		s.recordError(ctx, action, "query")

		return errors.Join(lending.ErrQueryFailed, err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logError(ctx, logMsgCloseRowsFailed, closeErr, logAttrAction, action)
		}
	}()

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrAction, action)
			s.recordError(ctx, action, "scan")

			return errors.Join(lending.ErrScanningRowFailed, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrAction, action)
		s.recordError(ctx, action, "query")

		return errors.Join(lending.ErrQueryFailed, rowsErr)
	}

	s.observeDuration(ctx, action, sqlQuery, time.Since(start))

	return nil
}

// exec runs a write statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, action string, sqlQuery string) (int64, error) {
	start := time.Now()

	result, err := s.executor(ctx).Exec(ctx, sqlQuery)
	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrAction, action, logAttrQuery, sqlQuery)
		s.recordError(ctx, action, "exec")

		return 0, errors.Join(lending.ErrSaveFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrAction, action)
		s.recordError(ctx, action, "rows_affected")

		return 0, errors.Join(lending.ErrSaveFailed, err)
	}

	s.observeDuration(ctx, action, sqlQuery, time.Since(start))

	return rowsAffected, nil
}

// execVersioned runs an insert or versioned update that must affect exactly one row.
func (s *Store) execVersioned(ctx context.Context, action string, sqlQuery string) error {
	rowsAffected, err := s.exec(ctx, action, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		s.logInfo(ctx, logMsgConcurrencyConflict, logAttrAction, action)
		s.recordConflict(ctx, action)

		return lending.ErrConcurrencyConflict
	}

	return nil
}
