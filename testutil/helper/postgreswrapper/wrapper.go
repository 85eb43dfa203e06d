// Package postgreswrapper runs sqlengine tests against a real PostgreSQL database
// through any of the supported database adapters.
//
// Tests using it are skipped unless LENDING_TEST_POSTGRES_DSN is set. ADAPTER_TYPE selects
// the adapter: pgxpool (default), sqldb or sqlx.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

// Environment variables read by CreateWrapperWithTestConfig.
const (
	EnvDSN         = "LENDING_TEST_POSTGRES_DSN"
	EnvAdapterType = "ADAPTER_TYPE"
)

// Engine type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

const truncateTables = "TRUNCATE TABLE loans, members, books"

// Wrapper abstracts over the different adapter types.
type Wrapper interface {
	GetStore() *sqlengine.Store
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *sqlengine.Store
}

func (e *PGXPoolWrapper) GetStore() *sqlengine.Store {
	return e.store
}

func (e *PGXPoolWrapper) Close() {
	e.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	store *sqlengine.Store
}

func (e *SQLDBWrapper) GetStore() *sqlengine.Store {
	return e.store
}

func (e *SQLDBWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	store *sqlengine.Store
}

func (e *SQLXWrapper) GetStore() *sqlengine.Store {
	return e.store
}

func (e *SQLXWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// CreateWrapperWithTestConfig connects to the test database, migrates it and empties all tables.
// The connection is closed when the test finishes.
func CreateWrapperWithTestConfig(t testing.TB, options ...sqlengine.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDSN)
	}

	ctx := context.Background()
	engineTypeFromEnv := strings.ToLower(os.Getenv(EnvAdapterType))

	var wrapper Wrapper

	switch engineTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.PostgresPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := sqlengine.NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case typeSQLDB:
		db, err := config.PostgresSQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := sqlengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		db, err := config.PostgresSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := sqlengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		t.Fatalf("unsupported wrapper type from env: %s", engineTypeFromEnv)
	}

	t.Cleanup(wrapper.Close)

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error migrating the test database")
	CleanUp(t, wrapper)

	return wrapper
}

// CleanUp empties all lending tables for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	var err error

	switch e := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err = e.pool.Exec(context.Background(), truncateTables)

	case *SQLDBWrapper:
		_, err = e.db.Exec(truncateTables)

	case *SQLXWrapper:
		_, err = e.db.Exec(truncateTables)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", e))
	}

	require.NoError(t, err, "error cleaning up the lending tables")
}
