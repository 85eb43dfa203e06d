package library_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

type serviceFactory func(t *testing.T, options ...library.Option) *library.LibraryService

// engines runs the service tests against every storage engine.
var engines = []struct {
	name       string
	newService serviceFactory
}{
	{name: "memoryengine", newService: newMemoryService},
	{name: "sqlengine", newService: newSQLiteService},
}

func newMemoryService(t *testing.T, options ...library.Option) *library.LibraryService {
	t.Helper()

	service, err := library.NewLibraryService(
		memoryengine.NewBookRepository(),
		memoryengine.NewMemberRepository(),
		memoryengine.NewLoanRepository(),
		options...)
	require.NoError(t, err, "error in arranging test data")

	return service
}

func newSQLiteService(t *testing.T, options ...library.Option) *library.LibraryService {
	t.Helper()

	store := newSQLiteStore(t)

	service, err := library.NewLibraryService(
		store.Books(),
		store.Members(),
		store.Loans(),
		append([]library.Option{library.WithTransactor(store)}, options...)...)
	require.NoError(t, err, "error in arranging test data")

	return service
}

func newSQLiteStore(t *testing.T) *sqlengine.Store {
	t.Helper()

	ctx := context.Background()
	db, err := config.SQLiteDB(ctx, "file:"+filepath.Join(t.TempDir(), "lending.db"))
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlengine.NewStoreFromSQLDB(db, sqlengine.WithDialect(sqlengine.DialectSQLite))
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, store.Migrate(ctx), "error in arranging test data")

	return store
}

func givenRegisteredBook(t *testing.T, service *library.LibraryService, n int) lending.Book {
	t.Helper()

	book, err := service.RegisterBook(
		context.Background(),
		fmt.Sprintf("Learning Domain-Driven Design, Vol. %d", n),
		"Vlad Khononov",
		helper.FixtureISBN(n))
	require.NoError(t, err, "error in arranging test data")

	return book
}

func givenRegisteredMember(
	t *testing.T,
	service *library.LibraryService,
	n int,
	opts ...lending.MemberOption,
) lending.Member {
	t.Helper()

	member, err := service.RegisterMember(
		context.Background(),
		helper.FixtureMemberID(n),
		fmt.Sprintf("Reader %d", n),
		opts...)
	require.NoError(t, err, "error in arranging test data")

	return member
}

func givenBorrowedBook(
	t *testing.T,
	service *library.LibraryService,
	book int,
	member int,
	loanDate time.Time,
) lending.Loan {
	t.Helper()

	loan, err := service.BorrowBook(context.Background(), helper.FixtureISBN(book), helper.FixtureMemberID(member), loanDate)
	require.NoError(t, err, "error in arranging test data")

	return loan
}
