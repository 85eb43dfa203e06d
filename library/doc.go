// Package library provides the LibraryService, which coordinates books, members and loans.
//
// Borrowing and returning touch three entities at once. The service serializes them per book
// and per member with keyed locks, runs them inside a storage transaction when a
// lending.Transactor is configured, and retries optimistic concurrency conflicts from the storage
// with exponential backoff. Business rule violations are returned as *lending.Error and are never retried.
//
// Example:
//
//	store, _ := sqlengine.NewStoreFromSQLDB(db, sqlengine.WithDialect(sqlengine.DialectSQLite))
//	service, err := library.NewLibraryService(
//		store.Books(), store.Members(), store.Loans(),
//		library.WithTransactor(store),
//		library.WithNotifier(dispatcher),
//	)
//	loan, err := service.BorrowBook(ctx, "978-1-098-10013-1", "member-001", time.Now())
package library
