package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// BookRepository is a lending.BookRepository backed by a Store.
type BookRepository struct {
	store *Store
}

// Save inserts a new book or updates an existing one if its Version still matches.
func (r *BookRepository) Save(ctx context.Context, book *lending.Book) error {
	var ds interface {
		ToSQL() (string, []any, error)
	}

	if book.Version == 0 {
		ds = r.store.builder.Insert(tableBooks).
			Rows(goqu.Record{
				colISBN:      book.ISBN,
				colTitle:     book.Title,
				colAuthor:    book.Author,
				colAvailable: book.Available,
				colVersion:   1,
			}).
			OnConflict(goqu.DoNothing())
	} else {
		ds = r.store.builder.Update(tableBooks).
			Set(goqu.Record{
				colTitle:     book.Title,
				colAuthor:    book.Author,
				colAvailable: book.Available,
				colVersion:   book.Version + 1,
			}).
			Where(goqu.C(colISBN).Eq(book.ISBN), goqu.C(colVersion).Eq(book.Version))
	}

	sqlQuery, err := r.store.toSQL(ctx, "save book", ds)
	if err != nil {
		return err
	}

	if err = r.store.execVersioned(ctx, "save book", sqlQuery); err != nil {
		return err
	}

	book.Version++

	return nil
}

// FindByISBN returns the book with the given ISBN.
func (r *BookRepository) FindByISBN(ctx context.Context, isbn lending.ISBNString) (lending.Book, bool, error) {
	books, err := r.find(ctx, "find book by isbn", goqu.C(colISBN).Eq(isbn))
	if err != nil || len(books) == 0 {
		return lending.Book{}, false, err
	}

	return books[0], true, nil
}

// FindAll returns all books ordered by ISBN.
func (r *BookRepository) FindAll(ctx context.Context) ([]lending.Book, error) {
	return r.find(ctx, "find all books")
}

// FindAvailable returns the books that are not lent, ordered by ISBN.
func (r *BookRepository) FindAvailable(ctx context.Context) ([]lending.Book, error) {
	return r.find(ctx, "find available books", goqu.C(colAvailable).IsTrue())
}

// FindByTitle returns the books whose title contains fragment, ignoring case.
func (r *BookRepository) FindByTitle(ctx context.Context, fragment string) ([]lending.Book, error) {
	return r.find(ctx, "find books by title", goqu.C(colTitle).ILike(containsPattern(fragment)))
}

// FindByAuthor returns the books whose author contains fragment, ignoring case.
func (r *BookRepository) FindByAuthor(ctx context.Context, fragment string) ([]lending.Book, error) {
	return r.find(ctx, "find books by author", goqu.C(colAuthor).ILike(containsPattern(fragment)))
}

// ExistsByISBN reports whether a book with the given ISBN is stored.
func (r *BookRepository) ExistsByISBN(ctx context.Context, isbn lending.ISBNString) (bool, error) {
	count, err := r.store.count(ctx, "book exists", tableBooks, goqu.C(colISBN).Eq(isbn))

	return count > 0, err
}

// DeleteByISBN removes the book. Deleting an unknown ISBN is a no-op.
func (r *BookRepository) DeleteByISBN(ctx context.Context, isbn lending.ISBNString) error {
	ds := r.store.builder.Delete(tableBooks).Where(goqu.C(colISBN).Eq(isbn))

	sqlQuery, err := r.store.toSQL(ctx, "delete book", ds)
	if err != nil {
		return err
	}

	_, err = r.store.exec(ctx, "delete book", sqlQuery)

	return err
}

func (r *BookRepository) find(ctx context.Context, action string, where ...exp.Expression) ([]lending.Book, error) {
	ds := r.store.builder.
		From(tableBooks).
		Select(colISBN, colTitle, colAuthor, colAvailable, colVersion).
		Where(where...).
		Order(goqu.C(colISBN).Asc())

	sqlQuery, err := r.store.toSQL(ctx, action, ds)
	if err != nil {
		return nil, err
	}

	books := make([]lending.Book, 0)
	err = r.store.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		var book lending.Book
		var version int64

		if scanErr := rows.Scan(&book.ISBN, &book.Title, &book.Author, &book.Available, &version); scanErr != nil {
			return scanErr
		}

		book.Version = uint(version)
		books = append(books, book)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}
