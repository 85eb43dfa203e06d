package memoryengine

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// BookRepository is an in-memory lending.BookRepository.
type BookRepository struct {
	mu    sync.RWMutex
	books map[lending.ISBNString]lending.Book
}

// NewBookRepository creates an empty BookRepository.
func NewBookRepository() *BookRepository {
	return &BookRepository{books: make(map[lending.ISBNString]lending.Book)}
}

// Save inserts or updates the book and increments its Version.
func (r *BookRepository) Save(_ context.Context, book *lending.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := checkVersion(r.books[book.ISBN].Version, book.Version); err != nil {
		return err
	}

	book.Version++
	r.books[book.ISBN] = *book

	return nil
}

// FindByISBN returns a copy of the book with the given ISBN.
func (r *BookRepository) FindByISBN(_ context.Context, isbn lending.ISBNString) (lending.Book, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[isbn]

	return book, ok, nil
}

// FindAll returns all books ordered by ISBN.
func (r *BookRepository) FindAll(_ context.Context) ([]lending.Book, error) {
	return r.filter(func(lending.Book) bool { return true }), nil
}

// FindAvailable returns the books that are not lent, ordered by ISBN.
func (r *BookRepository) FindAvailable(_ context.Context) ([]lending.Book, error) {
	return r.filter(func(b lending.Book) bool { return b.Available }), nil
}

// FindByTitle returns the books whose title contains fragment, ignoring case.
func (r *BookRepository) FindByTitle(_ context.Context, fragment string) ([]lending.Book, error) {
	needle := strings.ToLower(fragment)

	return r.filter(func(b lending.Book) bool { return strings.Contains(strings.ToLower(b.Title), needle) }), nil
}

// FindByAuthor returns the books whose author contains fragment, ignoring case.
func (r *BookRepository) FindByAuthor(_ context.Context, fragment string) ([]lending.Book, error) {
	needle := strings.ToLower(fragment)

	return r.filter(func(b lending.Book) bool { return strings.Contains(strings.ToLower(b.Author), needle) }), nil
}

// ExistsByISBN reports whether a book with the given ISBN is stored.
func (r *BookRepository) ExistsByISBN(_ context.Context, isbn lending.ISBNString) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.books[isbn]

	return ok, nil
}

// DeleteByISBN removes the book. Deleting an unknown ISBN is a no-op.
func (r *BookRepository) DeleteByISBN(_ context.Context, isbn lending.ISBNString) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.books, isbn)

	return nil
}

func (r *BookRepository) filter(keep func(lending.Book) bool) []lending.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]lending.Book, 0, len(r.books))
	for _, book := range r.books {
		if keep(book) {
			result = append(result, book)
		}
	}

	slices.SortFunc(result, func(a, b lending.Book) int { return strings.Compare(a.ISBN, b.ISBN) })

	return result
}
