package lending

import "strings"

// Book is a single lendable copy in the catalog, identified by its ISBN.
type Book struct {
	Title     string
	Author    string
	ISBN      ISBNString
	Available bool
	Version   uint // storage revision, 0 until the first save
}

// BuildBook creates an available Book. Title, author and ISBN must not be blank.
func BuildBook(title string, author string, isbn ISBNString) (*Book, error) {
	if isBlank(title) {
		return nil, blankFieldError("title")
	}

	if isBlank(author) {
		return nil, blankFieldError("author")
	}

	if isBlank(isbn) {
		return nil, blankFieldError("isbn")
	}

	return &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		ISBN:      strings.TrimSpace(isbn),
		Available: true,
	}, nil
}

// IsAvailable reports whether the book can be borrowed.
func (b *Book) IsAvailable() bool {
	return b.Available
}

// Borrow marks the book as lent.
func (b *Book) Borrow() error {
	if !b.Available {
		return newError(ErrBookAlreadyBorrowed, "book already borrowed: "+b.ISBN, map[string]string{metaISBN: b.ISBN})
	}

	b.Available = false

	return nil
}

// Return marks the book as available again.
func (b *Book) Return() error {
	if b.Available {
		return newError(ErrBookNotBorrowed, "book not borrowed: "+b.ISBN, map[string]string{metaISBN: b.ISBN})
	}

	b.Available = true

	return nil
}

// Equals compares books by identity.
func (b *Book) Equals(other *Book) bool {
	if b == nil || other == nil {
		return b == other
	}

	return b.ISBN == other.ISBN
}
