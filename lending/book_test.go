package lending_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_BuildBook_NewBookIsAvailable(t *testing.T) {
	// act
	book, err := lending.BuildBook(" Dune ", "Frank Herbert", "978-0441172719")

	// assert
	require.NoError(t, err)
	assert.True(t, book.IsAvailable())
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, uint(0), book.Version)
}

func Test_BuildBook_BlankFields(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
		isbn   string
	}{
		{name: "blank title", title: "  ", author: "Frank Herbert", isbn: "978-0441172719"},
		{name: "blank author", title: "Dune", author: "", isbn: "978-0441172719"},
		{name: "blank isbn", title: "Dune", author: "Frank Herbert", isbn: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			book, err := lending.BuildBook(tt.title, tt.author, tt.isbn)

			// assert
			assert.Nil(t, book)
			assert.ErrorIs(t, err, lending.ErrValidationFailed)
			assert.True(t, lending.IsKind(err, lending.KindValidation))
		})
	}
}

func Test_Book_BorrowTwice(t *testing.T) {
	// arrange
	book, err := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	require.NoError(t, err)
	require.NoError(t, book.Borrow())

	// act
	err = book.Borrow()

	// assert
	assert.ErrorIs(t, err, lending.ErrBookAlreadyBorrowed)
	assert.True(t, lending.IsKind(err, lending.KindState))
	assert.Contains(t, err.Error(), "already borrowed")
	assert.False(t, book.IsAvailable())
}

func Test_Book_ReturnWithoutBorrow(t *testing.T) {
	// arrange
	book, err := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	require.NoError(t, err)

	// act
	err = book.Return()

	// assert
	assert.ErrorIs(t, err, lending.ErrBookNotBorrowed)
	assert.Contains(t, err.Error(), "not borrowed")
	assert.True(t, book.IsAvailable())
}

func Test_Book_BorrowAndReturn(t *testing.T) {
	// arrange
	book, err := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	require.NoError(t, err)

	// act
	borrowErr := book.Borrow()
	returnErr := book.Return()

	// assert
	require.NoError(t, borrowErr)
	require.NoError(t, returnErr)
	assert.True(t, book.IsAvailable())
}

func Test_Book_Equals(t *testing.T) {
	// arrange
	a, _ := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
	b, _ := lending.BuildBook("Dune (Paperback)", "F. Herbert", "978-0441172719")
	c, _ := lending.BuildBook("Emma", "Jane Austen", "978-0141439587")

	// assert
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func Test_Error_MatchesSentinelByCode(t *testing.T) {
	// arrange
	err := lending.BookNotFoundError("978-0441172719")
	wrapped := errors.Join(errors.New("lookup"), err)

	// assert
	assert.ErrorIs(t, wrapped, lending.ErrBookNotFound)
	assert.NotErrorIs(t, wrapped, lending.ErrMemberNotFound)
	assert.Equal(t, lending.CodeBookNotFound, lending.GetCode(wrapped))
	assert.Equal(t, lending.KindNotFound, lending.GetKind(wrapped))
	assert.Equal(t, lending.CodeUnknown, lending.GetCode(errors.New("other")))
	assert.Equal(t, lending.KindUnknown, lending.GetKind(nil))
}
