package helper

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// RunBookRepositoryContract checks the behavior every lending.BookRepository must show.
// newRepo must return an empty repository for each call.
//
//nolint:funlen
func RunBookRepositoryContract(t *testing.T, newRepo func(t *testing.T) lending.BookRepository) {
	ctx := context.Background()

	t.Run("save then find returns a copy with bumped version", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		book := FixtureBook(t, 1)

		// act
		err := repo.Save(ctx, book)
		found, ok, findErr := repo.FindByISBN(ctx, book.ISBN)

		// assert
		require.NoError(t, err)
		require.NoError(t, findErr)
		require.True(t, ok)
		assert.Equal(t, uint(1), book.Version)
		assert.Equal(t, *book, found)

		found.Available = false
		again, _, _ := repo.FindByISBN(ctx, book.ISBN)
		assert.True(t, again.Available)
	})

	t.Run("find unknown isbn", func(t *testing.T) {
		// arrange
		repo := newRepo(t)

		// act
		_, ok, err := repo.FindByISBN(ctx, FixtureISBN(99))
		exists, existsErr := repo.ExistsByISBN(ctx, FixtureISBN(99))

		// assert
		require.NoError(t, err)
		require.NoError(t, existsErr)
		assert.False(t, ok)
		assert.False(t, exists)
	})

	t.Run("update is an upsert", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		book := FixtureBook(t, 1)
		require.NoError(t, repo.Save(ctx, book))

		// act
		require.NoError(t, book.Borrow())
		err := repo.Save(ctx, book)
		all, allErr := repo.FindAll(ctx)

		// assert
		require.NoError(t, err)
		require.NoError(t, allErr)
		require.Len(t, all, 1)
		assert.False(t, all[0].Available)
		assert.Equal(t, uint(2), all[0].Version)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		book := FixtureBook(t, 1)
		require.NoError(t, repo.Save(ctx, book))
		stale, _, err := repo.FindByISBN(ctx, book.ISBN)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, book))

		// act
		err = repo.Save(ctx, &stale)

		// assert
		assert.ErrorIs(t, err, lending.ErrConcurrencyConflict)
	})

	t.Run("lists are ordered by isbn and filtered", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		for _, n := range []int{3, 1, 2} {
			book := FixtureBook(t, n)
			if n == 2 {
				require.NoError(t, book.Borrow())
			}
			require.NoError(t, repo.Save(ctx, book))
		}

		// act
		all, err := repo.FindAll(ctx)
		available, availableErr := repo.FindAvailable(ctx)

		// assert
		require.NoError(t, err)
		require.NoError(t, availableErr)
		assert.Equal(t, []string{FixtureISBN(1), FixtureISBN(2), FixtureISBN(3)}, isbns(all))
		assert.Equal(t, []string{FixtureISBN(1), FixtureISBN(3)}, isbns(available))
	})

	t.Run("search by title and author ignores case", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		dune, _ := lending.BuildBook("Dune", "Frank Herbert", "978-0441172719")
		emma, _ := lending.BuildBook("Emma", "Jane Austen", "978-0141439587")
		require.NoError(t, repo.Save(ctx, dune))
		require.NoError(t, repo.Save(ctx, emma))

		// act
		byTitle, err := repo.FindByTitle(ctx, "DUN")
		byAuthor, authorErr := repo.FindByAuthor(ctx, "austen")
		none, noneErr := repo.FindByTitle(ctx, "Ulysses")

		// assert
		require.NoError(t, err)
		require.NoError(t, authorErr)
		require.NoError(t, noneErr)
		assert.Equal(t, []string{"978-0441172719"}, isbns(byTitle))
		assert.Equal(t, []string{"978-0141439587"}, isbns(byAuthor))
		assert.Empty(t, none)
	})

	t.Run("delete", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		book := FixtureBook(t, 1)
		require.NoError(t, repo.Save(ctx, book))

		// act
		err := repo.DeleteByISBN(ctx, book.ISBN)
		exists, existsErr := repo.ExistsByISBN(ctx, book.ISBN)
		unknownErr := repo.DeleteByISBN(ctx, FixtureISBN(42))

		// assert
		require.NoError(t, err)
		require.NoError(t, existsErr)
		assert.NoError(t, unknownErr)
		assert.False(t, exists)
	})
}

// RunMemberRepositoryContract checks the behavior every lending.MemberRepository must show.
func RunMemberRepositoryContract(t *testing.T, newRepo func(t *testing.T) lending.MemberRepository) {
	ctx := context.Background()

	t.Run("save then find", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		member := FixtureMember(t, 1, lending.WithEmail("reader1@example.org"), lending.WithBorrowLimit(5))

		// act
		err := repo.Save(ctx, member)
		found, ok, findErr := repo.FindByID(ctx, member.ID)
		exists, existsErr := repo.ExistsByID(ctx, member.ID)

		// assert
		require.NoError(t, err)
		require.NoError(t, findErr)
		require.NoError(t, existsErr)
		require.True(t, ok)
		assert.True(t, exists)
		assert.Equal(t, *member, found)
		assert.Equal(t, uint(1), found.Version)
	})

	t.Run("find unknown id", func(t *testing.T) {
		// arrange
		repo := newRepo(t)

		// act
		_, ok, err := repo.FindByID(ctx, FixtureMemberID(99))

		// assert
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		member := FixtureMember(t, 1)
		require.NoError(t, repo.Save(ctx, member))
		stale := *member
		require.NoError(t, member.BorrowBook())
		require.NoError(t, repo.Save(ctx, member))

		// act
		err := repo.Save(ctx, &stale)
		found, _, _ := repo.FindByID(ctx, member.ID)

		// assert
		assert.ErrorIs(t, err, lending.ErrConcurrencyConflict)
		assert.Equal(t, 1, found.BorrowedBooksCount)
	})

	t.Run("find all is ordered by id", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		for _, n := range []int{2, 3, 1} {
			require.NoError(t, repo.Save(ctx, FixtureMember(t, n)))
		}

		// act
		all, err := repo.FindAll(ctx)

		// assert
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, FixtureMemberID(1), all[0].ID)
		assert.Equal(t, FixtureMemberID(2), all[1].ID)
		assert.Equal(t, FixtureMemberID(3), all[2].ID)
	})
}

// RunLoanRepositoryContract checks the behavior every lending.LoanRepository must show.
//
//nolint:funlen
func RunLoanRepositoryContract(t *testing.T, newRepo func(t *testing.T) lending.LoanRepository) {
	ctx := context.Background()

	t.Run("save then find by id", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		loan := FixtureLoan(t, 1, 1, GivenDate(2025, 9, 1))

		// act
		err := repo.Save(ctx, loan)
		found, ok, findErr := repo.FindByID(ctx, loan.ID)
		_, unknown, unknownErr := repo.FindByID(ctx, uuid.New())

		// assert
		require.NoError(t, err)
		require.NoError(t, findErr)
		require.NoError(t, unknownErr)
		require.True(t, ok)
		assert.False(t, unknown)
		assert.Equal(t, *loan, found)
	})

	t.Run("returned loan stays as history", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		loan := FixtureLoan(t, 1, 1, GivenDate(2025, 9, 1))
		require.NoError(t, repo.Save(ctx, loan))
		require.NoError(t, loan.Return(GivenDate(2025, 9, 20)))

		// act
		err := repo.Save(ctx, loan)
		active, activeOK, activeErr := repo.FindActiveLoanByISBN(ctx, loan.ISBN)
		history, historyErr := repo.FindByMember(ctx, loan.MemberID)
		count, countErr := repo.CountActiveLoansByMember(ctx, loan.MemberID)

		// assert
		require.NoError(t, err)
		require.NoError(t, activeErr)
		require.NoError(t, historyErr)
		require.NoError(t, countErr)
		assert.False(t, activeOK)
		assert.Equal(t, lending.Loan{}, active)
		require.Len(t, history, 1)
		require.NotNil(t, history[0].ReturnDate)
		assert.Equal(t, GivenDate(2025, 9, 20), *history[0].ReturnDate)
		assert.Equal(t, 0, count)
	})

	t.Run("active loans and counts", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		first := FixtureLoan(t, 1, 1, GivenDate(2025, 9, 3))
		second := FixtureLoan(t, 2, 1, GivenDate(2025, 9, 1))
		third := FixtureLoan(t, 3, 2, GivenDate(2025, 9, 2))
		returned := FixtureLoan(t, 4, 1, GivenDate(2025, 8, 1))
		require.NoError(t, returned.Return(GivenDate(2025, 8, 10)))
		for _, loan := range []*lending.Loan{first, second, third, returned} {
			require.NoError(t, repo.Save(ctx, loan))
		}

		// act
		active, err := repo.FindActiveLoans(ctx)
		byMember, byMemberErr := repo.FindByMember(ctx, FixtureMemberID(1))
		count, countErr := repo.CountActiveLoansByMember(ctx, FixtureMemberID(1))
		byISBN, ok, byISBNErr := repo.FindActiveLoanByISBN(ctx, FixtureISBN(3))

		// assert
		require.NoError(t, err)
		require.NoError(t, byMemberErr)
		require.NoError(t, countErr)
		require.NoError(t, byISBNErr)
		assert.Equal(t, []uuid.UUID{second.ID, third.ID, first.ID}, loanIDs(active))
		assert.Equal(t, []uuid.UUID{returned.ID, second.ID, first.ID}, loanIDs(byMember))
		assert.Equal(t, 2, count)
		require.True(t, ok)
		assert.Equal(t, third.ID, byISBN.ID)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		loan := FixtureLoan(t, 1, 1, GivenDate(2025, 9, 1))
		require.NoError(t, repo.Save(ctx, loan))
		stale := loan.Clone()
		require.NoError(t, loan.Return(GivenDate(2025, 9, 5)))
		require.NoError(t, repo.Save(ctx, loan))

		// act
		require.NoError(t, stale.Return(GivenDate(2025, 9, 6)))
		err := repo.Save(ctx, stale)

		// assert
		assert.ErrorIs(t, err, lending.ErrConcurrencyConflict)
	})

	t.Run("concurrent saves of distinct loans", func(t *testing.T) {
		// arrange
		repo := newRepo(t)
		loans := make([]*lending.Loan, 0, 20)
		for i := 1; i <= 20; i++ {
			loans = append(loans, FixtureLoan(t, i, i%4, GivenDate(2025, 9, 1)))
		}

		// act
		var wg sync.WaitGroup
		errs := make([]error, len(loans))
		for i, loan := range loans {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = repo.Save(ctx, loan)
			}()
		}
		wg.Wait()

		// assert
		for _, err := range errs {
			assert.NoError(t, err)
		}

		active, err := repo.FindActiveLoans(ctx)
		require.NoError(t, err)
		assert.Len(t, active, len(loans))
	})
}

func isbns(books []lending.Book) []string {
	result := make([]string, 0, len(books))
	for _, b := range books {
		result = append(result, b.ISBN)
	}

	return result
}

func loanIDs(loans []lending.Loan) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(loans))
	for _, l := range loans {
		result = append(result, l.ID)
	}

	return result
}
