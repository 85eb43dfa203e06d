package memoryengine

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LoanRepository is an in-memory lending.LoanRepository.
type LoanRepository struct {
	mu    sync.RWMutex
	loans map[uuid.UUID]*lending.Loan
}

// NewLoanRepository creates an empty LoanRepository.
func NewLoanRepository() *LoanRepository {
	return &LoanRepository{loans: make(map[uuid.UUID]*lending.Loan)}
}

// Save inserts or updates the loan and increments its Version.
func (r *LoanRepository) Save(_ context.Context, loan *lending.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var storedVersion uint
	if stored, ok := r.loans[loan.ID]; ok {
		storedVersion = stored.Version
	}

	if err := checkVersion(storedVersion, loan.Version); err != nil {
		return err
	}

	loan.Version++
	r.loans[loan.ID] = loan.Clone()

	return nil
}

// FindByID returns a copy of the loan with the given ID.
func (r *LoanRepository) FindByID(_ context.Context, loanID uuid.UUID) (lending.Loan, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loan, ok := r.loans[loanID]
	if !ok {
		return lending.Loan{}, false, nil
	}

	return *loan.Clone(), true, nil
}

// FindByMember returns the member's complete loan history.
func (r *LoanRepository) FindByMember(_ context.Context, memberID lending.MemberIDString) ([]lending.Loan, error) {
	return r.filter(func(l *lending.Loan) bool { return l.MemberID == memberID }), nil
}

// FindActiveLoans returns all loans that are not returned.
func (r *LoanRepository) FindActiveLoans(_ context.Context) ([]lending.Loan, error) {
	return r.filter(func(l *lending.Loan) bool { return !l.IsReturned() }), nil
}

// FindActiveLoanByISBN returns the unreturned loan of the book, if any.
func (r *LoanRepository) FindActiveLoanByISBN(_ context.Context, isbn lending.ISBNString) (lending.Loan, bool, error) {
	active := r.filter(func(l *lending.Loan) bool { return l.ISBN == isbn && !l.IsReturned() })
	if len(active) == 0 {
		return lending.Loan{}, false, nil
	}

	return active[0], true, nil
}

// CountActiveLoansByMember returns the number of unreturned loans of the member.
func (r *LoanRepository) CountActiveLoansByMember(_ context.Context, memberID lending.MemberIDString) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, loan := range r.loans {
		if loan.MemberID == memberID && !loan.IsReturned() {
			count++
		}
	}

	return count, nil
}

func (r *LoanRepository) filter(keep func(*lending.Loan) bool) []lending.Loan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]lending.Loan, 0)
	for _, loan := range r.loans {
		if keep(loan) {
			result = append(result, *loan.Clone())
		}
	}

	slices.SortFunc(result, compareLoans)

	return result
}

func compareLoans(a, b lending.Loan) int {
	if c := a.LoanDate.Compare(b.LoanDate); c != 0 {
		return c
	}

	return strings.Compare(a.ID.String(), b.ID.String())
}
