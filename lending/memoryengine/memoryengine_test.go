package memoryengine_test

import (
	"testing"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func Test_BookRepository_Contract(t *testing.T) {
	helper.RunBookRepositoryContract(t, func(*testing.T) lending.BookRepository {
		return memoryengine.NewBookRepository()
	})
}

func Test_MemberRepository_Contract(t *testing.T) {
	helper.RunMemberRepositoryContract(t, func(*testing.T) lending.MemberRepository {
		return memoryengine.NewMemberRepository()
	})
}

func Test_LoanRepository_Contract(t *testing.T) {
	helper.RunLoanRepositoryContract(t, func(*testing.T) lending.LoanRepository {
		return memoryengine.NewLoanRepository()
	})
}
