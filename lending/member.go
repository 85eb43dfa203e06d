package lending

import (
	"fmt"
	"strings"
)

// Member is a registered library user who borrows books.
type Member struct {
	ID                 MemberIDString
	Name               string
	Email              string
	BorrowedBooksCount int
	MaxBorrowLimit     int
	Version            uint // storage revision, 0 until the first save
}

// MemberOption configures a Member during construction.
type MemberOption func(*Member) error

// WithBorrowLimit overrides the number of books the member may borrow simultaneously.
func WithBorrowLimit(limit int) MemberOption {
	return func(m *Member) error {
		if limit < 1 {
			return newError(
				ErrValidationFailed,
				fmt.Sprintf("borrow limit must be at least 1, got %d", limit),
				map[string]string{metaField: "borrow limit"})
		}

		m.MaxBorrowLimit = limit

		return nil
	}
}

// WithEmail sets the address notifications are sent to.
func WithEmail(email string) MemberOption {
	return func(m *Member) error {
		m.Email = strings.TrimSpace(email)
		return nil
	}
}

// BuildMember creates a Member with the DefaultPolicy borrow limit. ID and name must not be blank.
func BuildMember(memberID MemberIDString, name string, opts ...MemberOption) (*Member, error) {
	return DefaultPolicy().BuildMember(memberID, name, opts...)
}

func buildMember(memberID MemberIDString, name string, opts ...MemberOption) (*Member, error) {
	if isBlank(memberID) {
		return nil, blankFieldError("member id")
	}

	if isBlank(name) {
		return nil, blankFieldError("name")
	}

	member := &Member{
		ID:             strings.TrimSpace(memberID),
		Name:           strings.TrimSpace(name),
		MaxBorrowLimit: DefaultBorrowLimit,
	}

	for _, opt := range opts {
		if err := opt(member); err != nil {
			return nil, err
		}
	}

	return member, nil
}

// CanBorrow reports whether the member is below the borrow limit.
func (m *Member) CanBorrow() bool {
	return m.BorrowedBooksCount < m.MaxBorrowLimit
}

// BorrowBook counts one more borrowed book.
func (m *Member) BorrowBook() error {
	if !m.CanBorrow() {
		return MemberBorrowLimitExceededError(m.ID, m.MaxBorrowLimit)
	}

	m.BorrowedBooksCount++

	return nil
}

// ReturnBook counts one borrowed book less.
func (m *Member) ReturnBook() error {
	if m.BorrowedBooksCount == 0 {
		return newError(ErrNothingToReturn, "nothing to return for member: "+m.ID, map[string]string{metaMemberID: m.ID})
	}

	m.BorrowedBooksCount--

	return nil
}
