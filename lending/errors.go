package lending

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Every Kind is an expected business outcome, none is fatal.
type Kind string

const (
	// KindUnknown is returned by GetKind for errors that are not domain errors.
	KindUnknown Kind = "unknown"

	// KindValidation marks malformed input, like a blank required field.
	KindValidation Kind = "validation"

	// KindNotFound marks a failed lookup of a book, member or loan.
	KindNotFound Kind = "not_found"

	// KindState marks a violated entity or lending invariant.
	KindState Kind = "state"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeValidationFailed     Code = "VALIDATION_FAILED"
	CodeReturnBeforeLoanDate Code = "RETURN_BEFORE_LOAN_DATE"
	CodeInvalidPolicy        Code = "INVALID_POLICY"

	// Lookup errors
	CodeBookNotFound   Code = "BOOK_NOT_FOUND"
	CodeMemberNotFound Code = "MEMBER_NOT_FOUND"

	// State errors
	CodeBookAlreadyBorrowed       Code = "BOOK_ALREADY_BORROWED"
	CodeBookNotBorrowed           Code = "BOOK_NOT_BORROWED"
	CodeBookNotAvailable          Code = "BOOK_NOT_AVAILABLE"
	CodeMemberBorrowLimitExceeded Code = "MEMBER_BORROW_LIMIT_EXCEEDED"
	CodeNothingToReturn           Code = "NOTHING_TO_RETURN"
	CodeLoanAlreadyReturned       Code = "LOAN_ALREADY_RETURNED"
	CodeNoActiveLoan              Code = "NO_ACTIVE_LOAN"
	CodeBookAlreadyRegistered     Code = "BOOK_ALREADY_REGISTERED"
	CodeMemberAlreadyRegistered   Code = "MEMBER_ALREADY_REGISTERED"
	CodeBookIsBorrowed            Code = "BOOK_IS_BORROWED"
)

const (
	metaField    = "field"
	metaISBN     = "isbn"
	metaMemberID = "member_id"
	metaLimit    = "limit"
)

// Sentinel errors, one per Code. They match any *Error with the same Code via errors.Is:
//
//	if errors.Is(err, lending.ErrBookNotAvailable) { ... }
var (
	ErrValidationFailed          = &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "validation failed"}
	ErrReturnBeforeLoanDate      = &Error{Kind: KindValidation, Code: CodeReturnBeforeLoanDate, Message: "return before loan date"}
	ErrInvalidPolicy             = &Error{Kind: KindValidation, Code: CodeInvalidPolicy, Message: "invalid lending policy"}
	ErrBookNotFound              = &Error{Kind: KindNotFound, Code: CodeBookNotFound, Message: "book not found"}
	ErrMemberNotFound            = &Error{Kind: KindNotFound, Code: CodeMemberNotFound, Message: "member not found"}
	ErrBookAlreadyBorrowed       = &Error{Kind: KindState, Code: CodeBookAlreadyBorrowed, Message: "already borrowed"}
	ErrBookNotBorrowed           = &Error{Kind: KindState, Code: CodeBookNotBorrowed, Message: "not borrowed"}
	ErrBookNotAvailable          = &Error{Kind: KindState, Code: CodeBookNotAvailable, Message: "book not available"}
	ErrMemberBorrowLimitExceeded = &Error{Kind: KindState, Code: CodeMemberBorrowLimitExceeded, Message: "limit exceeded"}
	ErrNothingToReturn           = &Error{Kind: KindState, Code: CodeNothingToReturn, Message: "nothing to return"}
	ErrLoanAlreadyReturned       = &Error{Kind: KindState, Code: CodeLoanAlreadyReturned, Message: "already returned"}
	ErrNoActiveLoan              = &Error{Kind: KindState, Code: CodeNoActiveLoan, Message: "no active loan"}
	ErrBookAlreadyRegistered     = &Error{Kind: KindState, Code: CodeBookAlreadyRegistered, Message: "book already registered"}
	ErrMemberAlreadyRegistered   = &Error{Kind: KindState, Code: CodeMemberAlreadyRegistered, Message: "member already registered"}
	ErrBookIsBorrowed            = &Error{Kind: KindState, Code: CodeBookIsBorrowed, Message: "book is borrowed"}
)

// Error is the domain error returned by entities, the LibraryService and the engines
// for business outcomes. Message is meant for humans, Kind and Code for machines.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// newError derives a concrete error from a sentinel, keeping Kind and Code.
func newError(sentinel *Error, message string, metadata map[string]string) *Error {
	return &Error{
		Kind:     sentinel.Kind,
		Code:     sentinel.Code,
		Message:  message,
		Metadata: metadata,
	}
}

func blankFieldError(field string) *Error {
	return newError(
		ErrValidationFailed,
		fmt.Sprintf("%s must not be blank", field),
		map[string]string{metaField: field})
}

func missingFieldError(field string) *Error {
	return newError(
		ErrValidationFailed,
		fmt.Sprintf("%s is required", field),
		map[string]string{metaField: field})
}

// ValidationError is returned for malformed input to an operation, like a blank search query.
func ValidationError(field string, message string) *Error {
	return newError(ErrValidationFailed, message, map[string]string{metaField: field})
}

// BookNotFoundError is returned when no book with the given ISBN is registered.
func BookNotFoundError(isbn ISBNString) *Error {
	return newError(ErrBookNotFound, "book not found: "+isbn, map[string]string{metaISBN: isbn})
}

// MemberNotFoundError is returned when no member with the given ID is registered.
func MemberNotFoundError(memberID MemberIDString) *Error {
	return newError(ErrMemberNotFound, "member not found: "+memberID, map[string]string{metaMemberID: memberID})
}

// BookNotAvailableError is returned when a borrowed book is requested again.
func BookNotAvailableError(isbn ISBNString, title string) *Error {
	return newError(
		ErrBookNotAvailable,
		fmt.Sprintf("book not available: %s (%s)", title, isbn),
		map[string]string{metaISBN: isbn})
}

// MemberBorrowLimitExceededError is returned when a member at the borrow limit requests another book.
func MemberBorrowLimitExceededError(memberID MemberIDString, limit int) *Error {
	return newError(
		ErrMemberBorrowLimitExceeded,
		fmt.Sprintf("borrow limit exceeded for member %s (max %d)", memberID, limit),
		map[string]string{metaMemberID: memberID, metaLimit: fmt.Sprintf("%d", limit)})
}

// NoActiveLoanError is returned when a book has no unreturned loan.
func NoActiveLoanError(isbn ISBNString) *Error {
	return newError(ErrNoActiveLoan, "no active loan for book: "+isbn, map[string]string{metaISBN: isbn})
}

// BookAlreadyRegisteredError is returned when an ISBN is registered twice.
func BookAlreadyRegisteredError(isbn ISBNString) *Error {
	return newError(ErrBookAlreadyRegistered, "book already registered: "+isbn, map[string]string{metaISBN: isbn})
}

// MemberAlreadyRegisteredError is returned when a member ID is registered twice.
func MemberAlreadyRegisteredError(memberID MemberIDString) *Error {
	return newError(
		ErrMemberAlreadyRegistered,
		"member already registered: "+memberID,
		map[string]string{metaMemberID: memberID})
}

// BookIsBorrowedError is returned when a lent book should be removed from the catalog.
func BookIsBorrowedError(isbn ISBNString) *Error {
	return newError(ErrBookIsBorrowed, "book is borrowed and cannot be removed: "+isbn, map[string]string{metaISBN: isbn})
}

// GetKind extracts the Kind from any error.
// Returns KindUnknown if the error is not a domain error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// GetCode extracts the Code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeUnknown
}

// IsKind checks if the error has the specified Kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// IsCode checks if the error has the specified Code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
