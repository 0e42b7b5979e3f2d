package library

import (
	"errors"
	"fmt"
)

// Lending outcomes. Every one of them is recoverable and leaves state untouched.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrAlreadyCheckedOut = errors.New("item already checked out")
	ErrNotCheckedOut     = errors.New("item not checked out")
	ErrNotInBorrowedList = errors.New("item not in borrowed list")
	ErrNotAvailable      = errors.New("item not available for borrowing")
)

// Storage errors.
var (
	ErrCorruptSnapshot = errors.New("snapshot violates lending invariants")
	ErrSchemaTooNew    = errors.New("database schema is newer than this binary")
)

// LendingError carries the context of a failed checkout or return. It unwraps to
// one of the lending sentinels so callers can branch with errors.Is.
type LendingError struct {
	Err      error
	Kind     ItemKind
	ItemID   string
	Title    string
	MemberID string
}

func (e *LendingError) Error() string {
	switch {
	case errors.Is(e.Err, ErrItemNotFound):
		return fmt.Sprintf("%s %q not found", e.Kind, e.ItemID)
	case errors.Is(e.Err, ErrMemberNotFound):
		return fmt.Sprintf("member %q not found", e.MemberID)
	case errors.Is(e.Err, ErrAlreadyCheckedOut):
		return fmt.Sprintf("%s has already been checked out", e.Title)
	case errors.Is(e.Err, ErrNotCheckedOut):
		return fmt.Sprintf("%s was not checked out", e.Title)
	case errors.Is(e.Err, ErrNotInBorrowedList):
		return fmt.Sprintf("%s is not in your borrowed list", e.Title)
	case errors.Is(e.Err, ErrNotAvailable):
		return fmt.Sprintf("%s is not available for borrowing", e.Title)
	default:
		return e.Err.Error()
	}
}

func (e *LendingError) Unwrap() error { return e.Err }

// Reason returns the short machine-friendly name of the failure, used as a
// metric label and in the event journal.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrMemberNotFound):
		return "member_not_found"
	case errors.Is(err, ErrAlreadyCheckedOut):
		return "already_checked_out"
	case errors.Is(err, ErrNotCheckedOut):
		return "not_checked_out"
	case errors.Is(err, ErrNotInBorrowedList):
		return "not_in_borrowed_list"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	default:
		return "unknown"
	}
}

func itemError(err error, it *Item) *LendingError {
	return &LendingError{Err: err, Kind: it.Kind(), ItemID: it.ID(), Title: it.Title}
}
