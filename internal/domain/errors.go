package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match with errors.Is; the concrete *Error carries the details.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrNoOpTransition        = errors.New("no-op transition")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrDuplicateCode         = errors.New("duplicate code")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrTransientStoreFailure = errors.New("transient store failure")
	ErrIntegrityViolation    = errors.New("integrity violation")
)

// Error reports a failed core operation: its kind plus the identifiers and
// values that caused it. Fields irrelevant to the kind are left zero.
type Error struct {
	Kind      error
	Entity    string
	ID        int64
	Code      string
	Codes     []string
	State     string
	Requested int
	Available int
	Field     string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
		if e.ID != 0 {
			fmt.Fprintf(&b, " %d", e.ID)
		}
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%q", e.Code)
	}
	if len(e.Codes) > 0 {
		fmt.Fprintf(&b, " codes=%s", strings.Join(e.Codes, ","))
	}
	if e.State != "" {
		fmt.Fprintf(&b, " state=%q", e.State)
	}
	if e.Kind == ErrInsufficientStock {
		fmt.Fprintf(&b, " requested=%d available=%d", e.Requested, e.Available)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind of err, or nil if err carries none.
func KindOf(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrInvalidState, ErrNoOpTransition, ErrInsufficientStock,
		ErrDuplicateCode, ErrInvalidArgument, ErrTransientStoreFailure, ErrIntegrityViolation,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func NotFound(entity string, id int64) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

func InvalidArgument(field string) *Error {
	return &Error{Kind: ErrInvalidArgument, Field: field}
}
