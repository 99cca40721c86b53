// Package apperror provides the canonical error taxonomy for the stock core.
// All domain failures surfaced to callers go through this package so that
// collaborators can branch on error kind without string matching, and so that
// internal details (SQL errors, driver messages) never leak outward.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindInternal covers unexpected storage or infrastructure failures.
	KindInternal Kind = iota
	// KindNotFound: order, item, product, or stock-in does not exist.
	KindNotFound
	// KindInvalidState: an operation illegal for the entity's current status.
	KindInvalidState
	// KindInsufficientStock: a decrement that would drive stock below zero.
	KindInsufficientStock
	// KindValidation: input rejected before any write.
	KindValidation
	// KindConflict: duplicate unique key (order number, SKU, reference).
	KindConflict
)

// Error is the one concrete error type the service layer returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, nil for pure domain errors
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperror values by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientStock, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause is kept for logging but the
// message shown to callers stays generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsNotFound(err error) bool          { k, ok := kindOf(err); return ok && k == KindNotFound }
func IsInvalidState(err error) bool      { k, ok := kindOf(err); return ok && k == KindInvalidState }
func IsInsufficientStock(err error) bool { k, ok := kindOf(err); return ok && k == KindInsufficientStock }
func IsValidation(err error) bool        { k, ok := kindOf(err); return ok && k == KindValidation }
func IsConflict(err error) bool          { k, ok := kindOf(err); return ok && k == KindConflict }
