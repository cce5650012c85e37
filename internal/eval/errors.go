package eval

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes evaluation failures.
type ErrorCode string

const (
	// CodeNoElements indicates First or Single over an empty sequence.
	CodeNoElements ErrorCode = "NO_ELEMENTS"

	// CodeMultipleElements indicates Single or SingleOrDefault over more
	// than one element.
	CodeMultipleElements ErrorCode = "MULTIPLE_ELEMENTS"

	// CodeUnsupported indicates a node or method with no in-memory meaning.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// CodeTypeMismatch indicates operands of incompatible types.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Error is an in-memory evaluation failure.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsNoElements reports whether err is a NO_ELEMENTS error.
// Uses errors.As to handle wrapped errors.
func IsNoElements(err error) bool {
	return hasCode(err, CodeNoElements)
}

// IsMultipleElements reports whether err is a MULTIPLE_ELEMENTS error.
func IsMultipleElements(err error) bool {
	return hasCode(err, CodeMultipleElements)
}

// IsTypeMismatch reports whether err is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool {
	return hasCode(err, CodeTypeMismatch)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
