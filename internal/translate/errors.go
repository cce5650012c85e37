package translate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation failures.
type ErrorCode string

const (
	// CodeMultiColumnSort indicates an ordering key backed by more than one
	// column. It has no native rendering, and dropping it would return rows
	// in the wrong order.
	CodeMultiColumnSort ErrorCode = "MULTI_COLUMN_SORT"

	// CodeUnsupportedSource indicates a tree not rooted at the contact
	// collection.
	CodeUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"

	// CodeNilTree indicates a nil expression tree.
	CodeNilTree ErrorCode = "NIL_TREE"
)

// UnsupportedError reports a malformed tree the translator cannot reason
// about. Ordinary unsupported queries never produce it; they set
// Descriptor.Fallback instead.
type UnsupportedError struct {
	Code    ErrorCode
	Message string

	// Field is the offending member, when there is one.
	Field string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupported reports whether err is an UnsupportedError.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// IsMultiColumnSort reports whether err is a multi-column sort error.
func IsMultiColumnSort(err error) bool {
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return ue.Code == CodeMultiColumnSort
	}
	return false
}
