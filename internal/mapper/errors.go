package mapper

import (
	"errors"
	"fmt"
	"strings"
)

// MappingError represents an error detected while encoding or decoding a
// tuple.
//
// Mapping errors are local and synchronous. The mapper never retries and
// never rolls back; after any encode failure the caller must roll back the
// transaction.
type MappingError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Rui is the identifier involved, if any.
	Rui string

	// Field is the tuple component involved, if any.
	Field string

	// Missing lists referenced identifiers that do not exist
	// (DanglingReference), or identifiers already taken (DuplicateRui).
	Missing []string
}

// ErrorCode categorizes mapping errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates no node carries the requested identifier.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotTuple indicates the identifier belongs to a non-tuple node
	// such as a referent placeholder or a temporal region.
	ErrCodeNotTuple ErrorCode = "NOT_TUPLE"

	// ErrCodeDanglingReference indicates a referenced node does not exist.
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// ErrCodeDuplicateRui indicates a tuple introduces an identifier that
	// another node already carries.
	ErrCodeDuplicateRui ErrorCode = "DUPLICATE_RUI"

	// ErrCodeAmbiguousReference indicates a referenced identifier matched
	// more than one node.
	ErrCodeAmbiguousReference ErrorCode = "AMBIGUOUS_REFERENCE"

	// ErrCodeUnknownField indicates a stored field has no decode conversion.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeTransactionNotSet indicates a call without a transaction.
	ErrCodeTransactionNotSet ErrorCode = "TRANSACTION_NOT_SET"
)

// Error implements the error interface.
func (e *MappingError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: %s (rui=%s, missing=%s)", e.Code, e.Message, e.Rui, strings.Join(e.Missing, ","))
	case e.Rui != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (rui=%s, field=%s)", e.Code, e.Message, e.Rui, e.Field)
	case e.Rui != "":
		return fmt.Sprintf("%s: %s (rui=%s)", e.Code, e.Message, e.Rui)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var me *MappingError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsNotFound returns true if no node carries the requested identifier.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsNotTuple returns true if the identifier belongs to a non-tuple node.
func IsNotTuple(err error) bool {
	return hasCode(err, ErrCodeNotTuple)
}

// IsDanglingReference returns true if a referenced node does not exist.
func IsDanglingReference(err error) bool {
	return hasCode(err, ErrCodeDanglingReference)
}

// IsDuplicateRui returns true if a tuple reused an existing identifier.
func IsDuplicateRui(err error) bool {
	return hasCode(err, ErrCodeDuplicateRui)
}

// IsAmbiguousReference returns true if a reference matched several nodes.
func IsAmbiguousReference(err error) bool {
	return hasCode(err, ErrCodeAmbiguousReference)
}

// IsUnknownField returns true if a field has no decode conversion.
func IsUnknownField(err error) bool {
	return hasCode(err, ErrCodeUnknownField)
}

// IsTransactionNotSet returns true if a call was made without a transaction.
func IsTransactionNotSet(err error) bool {
	return hasCode(err, ErrCodeTransactionNotSet)
}

// NewNotFoundError creates a MappingError for a missing identifier.
func NewNotFoundError(rui string) *MappingError {
	return &MappingError{
		Code:    ErrCodeNotFound,
		Message: "no node carries this identifier",
		Rui:     rui,
	}
}

// NewNotTupleError creates a MappingError for a non-tuple node.
func NewNotTupleError(rui string, labels []string) *MappingError {
	return &MappingError{
		Code:    ErrCodeNotTuple,
		Message: fmt.Sprintf("node is not a tuple (labels=%v)", labels),
		Rui:     rui,
	}
}

// NewDanglingReferenceError creates a MappingError for references that do
// not resolve.
func NewDanglingReferenceError(rui string, missing []string) *MappingError {
	return &MappingError{
		Code:    ErrCodeDanglingReference,
		Message: "referenced node does not exist",
		Rui:     rui,
		Missing: missing,
	}
}

// NewDuplicateRuiError creates a MappingError for identifiers a tuple
// would introduce a second time.
func NewDuplicateRuiError(rui string, taken []string) *MappingError {
	return &MappingError{
		Code:    ErrCodeDuplicateRui,
		Message: "identifier already in use",
		Rui:     rui,
		Missing: taken,
	}
}

// NewAmbiguousReferenceError creates a MappingError for a write that
// matched several rows.
func NewAmbiguousReferenceError(rui string, rows int) *MappingError {
	return &MappingError{
		Code:    ErrCodeAmbiguousReference,
		Message: fmt.Sprintf("references matched %d rows, expected 1", rows),
		Rui:     rui,
	}
}

// NewUnknownFieldError creates a MappingError for a field without a
// decode conversion.
func NewUnknownFieldError(field string) *MappingError {
	return &MappingError{
		Code:    ErrCodeUnknownField,
		Message: "no conversion registered for field",
		Field:   field,
	}
}

// ErrTransactionNotSet is returned when an encode or decode call has no
// transaction.
var ErrTransactionNotSet = &MappingError{
	Code:    ErrCodeTransactionNotSet,
	Message: "transaction has not been set",
}
