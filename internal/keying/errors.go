package keying

import (
	"errors"
	"fmt"
)

// TargetErrorCode categorizes target resolution failures.
type TargetErrorCode string

const (
	// ErrCodeOwnerNotFound indicates the owner does not exist.
	ErrCodeOwnerNotFound TargetErrorCode = "OWNER_NOT_FOUND"

	// ErrCodePathNotFound indicates the path does not name a property.
	ErrCodePathNotFound TargetErrorCode = "PATH_NOT_FOUND"

	// ErrCodeIndexOutOfRange indicates the element index exceeds the array.
	ErrCodeIndexOutOfRange TargetErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeNotAnimatable indicates the property cannot carry keys.
	ErrCodeNotAnimatable TargetErrorCode = "NOT_ANIMATABLE"

	// ErrCodeCurveUnavailable indicates the host could not provide a curve.
	ErrCodeCurveUnavailable TargetErrorCode = "CURVE_UNAVAILABLE"
)

// TargetError is returned by hosts and recorded by the dispatcher when a
// target cannot be resolved to a keyable channel.
type TargetError struct {
	Code  TargetErrorCode
	Owner string
	Path  string
	// Index is the element index, -1 for the whole array.
	Index int
	Err   error
}

// Error implements the error interface.
func (e *TargetError) Error() string {
	where := e.Path
	if e.Index >= 0 {
		where = fmt.Sprintf("%s[%d]", e.Path, e.Index)
	}
	if e.Owner != "" {
		where = e.Owner + "." + where
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, where, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, where)
}

// Unwrap returns the underlying error.
func (e *TargetError) Unwrap() error {
	return e.Err
}

// NewTargetError creates a TargetError.
func NewTargetError(code TargetErrorCode, owner, path string, index int) *TargetError {
	return &TargetError{Code: code, Owner: owner, Path: path, Index: index}
}

// CodeOf returns the TargetErrorCode of err, or "" when err is not a
// TargetError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) TargetErrorCode {
	var te *TargetError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsTargetError reports whether err is a TargetError with the given code.
func IsTargetError(err error, code TargetErrorCode) bool {
	return CodeOf(err) == code
}
