package compiler

import (
	"errors"
	"fmt"
)

// ErrorCode classifies compile failures.
type ErrorCode string

const (
	ErrUnknownLabel            ErrorCode = "UnknownLabel"
	ErrLabelKindMismatch       ErrorCode = "LabelKindMismatch"
	ErrVariableRedeclaration   ErrorCode = "VariableRedeclaration"
	ErrUndefinedVariable       ErrorCode = "UndefinedVariable"
	ErrPathTooShort            ErrorCode = "PathTooShort"
	ErrInvalidPattern          ErrorCode = "InvalidPattern"
	ErrUnsupportedFeature      ErrorCode = "UnsupportedFeature"
	ErrInvalidLimitReference   ErrorCode = "InvalidLimitReference"
	ErrClauseCannotBeFirst     ErrorCode = "ClauseCannotBeFirst"
	ErrExistingEntityAnnotated ErrorCode = "ExistingEntityAnnotated"
	ErrInternal                ErrorCode = "Internal"
)

// CompileError is the only error type the compiler produces for query
// problems. Location is a byte offset into the original query text, carried
// through from the AST for user-facing reporting.
type CompileError struct {
	Code     ErrorCode
	Message  string
	Location int
}

func (e *CompileError) Error() string {
	if e.Location >= 0 {
		return fmt.Sprintf("%s: %s (at offset %d)", e.Code, e.Message, e.Location)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match on a bare code: errors.Is(err, &CompileError{Code: ErrUnknownLabel}).
func (e *CompileError) Is(target error) bool {
	var ce *CompileError
	if !errors.As(target, &ce) {
		return false
	}
	return ce.Code == e.Code && (ce.Message == "" || ce.Message == e.Message)
}

func compileErrorf(code ErrorCode, loc int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

// CodeOf extracts the error code, or Internal for foreign errors.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrInternal
}
