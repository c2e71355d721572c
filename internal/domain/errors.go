package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies failures across the book pipeline and its services.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "validation"
	CodeInvalidInput    ErrorCode = "invalid_input"
	CodeNotFound        ErrorCode = "not_found"
	CodeAuth            ErrorCode = "auth"
	CodeConflict        ErrorCode = "conflict"
	CodeGeneration      ErrorCode = "generation"
	CodeEmptyGeneration ErrorCode = "empty_generation"
	CodeAssetUpload     ErrorCode = "asset_upload"
	CodeStorage         ErrorCode = "storage"
)

// Sentinels for errors.Is. A *Error matches a sentinel by code.
var (
	ErrValidation      = &Error{Code: CodeValidation}
	ErrInvalidInput    = &Error{Code: CodeInvalidInput}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrAuth            = &Error{Code: CodeAuth}
	ErrConflict        = &Error{Code: CodeConflict}
	ErrGeneration      = &Error{Code: CodeGeneration}
	ErrEmptyGeneration = &Error{Code: CodeEmptyGeneration}
	ErrAssetUpload     = &Error{Code: CodeAssetUpload}
	ErrStorage         = &Error{Code: CodeStorage}
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches bare sentinels by code. An empty generation is also a
// generation failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Op != "" || t.Message != "" || t.Cause != nil {
		return e == t
	}
	if e.Code == t.Code {
		return true
	}
	return t.Code == CodeGeneration && e.Code == CodeEmptyGeneration
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode reports whether any *Error in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) ErrorCode {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Code
}

// MessageOf returns the message of the outermost *Error, or "".
func MessageOf(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Message
}
