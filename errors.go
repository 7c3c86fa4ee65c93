package iqpipe

import (
	"errors"
	"fmt"
)

// Error represents a structured pipeline error with stage context.
type Error struct {
	Op    string // Operation that failed (e.g., "dequeue raw_q", "write sink")
	Stage string // Stage name (e.g., "Reader", "PostProc"), "" if not stage-scoped
	Code  ErrorCode
	Msg   string // Human-readable message
	Inner error  // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if e.Stage != "" {
		return fmt.Sprintf("iqpipe: %s (op=%s stage=%s)", msg, e.Op, e.Stage)
	}
	if e.Op != "" {
		return fmt.Sprintf("iqpipe: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("iqpipe: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support, matching on Code alone.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents the high-level category of a pipeline failure (spec
// §7 error taxonomy).
type ErrorCode string

const (
	CodeConfig  ErrorCode = "configuration error"
	CodeAlloc   ErrorCode = "allocation error"
	CodeIO      ErrorCode = "I/O error"
	CodeDevice  ErrorCode = "device error"
	CodeOverrun ErrorCode = "buffer overrun"
)

// NewError creates a new structured error with no stage attribution, used
// for configuration errors detected before any thread starts (spec §7).
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Msg:  msg,
	}
}

// NewStageError creates a new structured error attributed to a running
// pipeline stage, used by the fatal-error helper (spec §4.8, §7).
func NewStageError(stage, op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:    op,
		Stage: stage,
		Code:  code,
		Msg:   msg,
	}
}

// WrapError wraps an existing error with iqpipe stage context.
func WrapError(stage, op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if pe, ok := inner.(*Error); ok {
		return &Error{
			Op:    op,
			Stage: stage,
			Code:  pe.Code,
			Msg:   pe.Msg,
			Inner: pe.Inner,
		}
	}

	return &Error{
		Op:    op,
		Stage: stage,
		Code:  CodeIO,
		Msg:   inner.Error(),
		Inner: inner,
	}
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
