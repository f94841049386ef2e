/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

// Type tells whether a command failed on its input or while running.
type Type int32

const (
	// ValidationError means the arguments were rejected. REST maps it to 400.
	ValidationError Type = iota
	// ExecuteError means the command failed while running. REST maps it to 500.
	ExecuteError
)

// Code identifies a command error. Codes of a command start at its Group.
type Code int32

// UnknownStatus is the code of errors raised outside of any command.
const UnknownStatus Code = 0

// Group is the first code of the errors of one command. Groups are multiples of 1000.
type Group int32

const (
	// Common is the group of errors shared by all commands.
	Common Group = 1000
	// IssueCredential is the group of the issuecredential command.
	IssueCredential Group = 8000
)

// Error is a failed command. A nil Error means success.
type Error interface {
	error
	Code() Code
	Type() Type
}

type commandError struct {
	error
	code    Code
	errType Type
}

// NewValidationError wraps err as a validation error with code.
func NewValidationError(code Code, err error) Error {
	return &commandError{error: err, code: code, errType: ValidationError}
}

// NewExecuteError wraps err as an execution error with code.
func NewExecuteError(code Code, err error) Error {
	return &commandError{error: err, code: code, errType: ExecuteError}
}

func (c *commandError) Code() Code { return c.code }

func (c *commandError) Type() Type { return c.errType }

// Unwrap returns the wrapped error so that errors.Is sees through command errors.
func (c *commandError) Unwrap() error { return c.error }
