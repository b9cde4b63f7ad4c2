// Package errors provides centralized error definitions and error handling
// utilities for the jamcord codebase. It defines domain-specific errors,
// sentinel errors, constructors with context wrapping, and classification
// helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from specific subsystems:
//   - SessionError: errors related to session lifecycle and the turn loop
//   - TransportError: errors from the chat platform capability
//   - EvalError: errors raised while evaluating a submission
//
// Sentinel errors represent common conditions checked with errors.Is:
//
//	if errors.Is(err, errors.ErrSessionExists) { ... }
//
// # Classification
//
// Errors can be classified for handling policy:
//   - IsRetryable: transient errors that may succeed on retry
//   - IsUserFacing: errors whose message is safe to show to a participant
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience. Callers import only
// this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrSessionExists indicates the room already has an active session.
	ErrSessionExists = New("session already active in this room")
	// ErrSessionNotFound indicates no active session exists for a room.
	ErrSessionNotFound = New("no session in this room")
	// ErrSessionInactive indicates the session has begun termination.
	ErrSessionInactive = New("session is not active")
	// ErrNoSubmission indicates the join prompt expired without a submission.
	ErrNoSubmission = New("no submission was posted in time")
)

// Transport-related sentinel errors
var (
	// ErrMessageNotFound indicates a message vanished from the platform.
	ErrMessageNotFound = New("message not found")
	// ErrForbidden indicates the platform refused an edit or delete.
	ErrForbidden = New("operation forbidden by platform")
	// ErrRoomNotFound indicates an unknown room identifier.
	ErrRoomNotFound = New("room not found")
)

// Evaluator- and sample-related sentinel errors
var (
	// ErrEvaluatorClosed indicates the interpreter process is gone.
	ErrEvaluatorClosed = New("evaluator is closed")
	// ErrUnknownKind indicates an unsupported interpreter kind.
	ErrUnknownKind = New("unknown interpreter kind")
	// ErrSampleExists indicates a sample with that name is already present.
	ErrSampleExists = New("sample already exists")
	// ErrSampleNotFound indicates no sample with that name is present.
	ErrSampleNotFound = New("sample does not exist")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for the domain error types.
type baseError struct {
	message    string
	cause      error
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is reports whether this error wraps the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is transient.
func (e *baseError) IsRetryable() bool { return e.retryable }

// IsUserFacing returns whether the message is safe to show a participant.
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents errors related to session lifecycle and the loop.
type SessionError struct {
	baseError
	RoomID string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			userFacing: true,
		},
	}
}

// WithRoom adds the room identifier to the error context.
func (e *SessionError) WithRoom(roomID string) *SessionError {
	e.RoomID = roomID
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.RoomID != "" {
		prefix = fmt.Sprintf("session error [room=%s]", e.RoomID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// TransportError represents a failure reported by the chat platform.
type TransportError struct {
	baseError
	MessageID string
}

// NewTransportError creates a new TransportError. Transport failures are
// retryable by default; the display supervisor retries surface updates once.
func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			retryable: true,
		},
	}
}

// WithMessageID adds the platform message identifier to the error context.
func (e *TransportError) WithMessageID(id string) *TransportError {
	e.MessageID = id
	return e
}

// Error returns the formatted error message.
func (e *TransportError) Error() string {
	prefix := "transport error"
	if e.MessageID != "" {
		prefix = fmt.Sprintf("transport error [message=%s]", e.MessageID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// EvalError represents an error raised while evaluating a submission.
// It carries the side-channel output the evaluator produced before failing,
// so the publisher can render output followed by the trace.
type EvalError struct {
	baseError
	Output string
}

// NewEvalError creates a new EvalError.
func NewEvalError(message string, cause error) *EvalError {
	return &EvalError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			userFacing: true,
		},
	}
}

// WithOutput attaches the side-channel output captured before the failure.
func (e *EvalError) WithOutput(out string) *EvalError {
	e.Output = out
	return e
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// classifier is implemented by errors that carry handling metadata.
type classifier interface {
	IsRetryable() bool
	IsUserFacing() bool
}

// IsRetryable reports whether err (or anything it wraps) is transient.
func IsRetryable(err error) bool {
	var c classifier
	if errors.As(err, &c) {
		return c.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether err is safe to show to a participant.
func IsUserFacing(err error) bool {
	var c classifier
	if errors.As(err, &c) {
		return c.IsUserFacing()
	}
	return false
}
