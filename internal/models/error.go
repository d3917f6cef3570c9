package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("role is not allowed to request this transition")
	ErrMissingProof      = errors.New("payment method or proof image is missing")
	ErrMissingReason     = errors.New("rejection reason is missing")
	ErrOrderClosed       = errors.New("order is closed for further transitions")
	ErrNetworkFailure    = errors.New("network failure")
	ErrConflictData      = errors.New("data conflicts with existing data")
	ErrDataNotFound      = errors.New("data not found")
	ErrInternalError     = errors.New("internal error")
)

// TransitionError is returned for an edge not present in the transition
// table. It carries the attempted from/to pair.
type TransitionError struct {
	From string
	To   string
}

func NewTransitionError(from, to string) TransitionError {
	return TransitionError{From: from, To: to}
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// error codes carried in the HTTP error envelope
const (
	CodeInvalidTransition = "invalid_transition"
	CodeUnauthorized      = "unauthorized"
	CodeMissingProof      = "missing_proof"
	CodeMissingReason     = "missing_reason"
	CodeOrderClosed       = "order_closed"
	CodeConflict          = "conflict"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal"
)

// ErrorCode maps a model error to its envelope code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrMissingProof):
		return CodeMissingProof
	case errors.Is(err, ErrMissingReason):
		return CodeMissingReason
	case errors.Is(err, ErrOrderClosed):
		return CodeOrderClosed
	case errors.Is(err, ErrConflictData):
		return CodeConflict
	case errors.Is(err, ErrDataNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// ErrorFromCode maps an envelope code back to the model error it encodes.
func ErrorFromCode(code string) error {
	switch code {
	case CodeInvalidTransition:
		return ErrInvalidTransition
	case CodeUnauthorized:
		return ErrUnauthorized
	case CodeMissingProof:
		return ErrMissingProof
	case CodeMissingReason:
		return ErrMissingReason
	case CodeOrderClosed:
		return ErrOrderClosed
	case CodeConflict:
		return ErrConflictData
	case CodeNotFound:
		return ErrDataNotFound
	default:
		return ErrInternalError
	}
}
