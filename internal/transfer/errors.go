package transfer

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindWalletNotFound = Kind("wallet_not_found")
	KindValidation     = Kind("validation_error")
	KindNotConnected   = Kind("not_connected")
	KindChainSwitch    = Kind("chain_switch_error")
	KindProvider       = Kind("provider_error")
)

// Sentinels for errors.Is matching by kind.
var (
	ErrWalletNotFound = &Error{Kind: KindWalletNotFound}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotConnected   = &Error{Kind: KindNotConnected}
	ErrChainSwitch    = &Error{Kind: KindChainSwitch}
	ErrProvider       = &Error{Kind: KindProvider}
)

// ErrInProgress is returned when the same operation is already running.
// It never reaches the status message.
var ErrInProgress = errors.New("operation already in progress")

// Error is a controller failure: a machine-readable Kind plus a
// human-readable Detail, optionally wrapping the underlying cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Message is the detail shown to the user. Provider errors pass the
// underlying text through verbatim.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// ErrorInfo is the serializable form of an *Error kept in State.
type ErrorInfo struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
}
