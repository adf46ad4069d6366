package payment

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindAuthFailed          Kind = "AUTH_FAILED"
	KindProviderRejected    Kind = "PROVIDER_REJECTED"
	KindProviderUnavailable Kind = "PROVIDER_UNAVAILABLE"
)

// Error carries the provider's status and raw body when one was received,
// so rejections are diagnosable without ever being silently swallowed.
type Error struct {
	Kind   Kind
	Detail string
	Status int
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (provider status %d)", e.Kind, e.Detail, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err into a payment *Error, if it is one.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
