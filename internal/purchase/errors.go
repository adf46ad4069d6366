package purchase

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable classification returned to clients.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindNotFound          Kind = "NOT_FOUND"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindStoreUnavailable  Kind = "STORE_UNAVAILABLE"
)

type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err into a purchase *Error, if it is one.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func invalidInput(detail string) *Error {
	return &Error{Kind: KindInvalidInput, Detail: detail}
}

func notFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func insufficientStock(available, required int) *Error {
	return &Error{
		Kind:   KindInsufficientStock,
		Detail: fmt.Sprintf("requested %d but only %d in stock", required, available),
	}
}

func storeUnavailable(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Detail: "ledger store unavailable", Err: err}
}
