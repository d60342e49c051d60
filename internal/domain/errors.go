package domain

import (
	"errors"
	"fmt"
)

// BankErrorKind tags a provider failure with its domain meaning.
type BankErrorKind string

const (
	KindAuthFailed  BankErrorKind = "auth_failed"
	KindNotFound    BankErrorKind = "not_found"
	KindBadRequest  BankErrorKind = "bad_request"
	KindRateLimited BankErrorKind = "rate_limited"
	KindUnknown     BankErrorKind = "unknown"
)

// BankError is the shared taxonomy for provider-layer failures.
// NotFound is the only kind a caller may treat as an empty result.
type BankError struct {
	Kind     BankErrorKind
	Provider string
	Status   int // transport status code when available, 0 otherwise
	Msg      string
}

func (e *BankError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Msg)
}

// IsNotFound reports whether err is a BankError of kind NotFound.
func IsNotFound(err error) bool {
	var be *BankError
	return errors.As(err, &be) && be.Kind == KindNotFound
}

// ValidationError marks bad user input. Use cases recover locally and
// re-prompt instead of surfacing it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
