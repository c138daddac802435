package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrDictionaryMissing matches DictionaryMissingError for errors.Is checks.
var ErrDictionaryMissing = errors.New("no complete field dictionary")

// DictionaryMissingError indicates a query operation was attempted before a
// complete field dictionary exists for the session. The caller must run
// dictionary extraction first.
type DictionaryMissingError struct {
	SessionID uuid.UUID
}

func (e *DictionaryMissingError) Error() string {
	return fmt.Sprintf("no complete field dictionary for session %s", e.SessionID)
}

func (e *DictionaryMissingError) Is(target error) bool {
	return target == ErrDictionaryMissing
}

// InvalidDictionaryError indicates a user-supplied dictionary edit failed
// structural validation. It is client input, not a server fault.
type InvalidDictionaryError struct {
	Err error
}

func (e *InvalidDictionaryError) Error() string {
	return fmt.Sprintf("invalid dictionary: %v", e.Err)
}

func (e *InvalidDictionaryError) Unwrap() error {
	return e.Err
}
