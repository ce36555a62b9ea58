package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed or missing fields, non-numeric account
	// numbers and non-positive amounts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates no account exists with the given number.
	ErrNotFound = errors.New("account not found")

	// ErrUnauthorized indicates the supplied password does not match.
	ErrUnauthorized = errors.New("incorrect password")

	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a withdrawal or transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates a unique owner field is already registered.
	ErrConflict = errors.New("conflict")

	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage unavailable")
)

// StorageError reports a persistence failure. The operation that produced it
// left no durable change behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any storage failure.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Invalid builds an ErrInvalidInput carrying a human readable reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
