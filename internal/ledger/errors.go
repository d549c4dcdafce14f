package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any mutation when arguments are
	// rejected: non-positive reward, empty text, unknown child.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownChild is an ErrInvalidInput for names outside the roster.
	ErrUnknownChild = fmt.Errorf("%w: unknown child", ErrInvalidInput)

	// ErrStorage wraps any persistence failure. When it is returned the
	// enclosing transaction has been rolled back in full.
	ErrStorage = errors.New("storage failure")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
