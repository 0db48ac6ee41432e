package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Handlers match these with errors.Is to pick a
// response status; everything else is treated as an internal failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// NotFoundMsg returns an error whose message is exactly msg and which still
// matches ErrNotFound under errors.Is. Used where the caller-facing wording
// is part of the contract.
func NotFoundMsg(msg string) error {
	return &notFoundError{msg: msg}
}

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// ParseError reports that a report could not be structurally interpreted.
// The owning Upload is left in the failed state so it is not silently retried.
type ParseError struct {
	UploadID string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse upload %s: %s", e.UploadID, e.Reason)
}
