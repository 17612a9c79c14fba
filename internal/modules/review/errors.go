package review

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("review not found")
	ErrForbidden    = errors.New("user is not allowed to perform this action")
	ErrNotCompleted = errors.New("booking is not completed")
	ErrConflict     = errors.New("review already exists for booking")
)
