package booking

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrNotAvailable      = errors.New("not available for booking")
	ErrForbidden         = errors.New("user is not allowed to perform this action")
	ErrInvalidTransition = errors.New("invalid status transition")
)
