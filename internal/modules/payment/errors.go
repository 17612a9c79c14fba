package payment

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("payment not found")
	ErrForbidden        = errors.New("user is not allowed to perform this action")
	ErrDuplicatePayment = errors.New("payment already exists for booking")
	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrInvalidState     = errors.New("booking is not in a payable state")
	ErrUnknownRail      = errors.New("unknown payment rail")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
