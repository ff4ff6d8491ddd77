package withdrawal

import "errors"

var (
	ErrNotFound              = errors.New("withdrawal not found")
	ErrMissingPaymentDetails = errors.New("payment details missing")
	ErrBelowMinimum          = errors.New("available balance below minimum withdrawal")
	ErrPendingRequestExists  = errors.New("a pending withdrawal request already exists")
	ErrCooldownActive        = errors.New("withdrawal cooldown active")
	ErrInvalidAmount         = errors.New("invalid withdrawal amount")
	ErrAlreadyProcessed      = errors.New("withdrawal already processed")
	ErrInvalidDecision       = errors.New("invalid decision")
)
