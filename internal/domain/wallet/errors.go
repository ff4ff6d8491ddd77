package wallet

import "errors"

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientAvailable  = errors.New("insufficient available balance")
	ErrInsufficientHold       = errors.New("on-hold amount smaller than requested")
	ErrDuplicateReference     = errors.New("duplicate reference")
	ErrReferenceConflict      = errors.New("reference conflicts with different amount")
	ErrConcurrentModification = errors.New("wallet modified concurrently")
)
