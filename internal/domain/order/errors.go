package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOutOfStock        = errors.New("product out of stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrWalletLimit       = errors.New("wallet usage exceeds allowed limit")
)
