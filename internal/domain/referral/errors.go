package referral

import "errors"

var (
	ErrCodeNotFound            = errors.New("referral code not found")
	ErrCodeGenerationExhausted = errors.New("referral code generation exhausted retries")
	ErrCommissionNotFound      = errors.New("commission not found")
	ErrCommissionAlreadyPaid   = errors.New("commission already marked paid")
)
