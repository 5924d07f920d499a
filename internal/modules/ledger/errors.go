package ledger

import "errors"

// Ledger errors. All are terminal and recoverable by the caller; the
// handler layer maps each one to a specific user-facing message.
var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountFrozen          = errors.New("account is frozen")
	ErrCurrencyMismatch       = errors.New("accounts use different currencies")
	ErrSameAccount            = errors.New("cannot transfer to the same account")
	ErrConcurrentModification = errors.New("account was modified concurrently, retry limit reached")
)
