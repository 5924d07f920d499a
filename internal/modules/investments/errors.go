package investments

import "errors"

// Investment validation errors. First failure wins; a rejected purchase
// touches neither the ledger nor the positions table.
var (
	ErrBelowMinimum           = errors.New("amount is below the instrument minimum stake")
	ErrExceedsInstrumentValue = errors.New("amount exceeds the instrument valuation")
	ErrPositionNotFound       = errors.New("position not found")
	ErrPositionNotActive      = errors.New("position is not active")
	ErrInvalidInstrument      = errors.New("invalid instrument")
)
