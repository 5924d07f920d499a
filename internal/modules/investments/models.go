package investments

import (
	"fmt"
	"strings"
	"time"

	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

// InstrumentType classifies the investable asset
type InstrumentType string

const (
	InstrumentRealEstate InstrumentType = "real-estate"
	InstrumentStock      InstrumentType = "stock"
	InstrumentCrypto     InstrumentType = "crypto"
)

// IsValid checks if the instrument type is known
func (t InstrumentType) IsValid() bool {
	return t == InstrumentRealEstate || t == InstrumentStock || t == InstrumentCrypto
}

// ReferencePrefix returns the reference ID prefix for the type
func (t InstrumentType) ReferencePrefix() string {
	switch t {
	case InstrumentRealEstate:
		return refid.PrefixRealEstate
	case InstrumentStock:
		return refid.PrefixStock
	case InstrumentCrypto:
		return refid.PrefixCrypto
	default:
		return "INV"
	}
}

// InstrumentTypeFromString parses an instrument type (case-insensitive)
func InstrumentTypeFromString(value string) (InstrumentType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "real-estate", "realestate":
		return InstrumentRealEstate, nil
	case "stock":
		return InstrumentStock, nil
	case "crypto":
		return InstrumentCrypto, nil
	default:
		return "", fmt.Errorf("invalid instrument type: %s", value)
	}
}

// Instrument is a snapshot of catalog data at call time. Valuation and
// minimum stake come from the pricing collaborator; the processor treats
// them as inputs, not owned state. Amounts are minor units.
type Instrument struct {
	ID               string         `json:"id"`
	Type             InstrumentType `json:"type"`
	Name             string         `json:"name"`
	Valuation        int64          `json:"valuation"`
	MinimumStake     int64          `json:"minimum_stake"`
	ExpectedReturnBP int64          `json:"expected_return_bp"` // annual, basis points
}

// EffectiveMinimumStake returns the floor for a purchase. Real estate
// defaults to 10% of the valuation when the catalog gives no explicit
// floor; stock and crypto floors are always instrument-specific.
func (i Instrument) EffectiveMinimumStake() int64 {
	if i.MinimumStake > 0 {
		return i.MinimumStake
	}
	if i.Type == InstrumentRealEstate {
		return money.DivRoundHalfEven(i.Valuation, 10)
	}
	return 0
}

// Validate checks instrument data supplied by the caller
func (i Instrument) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("instrument id cannot be empty")
	}
	if !i.Type.IsValid() {
		return fmt.Errorf("invalid instrument type: %s", i.Type)
	}
	if i.Valuation <= 0 {
		return fmt.Errorf("instrument valuation must be positive")
	}
	if i.MinimumStake < 0 {
		return fmt.Errorf("instrument minimum stake cannot be negative")
	}
	return nil
}

// PositionStatus is the lifecycle state of a position
type PositionStatus string

const (
	PositionActive    PositionStatus = "active"
	PositionSold      PositionStatus = "sold"
	PositionCancelled PositionStatus = "cancelled"
)

// Position is created by a completed investment purchase and retained
// for audit after sale; it is never hard-deleted. Ownership is stored in
// basis points: 1111 bp = 11.11% of the instrument.
type Position struct {
	PositionID          string         `json:"position_id"`
	AccountID           string         `json:"account_id"`
	InstrumentID        string         `json:"instrument_id"`
	InstrumentType      InstrumentType `json:"instrument_type"`
	InstrumentName      string         `json:"instrument_name,omitempty"`
	AmountInvested      int64          `json:"amount_invested"`
	InstrumentValuation int64          `json:"instrument_valuation"`
	OwnershipBP         int64          `json:"ownership_bp"`
	ExpectedReturnBP    int64          `json:"expected_return_bp"`
	Status              PositionStatus `json:"status"`
	ReferenceID         string         `json:"reference_id"`
	RealizedPnL         *int64         `json:"realized_pnl,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	ClosedAt            *time.Time     `json:"closed_at,omitempty"`
}

// OwnershipPercentage renders the ownership share for receipts, e.g. "11.11"
func (p Position) OwnershipPercentage() string {
	return money.FormatBasisPoints(p.OwnershipBP)
}
