package investments

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbase/corebank/internal/modules/ledger"
	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

// Processor validates investment requests against instrument rules and
// orchestrates the ledger debit plus the position record.
type Processor struct {
	ledger    *ledger.Ledger
	positions *Repository
	refs      *refid.Generator
	log       zerolog.Logger
}

// NewProcessor creates a new investment processor
func NewProcessor(ledger *ledger.Ledger, positions *Repository, refs *refid.Generator, log zerolog.Logger) *Processor {
	return &Processor{
		ledger:    ledger,
		positions: positions,
		refs:      refs,
		log:       log.With().Str("service", "investments").Logger(),
	}
}

// PurchaseResult pairs the transaction record with the created position
// for the receipt subsystem.
type PurchaseResult struct {
	Record   *ledger.TransactionRecord `json:"record"`
	Position *Position                 `json:"position"`
}

// Purchase buys a share of an instrument. Validation short-circuits on
// the first failure, in this order: amount positive, minimum stake,
// instrument valuation ceiling, non-zero ownership share, available
// balance. Only then is the
// ledger debited; the debit's compare-and-swap is the commit point, so a
// concurrent debit shrinking the balance surfaces as InsufficientFunds
// or ConcurrentModification from the ledger, never as a negative balance
// or an orphaned position.
func (p *Processor) Purchase(ctx context.Context, accountID string, inst Instrument, amount int64) (*PurchaseResult, error) {
	if err := inst.Validate(); err != nil {
		return nil, ErrInvalidInstrument
	}

	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if amount < inst.EffectiveMinimumStake() {
		return nil, ErrBelowMinimum
	}
	if amount > inst.Valuation {
		return nil, ErrExceedsInstrumentValue
	}

	// Ownership is carried in basis points; a stake too small to register
	// a single one would create a position owning 0% of the instrument.
	ownershipBP := money.BasisPoints(amount, inst.Valuation)
	if ownershipBP == 0 {
		return nil, ErrBelowMinimum
	}

	balance, err := p.ledger.BalanceOf(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if balance.Amount < amount {
		return nil, ledger.ErrInsufficientFunds
	}

	referenceID := p.refs.Next(inst.Type.ReferencePrefix())

	record, err := p.ledger.Debit(ctx, accountID, amount, ledger.Detail{
		Type:        ledger.TxnInvestmentPurchase,
		ReferenceID: referenceID,
		Metadata: map[string]string{
			"instrument_id":   inst.ID,
			"instrument_type": string(inst.Type),
			"instrument_name": inst.Name,
			"ownership_pct":   money.FormatBasisPoints(ownershipBP),
		},
	})
	if err != nil {
		return nil, err
	}

	position := &Position{
		PositionID:          uuid.NewString(),
		AccountID:           accountID,
		InstrumentID:        inst.ID,
		InstrumentType:      inst.Type,
		InstrumentName:      inst.Name,
		AmountInvested:      amount,
		InstrumentValuation: inst.Valuation,
		OwnershipBP:         ownershipBP,
		ExpectedReturnBP:    inst.ExpectedReturnBP,
		Status:              PositionActive,
		ReferenceID:         referenceID,
		CreatedAt:           time.Now().UTC(),
	}

	if err := p.positions.Create(ctx, position); err != nil {
		p.reversePurchase(ctx, accountID, amount, referenceID)
		return nil, err
	}

	p.log.Info().
		Str("account_id", accountID).
		Str("instrument_id", inst.ID).
		Int64("amount", amount).
		Int64("ownership_bp", ownershipBP).
		Str("reference_id", referenceID).
		Msg("Investment purchased")

	return &PurchaseResult{Record: record, Position: position}, nil
}

// reversePurchase compensates a committed debit whose position could not
// be stored. The credit restores the balance and a terminal failed record
// keeps the attempt visible in the audit trail; the record is appended
// even when the credit leg itself cannot land.
func (p *Processor) reversePurchase(ctx context.Context, accountID string, amount int64, purchaseRef string) {
	_, err := p.ledger.Credit(ctx, accountID, amount, ledger.Detail{
		Type: ledger.TxnInvestmentPurchase,
		Metadata: map[string]string{
			"reversal_of": purchaseRef,
		},
	})
	if err != nil {
		// Balance and position now disagree; this needs an operator.
		p.log.Error().
			Err(err).
			Str("account_id", accountID).
			Str("reversal_of", purchaseRef).
			Msg("Failed to reverse purchase debit")
	}

	if _, err := p.ledger.RecordFailure(ctx, accountID, -amount, ledger.Detail{
		Type: ledger.TxnInvestmentPurchase,
		Metadata: map[string]string{
			"attempted_reference": purchaseRef,
		},
	}, "position creation failed"); err != nil {
		p.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to record purchase failure")
	}
}

// SellResult pairs the crediting record with the closed position.
type SellResult struct {
	Record      *ledger.TransactionRecord `json:"record"`
	Position    *Position                 `json:"position"`
	RealizedPnL int64                     `json:"realized_pnl"`
}

// Sell closes an active position at the given current value. The ledger
// is credited with the sale proceeds and the realized profit or loss is
// currentValue - amountInvested.
func (p *Processor) Sell(ctx context.Context, positionID string, currentValue int64) (*SellResult, error) {
	if currentValue <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	position, err := p.positions.GetByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if position.Status != PositionActive {
		return nil, ErrPositionNotActive
	}

	realizedPnL := currentValue - position.AmountInvested

	// Claim the position first; the status guard makes concurrent sells
	// of the same position race for a single winner.
	if err := p.positions.Close(ctx, positionID, realizedPnL); err != nil {
		return nil, err
	}

	record, err := p.ledger.Credit(ctx, position.AccountID, currentValue, ledger.Detail{
		Type:        ledger.TxnInvestmentSale,
		ReferenceID: p.refs.Next(position.InstrumentType.ReferencePrefix()),
		Metadata: map[string]string{
			"position_id":   positionID,
			"instrument_id": position.InstrumentID,
			"purchase_ref":  position.ReferenceID,
			"realized_pnl":  strconv.FormatInt(realizedPnL, 10),
		},
	})
	if err != nil {
		if reopenErr := p.positions.Reopen(ctx, positionID); reopenErr != nil {
			p.log.Error().Err(reopenErr).Str("position_id", positionID).Msg("Failed to reopen position after credit failure")
		}
		return nil, err
	}

	position.Status = PositionSold
	position.RealizedPnL = &realizedPnL
	now := time.Now().UTC()
	position.ClosedAt = &now

	p.log.Info().
		Str("position_id", positionID).
		Int64("current_value", currentValue).
		Int64("realized_pnl", realizedPnL).
		Msg("Position sold")

	return &SellResult{Record: record, Position: position, RealizedPnL: realizedPnL}, nil
}

// ListPositions returns an account's positions, newest first
func (p *Processor) ListPositions(ctx context.Context, accountID string) ([]Position, error) {
	return p.positions.ListByAccount(ctx, accountID)
}
