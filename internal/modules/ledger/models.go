package ledger

import (
	"time"

	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

// TransactionType classifies a balance-affecting event
type TransactionType string

const (
	TxnDeposit            TransactionType = "deposit"
	TxnWithdrawal         TransactionType = "withdrawal"
	TxnTransfer           TransactionType = "transfer"
	TxnInvestmentPurchase TransactionType = "investment-purchase"
	TxnInvestmentSale     TransactionType = "investment-sale"
	TxnLoanDisbursement   TransactionType = "loan-disbursement"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnTransfer,
		TxnInvestmentPurchase, TxnInvestmentSale, TxnLoanDisbursement:
		return true
	}
	return false
}

// ReferencePrefix returns the default reference ID prefix for the type.
// Investment transactions carry instrument-specific prefixes supplied by
// the caller instead.
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TxnDeposit:
		return refid.PrefixDeposit
	case TxnWithdrawal:
		return refid.PrefixWithdrawal
	case TxnTransfer:
		return refid.PrefixTransfer
	case TxnLoanDisbursement:
		return refid.PrefixLoan
	default:
		return "TXN"
	}
}

// TransactionStatus is the lifecycle state of a transaction record
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transition
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Account holds one user's balance. Balance is int64 minor units and is
// never observable below zero; Version increases on every mutation and
// guards the compare-and-swap write path.
type Account struct {
	ID        string         `json:"id"`
	Balance   int64          `json:"balance"`
	Currency  money.Currency `json:"currency"`
	Frozen    bool           `json:"frozen"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BalanceMoney returns the balance as a Money value
func (a *Account) BalanceMoney() money.Money {
	return money.New(a.Balance, a.Currency)
}

// TransactionRecord is one immutable entry in the account history.
// Amount is signed: positive credits the account, negative debits it.
type TransactionRecord struct {
	ID          int64             `json:"id"`
	AccountID   string            `json:"account_id"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	Currency    money.Currency    `json:"currency"`
	Status      TransactionStatus `json:"status"`
	ReferenceID string            `json:"reference_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
