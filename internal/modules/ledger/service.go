package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbase/corebank/pkg/money"
	"github.com/finbase/corebank/pkg/refid"
)

// DefaultRetryLimit caps optimistic concurrency retries. Contention is
// per-account, so a handful of attempts is enough; no backoff.
const DefaultRetryLimit = 3

// Detail carries per-operation context for the transaction record.
type Detail struct {
	Type        TransactionType
	ReferenceID string // generated from the type's prefix when empty
	Metadata    map[string]string
}

// Ledger owns account balances. Every mutation is validated and written
// as one atomic compare-and-swap against the account version, so a
// rejected operation never leaves partial state and two racing debits
// can never both succeed.
type Ledger struct {
	store      Store
	refs       *refid.Generator
	retryLimit int
	log        zerolog.Logger
}

// New creates a new account ledger
func New(store Store, refs *refid.Generator, retryLimit int, log zerolog.Logger) *Ledger {
	if retryLimit < 1 {
		retryLimit = DefaultRetryLimit
	}
	return &Ledger{
		store:      store,
		refs:       refs,
		retryLimit: retryLimit,
		log:        log.With().Str("service", "ledger").Logger(),
	}
}

// CreateAccount opens an account with an optional opening balance.
func (l *Ledger) CreateAccount(ctx context.Context, currency money.Currency, openingBalance int64) (*Account, error) {
	if openingBalance < 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	acct := &Account{
		ID:        uuid.NewString(),
		Balance:   openingBalance,
		Currency:  currency,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetAccount returns the latest committed account state
func (l *Ledger) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	return l.store.GetAccount(ctx, accountID)
}

// BalanceOf returns the latest committed balance
func (l *Ledger) BalanceOf(ctx context.Context, accountID string) (money.Money, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return money.Money{}, err
	}
	return acct.BalanceMoney(), nil
}

// SetFrozen freezes or unfreezes an account
func (l *Ledger) SetFrozen(ctx context.Context, accountID string, frozen bool) error {
	return l.store.SetFrozen(ctx, accountID, frozen)
}

// History returns the account's transaction records, newest first
func (l *Ledger) History(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error) {
	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return l.store.ListTransactions(ctx, accountID, limit)
}

// Debit removes amount from the account. Preconditions: amount > 0,
// account exists, not frozen, balance >= amount. On success the balance
// decrease, version bump and completed record commit together; on any
// rejection nothing is written.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int64, d Detail) (*TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	for attempt := 0; attempt < l.retryLimit; attempt++ {
		acct, err := l.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if acct.Frozen {
			return nil, ErrAccountFrozen
		}
		if acct.Balance < amount {
			return nil, ErrInsufficientFunds
		}

		record := l.newRecord(acct, -amount, d)
		ok, err := l.store.Apply(ctx,
			[]BalanceChange{{AccountID: accountID, NewBalance: acct.Balance - amount, ExpectedVersion: acct.Version}},
			[]*TransactionRecord{record},
		)
		if err != nil {
			return nil, err
		}
		if ok {
			l.log.Info().
				Str("account_id", accountID).
				Int64("amount", amount).
				Str("reference_id", record.ReferenceID).
				Str("type", string(record.Type)).
				Msg("Debit applied")
			return record, nil
		}

		l.log.Debug().Str("account_id", accountID).Int("attempt", attempt+1).Msg("Debit CAS conflict, retrying")
	}

	return nil, ErrConcurrentModification
}

// Credit adds amount to the account. Preconditions: amount > 0, account
// exists, not frozen.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount int64, d Detail) (*TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	for attempt := 0; attempt < l.retryLimit; attempt++ {
		acct, err := l.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if acct.Frozen {
			return nil, ErrAccountFrozen
		}

		record := l.newRecord(acct, amount, d)
		ok, err := l.store.Apply(ctx,
			[]BalanceChange{{AccountID: accountID, NewBalance: acct.Balance + amount, ExpectedVersion: acct.Version}},
			[]*TransactionRecord{record},
		)
		if err != nil {
			return nil, err
		}
		if ok {
			l.log.Info().
				Str("account_id", accountID).
				Int64("amount", amount).
				Str("reference_id", record.ReferenceID).
				Str("type", string(record.Type)).
				Msg("Credit applied")
			return record, nil
		}

		l.log.Debug().Str("account_id", accountID).Int("attempt", attempt+1).Msg("Credit CAS conflict, retrying")
	}

	return nil, ErrConcurrentModification
}

// Transfer atomically moves amount between two accounts. Both legs commit
// in one store transaction and each leg gets its own reference ID; the
// records are linked through a shared transfer_id in metadata.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount int64) (*TransactionRecord, *TransactionRecord, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if fromID == toID {
		return nil, nil, ErrSameAccount
	}

	transferID := uuid.NewString()

	for attempt := 0; attempt < l.retryLimit; attempt++ {
		from, err := l.store.GetAccount(ctx, fromID)
		if err != nil {
			return nil, nil, err
		}
		to, err := l.store.GetAccount(ctx, toID)
		if err != nil {
			return nil, nil, err
		}

		if from.Frozen || to.Frozen {
			return nil, nil, ErrAccountFrozen
		}
		if from.Currency != to.Currency {
			return nil, nil, ErrCurrencyMismatch
		}
		if from.Balance < amount {
			return nil, nil, ErrInsufficientFunds
		}

		out := l.newRecord(from, -amount, Detail{
			Type:     TxnTransfer,
			Metadata: map[string]string{"transfer_id": transferID, "counterparty": toID},
		})
		in := l.newRecord(to, amount, Detail{
			Type:     TxnTransfer,
			Metadata: map[string]string{"transfer_id": transferID, "counterparty": fromID},
		})

		ok, err := l.store.Apply(ctx,
			[]BalanceChange{
				{AccountID: fromID, NewBalance: from.Balance - amount, ExpectedVersion: from.Version},
				{AccountID: toID, NewBalance: to.Balance + amount, ExpectedVersion: to.Version},
			},
			[]*TransactionRecord{out, in},
		)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			l.log.Info().
				Str("from", fromID).
				Str("to", toID).
				Int64("amount", amount).
				Str("transfer_id", transferID).
				Msg("Transfer applied")
			return out, in, nil
		}

		l.log.Debug().Str("from", fromID).Str("to", toID).Int("attempt", attempt+1).Msg("Transfer CAS conflict, retrying")
	}

	return nil, nil, ErrConcurrentModification
}

// RecordFailure appends a terminal failed record without touching the
// balance, so attempts that die after a committed debit still show up in
// the account history.
func (l *Ledger) RecordFailure(ctx context.Context, accountID string, amount int64, d Detail, reason string) (*TransactionRecord, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	d.Metadata["failure_reason"] = reason

	record := l.newRecord(acct, amount, d)
	record.Status = StatusFailed

	if err := l.store.AppendTransaction(ctx, record); err != nil {
		return nil, err
	}

	l.log.Warn().
		Str("account_id", accountID).
		Str("reference_id", record.ReferenceID).
		Str("reason", reason).
		Msg("Failed transaction recorded")

	return record, nil
}

func (l *Ledger) newRecord(acct *Account, signedAmount int64, d Detail) *TransactionRecord {
	ref := d.ReferenceID
	if ref == "" {
		ref = l.refs.Next(d.Type.ReferencePrefix())
	}

	return &TransactionRecord{
		AccountID:   acct.ID,
		Type:        d.Type,
		Amount:      signedAmount,
		Currency:    acct.Currency,
		Status:      StatusCompleted,
		ReferenceID: ref,
		Metadata:    d.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
}
