package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeFund        TransactionType = "FUND"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Valid reports whether t is one of the known entry kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeFund, TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

// Transaction represents an immutable ledger entry for one wallet.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	Type            TransactionType `json:"type"`
	Amount          Amount          `json:"amount"`
	BalanceAfter    Amount          `json:"balance_after"`
	RelatedWalletID *uuid.UUID      `json:"related_wallet_id,omitempty"`
	IdempotencyKey  *string         `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewFundEntry builds the FUND entry appended after a credit.
func NewFundEntry(walletID uuid.UUID, amount, balanceAfter Amount, key string, at time.Time) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		WalletID:       walletID,
		Type:           TransactionTypeFund,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		IdempotencyKey: optionalKey(key),
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// NewTransferEntries builds the TRANSFER_OUT/TRANSFER_IN pair. Both share
// the timestamp and key and point at each other's wallet.
func NewTransferEntries(from, to *Wallet, amount Amount, key string, at time.Time) (out, in *Transaction) {
	fromID, toID := from.ID, to.ID
	out = &Transaction{
		ID:              uuid.New(),
		WalletID:        fromID,
		Type:            TransactionTypeTransferOut,
		Amount:          amount,
		BalanceAfter:    from.Balance,
		RelatedWalletID: &toID,
		IdempotencyKey:  optionalKey(key),
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	in = &Transaction{
		ID:              uuid.New(),
		WalletID:        toID,
		Type:            TransactionTypeTransferIn,
		Amount:          amount,
		BalanceAfter:    to.Balance,
		RelatedWalletID: &fromID,
		IdempotencyKey:  optionalKey(key),
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	return out, in
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}
