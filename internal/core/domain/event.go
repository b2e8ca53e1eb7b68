package domain

import (
	"github.com/google/uuid"
)

// LedgerEvent is published once per committed ledger entry.
type LedgerEvent struct {
	EntryID         uuid.UUID       `json:"entryId"`
	WalletID        uuid.UUID       `json:"walletId"`
	Type            TransactionType `json:"type"`
	Amount          Amount          `json:"amount"`
	BalanceAfter    Amount          `json:"balanceAfter"`
	RelatedWalletID *uuid.UUID      `json:"relatedWalletId,omitempty"`
	Currency        string          `json:"currency"`
	Timestamp       string          `json:"timestamp"`
}

// NewLedgerEvent derives the event for a committed entry.
func NewLedgerEvent(t *Transaction, currency string) LedgerEvent {
	return LedgerEvent{
		EntryID:         t.ID,
		WalletID:        t.WalletID,
		Type:            t.Type,
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
		RelatedWalletID: t.RelatedWalletID,
		Currency:        currency,
		Timestamp:       FormatTimestamp(t.CreatedAt),
	}
}
