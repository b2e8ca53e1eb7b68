package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is ISO-8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// TransactionView is a ledger entry as returned to callers.
type TransactionView struct {
	ID              uuid.UUID       `json:"id"`
	Type            TransactionType `json:"type"`
	Amount          Amount          `json:"amount"`
	Timestamp       string          `json:"timestamp"`
	BalanceAfter    Amount          `json:"balanceAfter"`
	RelatedWalletID *uuid.UUID      `json:"relatedWalletId,omitempty"`
	IdempotencyKey  *string         `json:"idempotencyKey,omitempty"`
}

// WalletSnapshot is a wallet's balance plus its history, newest first.
type WalletSnapshot struct {
	ID           uuid.UUID         `json:"id"`
	Currency     string            `json:"currency"`
	Balance      Amount            `json:"balance"`
	Transactions []TransactionView `json:"transactions"`
}

// BuildSnapshot assembles the read model for w. It does no I/O and does not
// modify txs; entries with equal timestamps keep their input order.
func BuildSnapshot(w *Wallet, txs []*Transaction) WalletSnapshot {
	return WalletSnapshot{
		ID:           w.ID,
		Currency:     w.Currency,
		Balance:      w.Balance,
		Transactions: BuildHistory(txs),
	}
}

// BuildHistory converts entries to views sorted newest first.
func BuildHistory(txs []*Transaction) []TransactionView {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b *Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	views := make([]TransactionView, 0, len(sorted))
	for _, t := range sorted {
		views = append(views, TransactionView{
			ID:              t.ID,
			Type:            t.Type,
			Amount:          t.Amount,
			Timestamp:       FormatTimestamp(t.CreatedAt),
			BalanceAfter:    t.BalanceAfter,
			RelatedWalletID: t.RelatedWalletID,
			IdempotencyKey:  t.IdempotencyKey,
		})
	}
	return views
}

// FormatTimestamp renders t the way every response does.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
