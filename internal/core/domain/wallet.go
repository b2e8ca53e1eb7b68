package domain

import (
	"bytes"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultCurrency is the only currency the ledger accepts.
const DefaultCurrency = "USD"

// PIN length bounds, counted in characters.
const (
	PinMinLength = 4
	PinMaxLength = 12
)

// ValidPinLength reports whether pin has between PinMinLength and
// PinMaxLength characters.
func ValidPinLength(pin string) bool {
	n := utf8.RuneCountInString(pin)
	return n >= PinMinLength && n <= PinMaxLength
}

// Wallet is a single-currency custodial balance guarded by a PIN.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	Currency  string    `json:"currency"`
	PinHash   string    `json:"-"` // argon2id encoded, never exposed
	Balance   Amount    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanDebit reports whether amount can leave the wallet without the
// balance going negative.
func (w *Wallet) CanDebit(amount Amount) bool {
	return !amount.GreaterThan(w.Balance)
}

// Credit adds amount and returns the new balance.
func (w *Wallet) Credit(amount Amount, at time.Time) Amount {
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = at
	return w.Balance
}

// Debit subtracts amount and returns the new balance. Callers check
// CanDebit first.
func (w *Wallet) Debit(amount Amount, at time.Time) Amount {
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = at
	return w.Balance
}

// LockOrder returns ids deduplicated and sorted ascending by their byte
// value, which is also how Postgres orders uuid columns. Every multi-wallet
// lock must be acquired in this order.
func LockOrder(ids []uuid.UUID) []uuid.UUID {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(sorted)
}
