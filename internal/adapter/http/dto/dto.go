package dto

import (
	"encoding/json"

	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Currency *string `json:"currency,omitempty"`
	Pin      *string `json:"pin"`
}

// FundRequest is the request body for funding a wallet.
type FundRequest struct {
	Amount         json.RawMessage `json:"amount"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromWalletID   *string         `json:"fromWalletId"`
	ToWalletID     *string         `json:"toWalletId"`
	Amount         json.RawMessage `json:"amount"`
	Pin            *string         `json:"pin"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
}

// UpdatePinRequest is the request body for a PIN change.
type UpdatePinRequest struct {
	OldPin *string `json:"oldPin"`
	NewPin *string `json:"newPin"`
}

// ResetPinRequest is the request body for a PIN reset.
type ResetPinRequest struct {
	NewPin *string `json:"newPin"`
}

// The conversions below assume Validate returned no errors.

func (r CreateWalletRequest) Command() ports.CreateWalletRequest {
	return ports.CreateWalletRequest{Pin: deref(r.Pin), Currency: deref(r.Currency)}
}

func (r FundRequest) Command(walletID uuid.UUID) ports.FundRequest {
	amount, _ := parseAmount(r.Amount)
	return ports.FundRequest{
		WalletID:       walletID,
		Amount:         amount,
		IdempotencyKey: deref(r.IdempotencyKey),
	}
}

func (r TransferRequest) Command() ports.TransferRequest {
	amount, _ := parseAmount(r.Amount)
	return ports.TransferRequest{
		FromWalletID:   uuid.MustParse(deref(r.FromWalletID)),
		ToWalletID:     uuid.MustParse(deref(r.ToWalletID)),
		Amount:         amount,
		Pin:            deref(r.Pin),
		IdempotencyKey: deref(r.IdempotencyKey),
	}
}

func (r UpdatePinRequest) Command(walletID uuid.UUID) ports.UpdatePinRequest {
	return ports.UpdatePinRequest{WalletID: walletID, OldPin: deref(r.OldPin), NewPin: deref(r.NewPin)}
}

func (r ResetPinRequest) Command(walletID uuid.UUID) ports.ResetPinRequest {
	return ports.ResetPinRequest{WalletID: walletID, NewPin: deref(r.NewPin)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
