package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// FieldError describes one rejected field. Every failing field is reported;
// the first one becomes the envelope message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator is implemented by every request body.
type Validator interface {
	Validate() []FieldError
}

const maxAmount = 1_000_000_000

// Messages for fields that arrive with the wrong JSON type.
var typeMessages = map[string]string{
	"currency":       "Currency must be a string",
	"pin":            "PIN must be a string",
	"oldPin":         "Old PIN must be a string",
	"newPin":         "New PIN must be a string",
	"fromWalletId":   "From wallet id must be a string",
	"toWalletId":     "To wallet id must be a string",
	"idempotencyKey": "Idempotency key must be a string",
}

func (r CreateWalletRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Currency != nil && *r.Currency != domain.DefaultCurrency {
		errs = append(errs, FieldError{"currency", "Currency must be USD"})
	}
	errs = appendPin(errs, "pin", r.Pin, "PIN")
	return errs
}

func (r FundRequest) Validate() []FieldError {
	var errs []FieldError
	if _, fe := parseAmount(r.Amount); fe != nil {
		errs = append(errs, *fe)
	}
	return errs
}

func (r TransferRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendWalletID(errs, "fromWalletId", r.FromWalletID, "From wallet id")
	errs = appendWalletID(errs, "toWalletId", r.ToWalletID, "To wallet id")
	if _, fe := parseAmount(r.Amount); fe != nil {
		errs = append(errs, *fe)
	}
	if r.Pin == nil || *r.Pin == "" {
		errs = append(errs, FieldError{"pin", "Pin is required"})
	}
	return errs
}

func (r UpdatePinRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendPin(errs, "oldPin", r.OldPin, "Old PIN")
	errs = appendPin(errs, "newPin", r.NewPin, "New PIN")
	return errs
}

func (r ResetPinRequest) Validate() []FieldError {
	return appendPin(nil, "newPin", r.NewPin, "New PIN")
}

func appendPin(errs []FieldError, field string, pin *string, label string) []FieldError {
	if pin == nil {
		return append(errs, FieldError{field, label + " must be a string"})
	}
	if !domain.ValidPinLength(*pin) {
		return append(errs, FieldError{field, label + " must be between 4 and 12 characters"})
	}
	return errs
}

func appendWalletID(errs []FieldError, field string, id *string, label string) []FieldError {
	if id == nil || *id == "" {
		return append(errs, FieldError{field, label + " is required"})
	}
	if _, err := uuid.Parse(*id); err != nil {
		return append(errs, FieldError{field, label + " must be a valid UUID"})
	}
	return errs
}

// parseAmount accepts a bare JSON number only.
func parseAmount(raw json.RawMessage) (domain.Amount, *FieldError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return domain.Amount{}, &FieldError{"amount", "Amount must be a number"}
	}
	amount, err := domain.ParseAmount(string(raw))
	if errors.Is(err, domain.ErrAmountOutOfRange) {
		if raw[0] == '-' {
			return domain.Amount{}, &FieldError{"amount", "Amount must be a positive number"}
		}
		return domain.Amount{}, &FieldError{"amount", "Amount must be less than 1B"}
	}
	if err != nil {
		return domain.Amount{}, &FieldError{"amount", "Amount must be a number"}
	}
	if !amount.IsPositive() {
		return domain.Amount{}, &FieldError{"amount", "Amount must be a positive number"}
	}
	if amount.GreaterThan(domain.AmountFromInt(maxAmount)) {
		return domain.Amount{}, &FieldError{"amount", "Amount must be less than 1B"}
	}
	return amount, nil
}

// WalletIDParam validates a wallet id taken from the URL.
func WalletIDParam(raw string) (uuid.UUID, []FieldError) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, []FieldError{{"id", "Wallet id must be a valid UUID"}}
	}
	return id, nil
}

// DecodeErrors turns a body decoding failure into field errors.
func DecodeErrors(err error) []FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := typeMessages[typeErr.Field]; ok {
			return []FieldError{{typeErr.Field, msg}}
		}
		return []FieldError{{typeErr.Field, typeErr.Field + " has the wrong type"}}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return []FieldError{{"body", "Request body too large"}}
	}
	return []FieldError{{"body", "Invalid request body"}}
}
