package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/response"

	"github.com/google/uuid"
)

// PinHasher handles PIN hashing (Argon2id).
type PinHasher interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPublisher emits ledger events after a commit.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.LedgerEvent) error
}

// AuditService records audited actions without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// WalletService is the transaction coordinator. Every method returns the
// envelope to send; business failures come back as *apperror.AppError.
type WalletService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*response.Envelope, error)
	Fund(ctx context.Context, req FundRequest) (*response.Envelope, error)
	Transfer(ctx context.Context, req TransferRequest) (*response.Envelope, error)
	GetSnapshot(ctx context.Context, walletID uuid.UUID) (*response.Envelope, error)
	GetHistory(ctx context.Context, walletID uuid.UUID) (*response.Envelope, error)
	UpdatePin(ctx context.Context, req UpdatePinRequest) (*response.Envelope, error)
	ResetPin(ctx context.Context, req ResetPinRequest) (*response.Envelope, error)
}

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	Pin      string
	Currency string // empty means the configured default
}

// FundRequest holds validated input for crediting a wallet.
type FundRequest struct {
	WalletID       uuid.UUID
	Amount         domain.Amount
	IdempotencyKey string
}

// TransferRequest holds validated input for a wallet-to-wallet move.
type TransferRequest struct {
	FromWalletID   uuid.UUID
	ToWalletID     uuid.UUID
	Amount         domain.Amount
	Pin            string
	IdempotencyKey string
}

// UpdatePinRequest holds validated input for a PIN change.
type UpdatePinRequest struct {
	WalletID uuid.UUID
	OldPin   string
	NewPin   string
}

// ResetPinRequest holds validated input for an administrative PIN reset.
type ResetPinRequest struct {
	WalletID uuid.UUID
	NewPin   string
}
