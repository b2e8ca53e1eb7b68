package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// GetByIDsForUpdate locks every row in ascending id order, whatever the
	// order of ids. Missing wallets are simply absent from the result.
	GetByIDsForUpdate(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance domain.Amount, at time.Time) error
	UpdatePin(ctx context.Context, walletID uuid.UUID, pinHash string) error
}

// TransactionRepository defines persistence operations for ledger entries.
type TransactionRepository interface {
	CreateBatch(ctx context.Context, tx pgx.Tx, entries []*domain.Transaction) error
	// ListByWallet returns entries newest first. A nil tx reads outside any
	// unit of work.
	ListByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]*domain.Transaction, error)
}

// IdempotencyRepository is the durable token -> response store.
type IdempotencyRepository interface {
	// Get returns nil, nil on miss. A nil tx reads outside any unit of work.
	Get(ctx context.Context, tx pgx.Tx, key string) (*domain.IdempotencyRecord, error)
	// CreateIfAbsent reports whether the record was inserted; an existing key
	// is left untouched.
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyRecord) (bool, error)
}

// AuditRepository persists audit log rows.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
