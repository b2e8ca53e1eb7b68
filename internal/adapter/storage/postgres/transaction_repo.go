package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, wallet_id, type, amount::text, balance_after::text,
		related_wallet_id, idempotency_key, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// CreateBatch appends entries with a single multi-row INSERT inside tx.
func (r *TransactionRepo) CreateBatch(ctx context.Context, tx pgx.Tx, entries []*domain.Transaction) error {
	if len(entries) == 0 {
		return nil
	}

	const cols = 9
	var sb strings.Builder
	sb.WriteString(`INSERT INTO transactions (id, wallet_id, type, amount, balance_after,
		related_wallet_id, idempotency_key, created_at, updated_at) VALUES `)

	args := make([]any, 0, len(entries)*cols)
	for i, t := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 1; c <= cols; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c)
		}
		sb.WriteString(")")

		args = append(args,
			t.ID, t.WalletID, string(t.Type), t.Amount.String(), t.BalanceAfter.String(),
			t.RelatedWalletID, t.IdempotencyKey, t.CreatedAt, t.UpdatedAt,
		)
	}

	if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

// ListByWallet returns a wallet's entries, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE wallet_id = $1 ORDER BY created_at DESC`

	rows, err := on(r.pool, tx).Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                    domain.Transaction
		txType               string
		amount, balanceAfter string
	)
	err := row.Scan(
		&t.ID, &t.WalletID, &txType, &amount, &balanceAfter,
		&t.RelatedWalletID, &t.IdempotencyKey, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(txType)
	if t.Amount, err = domain.ParseAmount(amount); err != nil {
		return nil, err
	}
	if t.BalanceAfter, err = domain.ParseAmount(balanceAfter); err != nil {
		return nil, err
	}
	return &t, nil
}
