package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// CreateIfAbsent inserts the record within tx. The primary key on key turns
// a concurrent duplicate into a no-op, reported as false.
func (r *IdempotencyRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error) {
	query := `INSERT INTO idempotency_keys (key, response, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (key) DO NOTHING`

	tag, err := tx.Exec(ctx, query, rec.Key, rec.Response, rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get fetches a record by key. Pass the unit of work's tx to read under its
// snapshot, or nil to read from the pool.
func (r *IdempotencyRepo) Get(ctx context.Context, tx pgx.Tx, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, response, created_at FROM idempotency_keys WHERE key = $1`

	rec := &domain.IdempotencyRecord{}
	err := on(r.pool, tx).QueryRow(ctx, query, key).Scan(&rec.Key, &rec.Response, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return rec, nil
}
