package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory ledger store with real exclusive row locks.
// Writes are staged on the memTx and applied on Commit, so a rolled back
// unit of work leaves nothing behind.
type memStore struct {
	mu        sync.Mutex
	wallets   map[uuid.UUID]domain.Wallet
	entries   []*domain.Transaction
	records   map[string]*domain.IdempotencyRecord
	rowLocks  map[uuid.UUID]chan struct{}
	lockTrace [][]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[uuid.UUID]domain.Wallet),
		records:  make(map[string]*domain.IdempotencyRecord),
		rowLocks: make(map[uuid.UUID]chan struct{}),
	}
}

type memTx struct {
	pgx.Tx
	store   *memStore
	held    []uuid.UUID
	wallets map[uuid.UUID]domain.Wallet
	entries []*domain.Transaction
	records map[string]*domain.IdempotencyRecord
	closed  bool
}

// --- DBTransactor ---

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{
		store:   s,
		wallets: make(map[uuid.UUID]domain.Wallet),
		records: make(map[string]*domain.IdempotencyRecord),
	}, nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	s := t.store
	s.mu.Lock()
	for id, w := range t.wallets {
		s.wallets[id] = w
	}
	s.entries = append(s.entries, t.entries...)
	for k, r := range t.records {
		if _, ok := s.records[k]; !ok {
			s.records[k] = r
		}
	}
	s.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.closed = true
	for _, id := range t.held {
		<-t.store.rowLock(id)
	}
	t.held = nil
}

func (s *memStore) rowLock(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.rowLocks[id] = l
	}
	return l
}

func (t *memTx) lock(ctx context.Context, id uuid.UUID) error {
	if slices.Contains(t.held, id) {
		return nil
	}
	select {
	case t.store.rowLock(id) <- struct{}{}:
		t.held = append(t.held, id)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func asMemTx(tx pgx.Tx) *memTx {
	mt, _ := tx.(*memTx)
	return mt
}

// --- WalletRepository ---

func (s *memStore) Create(_ context.Context, w *domain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = *w
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	wallets, err := s.GetByIDsForUpdate(ctx, tx, []uuid.UUID{id})
	if err != nil || len(wallets) == 0 {
		return nil, err
	}
	return wallets[0], nil
}

func (s *memStore) GetByIDsForUpdate(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]*domain.Wallet, error) {
	mt := asMemTx(tx)
	if mt == nil {
		return nil, errors.New("locking read outside a transaction")
	}

	order := domain.LockOrder(ids)
	var acquired []uuid.UUID
	var out []*domain.Wallet
	for _, id := range order {
		if !s.exists(id) {
			continue
		}
		if err := mt.lock(ctx, id); err != nil {
			return nil, err
		}
		acquired = append(acquired, id)
		w, _ := s.GetByID(ctx, id)
		out = append(out, w)
	}

	s.mu.Lock()
	s.lockTrace = append(s.lockTrace, acquired)
	s.mu.Unlock()
	return out, nil
}

func (s *memStore) exists(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.wallets[id]
	return ok
}

func (s *memStore) UpdateBalance(_ context.Context, tx pgx.Tx, walletID uuid.UUID, balance domain.Amount, at time.Time) error {
	mt := asMemTx(tx)
	if !slices.Contains(mt.held, walletID) {
		return errors.New("update of an unlocked wallet")
	}
	w, ok := mt.wallets[walletID]
	if !ok {
		cur, _ := s.GetByID(context.Background(), walletID)
		if cur == nil {
			return errors.New("wallet not found")
		}
		w = *cur
	}
	w.Balance = balance
	w.UpdatedAt = at
	mt.wallets[walletID] = w
	return nil
}

func (s *memStore) UpdatePin(_ context.Context, walletID uuid.UUID, pinHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return errors.New("wallet not found")
	}
	w.PinHash = pinHash
	s.wallets[walletID] = w
	return nil
}

// --- TransactionRepository ---

func (s *memStore) CreateBatch(_ context.Context, tx pgx.Tx, entries []*domain.Transaction) error {
	mt := asMemTx(tx)
	mt.entries = append(mt.entries, entries...)
	return nil
}

func (s *memStore) ListByWallet(_ context.Context, tx pgx.Tx, walletID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.Lock()
	all := slices.Clone(s.entries)
	s.mu.Unlock()
	if mt := asMemTx(tx); mt != nil {
		all = append(all, mt.entries...)
	}

	var out []*domain.Transaction
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].WalletID == walletID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// --- IdempotencyRepository ---

type memIdempotency struct{ *memStore }

func (s memIdempotency) Get(_ context.Context, tx pgx.Tx, key string) (*domain.IdempotencyRecord, error) {
	if mt := asMemTx(tx); mt != nil {
		if r, ok := mt.records[key]; ok {
			return r, nil
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[key], nil
}

func (s memIdempotency) CreateIfAbsent(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error) {
	existing, _ := s.Get(ctx, tx, rec.Key)
	if existing != nil {
		return false, nil
	}
	asMemTx(tx).records[rec.Key] = rec
	return true, nil
}

// --- assertions ---

func (s *memStore) balance(id uuid.UUID) domain.Amount {
	w, _ := s.GetByID(context.Background(), id)
	return w.Balance
}

func (s *memStore) entriesFor(id uuid.UUID) []*domain.Transaction {
	out, _ := s.ListByWallet(context.Background(), nil, id)
	return out
}

func (s *memStore) traces() [][]uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lockTrace)
}
