package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAmount      = 1_000_000_000
	defaultIdempotencyTTL = 24 * time.Hour
)

// TransferResult is the data of a successful transfer.
type TransferResult struct {
	From domain.WalletSnapshot `json:"from"`
	To   domain.WalletSnapshot `json:"to"`
}

// WalletResult is the data of a snapshot read.
type WalletResult struct {
	Wallet domain.WalletSnapshot `json:"wallet"`
}

// HistoryResult is the data of a history read.
type HistoryResult struct {
	Transactions []domain.TransactionView `json:"transactions"`
}

// PinResult acknowledges a PIN change.
type PinResult struct {
	WalletID uuid.UUID `json:"walletId"`
}

// WalletServiceImpl implements ports.WalletService. It is the only writer of
// wallet balances and ledger entries.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache // optional
	pinHasher  ports.PinHasher
	transactor ports.DBTransactor
	publisher  ports.EventPublisher // optional
	currency   string
	maxAmount  domain.Amount
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewWalletService creates a new WalletServiceImpl. idempCache and publisher
// may be nil.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	pinHasher ports.PinHasher,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *WalletServiceImpl {
	s := &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		pinHasher:  pinHasher,
		transactor: transactor,
		publisher:  publisher,
		currency:   cfg.Currency,
		maxAmount:  domain.AmountFromInt(cfg.MaxAmount),
		ttl:        cfg.IdempotencyTTL,
		log:        log,
		now:        time.Now,
	}
	if s.currency == "" {
		s.currency = domain.DefaultCurrency
	}
	if cfg.MaxAmount <= 0 {
		s.maxAmount = domain.AmountFromInt(defaultMaxAmount)
	}
	if s.ttl <= 0 {
		s.ttl = defaultIdempotencyTTL
	}
	return s
}

// CreateWallet opens a wallet with a zero balance.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*response.Envelope, error) {
	if !domain.ValidPinLength(req.Pin) {
		return nil, apperror.Validation("PIN must be between 4 and 12 characters")
	}
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	if currency != s.currency {
		return nil, apperror.Validation(fmt.Sprintf("Currency must be %s", s.currency))
	}

	pinHash, err := s.pinHasher.Hash(req.Pin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	now := s.timestamp()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		Currency:  currency,
		PinHash:   pinHash,
		Balance:   domain.ZeroAmount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Str("wallet_id", wallet.ID.String()).Str("currency", currency).Msg("wallet created")

	return response.Success(http.StatusCreated, "Wallet created", domain.BuildSnapshot(wallet, nil)), nil
}

// Fund credits a wallet under an exclusive row lock.
func (s *WalletServiceImpl) Fund(ctx context.Context, req ports.FundRequest) (*response.Envelope, error) {
	token := domain.BuildFundToken(req.WalletID, req.IdempotencyKey)

	if env, err := s.replay(ctx, nil, token); env != nil || err != nil {
		return env, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	// A retry with the same token may have committed while we waited for the lock.
	if env, err := s.replay(ctx, dbTx, token); env != nil || err != nil {
		return env, err
	}

	now := s.timestamp()
	balance := wallet.Credit(req.Amount, now)
	entry := domain.NewFundEntry(wallet.ID, req.Amount, balance, req.IdempotencyKey, now)

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, balance, now); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.CreateBatch(ctx, dbTx, []*domain.Transaction{entry}); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("append entry: %w", err))
	}

	snapshot, err := s.snapshot(ctx, dbTx, wallet)
	if err != nil {
		return nil, err
	}
	env := response.Success(http.StatusOK, "Wallet funded", snapshot)

	raw, err := s.commit(ctx, dbTx, token, env)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, token, raw, wallet.Currency, entry)

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("amount", req.Amount.String()).
		Str("balance", balance.String()).
		Str("token", token).
		Msg("wallet funded")

	return env, nil
}

// Transfer moves amount between two wallets. Both rows are locked in
// ascending id order before anything is validated.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*response.Envelope, error) {
	if req.FromWalletID == req.ToWalletID {
		return nil, apperror.ErrSameWallet()
	}

	token := domain.BuildTransferToken(req.FromWalletID, req.ToWalletID, req.IdempotencyKey)

	if env, err := s.replay(ctx, nil, token); env != nil || err != nil {
		return env, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.walletRepo.GetByIDsForUpdate(ctx, dbTx, []uuid.UUID{req.FromWalletID, req.ToWalletID})
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("lock wallets: %w", err))
	}
	var from, to *domain.Wallet
	for _, w := range locked {
		switch w.ID {
		case req.FromWalletID:
			from = w
		case req.ToWalletID:
			to = w
		}
	}
	if from == nil || to == nil {
		return nil, apperror.ErrNotFound("Sender or receiver wallet")
	}

	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	if env, err := s.replay(ctx, dbTx, token); env != nil || err != nil {
		return env, err
	}

	ok, err := s.pinHasher.Verify(req.Pin, from.PinHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidPin()
	}

	if !from.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	now := s.timestamp()
	from.Debit(req.Amount, now)
	to.Credit(req.Amount, now)
	out, in := domain.NewTransferEntries(from, to, req.Amount, req.IdempotencyKey, now)

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, from.ID, from.Balance, now); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("update sender balance: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, to.ID, to.Balance, now); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("update receiver balance: %w", err))
	}
	if err := s.txRepo.CreateBatch(ctx, dbTx, []*domain.Transaction{out, in}); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("append entries: %w", err))
	}

	fromSnap, err := s.snapshot(ctx, dbTx, from)
	if err != nil {
		return nil, err
	}
	toSnap, err := s.snapshot(ctx, dbTx, to)
	if err != nil {
		return nil, err
	}
	env := response.Success(http.StatusOK, "Transfer complete", TransferResult{From: fromSnap, To: toSnap})

	raw, err := s.commit(ctx, dbTx, token, env)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, token, raw, from.Currency, out, in)

	s.log.Info().
		Str("from_wallet_id", from.ID.String()).
		Str("to_wallet_id", to.ID.String()).
		Str("amount", req.Amount.String()).
		Str("token", token).
		Msg("transfer completed")

	return env, nil
}

// GetSnapshot returns the wallet with its full history.
func (s *WalletServiceImpl) GetSnapshot(ctx context.Context, walletID uuid.UUID) (*response.Envelope, error) {
	wallet, err := s.findWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx, nil, wallet)
	if err != nil {
		return nil, err
	}
	return response.Success(http.StatusOK, "Wallet fetched", WalletResult{Wallet: snapshot}), nil
}

// GetHistory returns the wallet's entries, newest first.
func (s *WalletServiceImpl) GetHistory(ctx context.Context, walletID uuid.UUID) (*response.Envelope, error) {
	if _, err := s.findWallet(ctx, walletID); err != nil {
		return nil, err
	}
	entries, err := s.txRepo.ListByWallet(ctx, nil, walletID)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("list transactions: %w", err))
	}
	return response.Success(http.StatusOK, "Transaction history fetched", HistoryResult{Transactions: domain.BuildHistory(entries)}), nil
}

// UpdatePin replaces the PIN after checking the current one.
func (s *WalletServiceImpl) UpdatePin(ctx context.Context, req ports.UpdatePinRequest) (*response.Envelope, error) {
	if !domain.ValidPinLength(req.NewPin) {
		return nil, apperror.Validation("New PIN must be between 4 and 12 characters")
	}

	wallet, err := s.findWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	ok, err := s.pinHasher.Verify(req.OldPin, wallet.PinHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidCurrentPin()
	}

	if err := s.storePin(ctx, wallet.ID, req.NewPin); err != nil {
		return nil, err
	}

	s.log.Info().Str("wallet_id", wallet.ID.String()).Msg("pin updated")

	return response.Success(http.StatusOK, "PIN updated", PinResult{WalletID: wallet.ID}), nil
}

// ResetPin replaces the PIN without checking the current one.
func (s *WalletServiceImpl) ResetPin(ctx context.Context, req ports.ResetPinRequest) (*response.Envelope, error) {
	if !domain.ValidPinLength(req.NewPin) {
		return nil, apperror.Validation("New PIN must be between 4 and 12 characters")
	}

	wallet, err := s.findWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	if err := s.storePin(ctx, wallet.ID, req.NewPin); err != nil {
		return nil, err
	}

	s.log.Warn().Str("wallet_id", wallet.ID.String()).Msg("pin reset without verification")

	return response.Success(http.StatusOK, "PIN reset", PinResult{WalletID: wallet.ID}), nil
}

func (s *WalletServiceImpl) findWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}

func (s *WalletServiceImpl) storePin(ctx context.Context, walletID uuid.UUID, pin string) error {
	pinHash, err := s.pinHasher.Hash(pin)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}
	if err := s.walletRepo.UpdatePin(ctx, walletID, pinHash); err != nil {
		return apperror.FromStore(fmt.Errorf("update pin: %w", err))
	}
	return nil
}

func (s *WalletServiceImpl) checkAmount(amount domain.Amount) error {
	if !amount.IsPositive() {
		return apperror.Validation("Amount must be a positive number")
	}
	if amount.GreaterThan(s.maxAmount) {
		return apperror.ErrAmountLimit()
	}
	return nil
}

// snapshot reads the wallet's history through dbTx so uncommitted entries
// of the current unit of work are included. A nil dbTx reads committed state.
func (s *WalletServiceImpl) snapshot(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) (domain.WalletSnapshot, error) {
	entries, err := s.txRepo.ListByWallet(ctx, dbTx, wallet.ID)
	if err != nil {
		return domain.WalletSnapshot{}, apperror.FromStore(fmt.Errorf("list transactions: %w", err))
	}
	return domain.BuildSnapshot(wallet, entries), nil
}

// replay returns the stored envelope for token, or nil when there is none.
// With a nil dbTx the Redis layer is consulted first.
func (s *WalletServiceImpl) replay(ctx context.Context, dbTx pgx.Tx, token string) (*response.Envelope, error) {
	if token == "" {
		return nil, nil
	}

	if dbTx == nil && s.idempCache != nil {
		cached, err := s.idempCache.Get(ctx, token)
		if err != nil {
			s.log.Warn().Err(err).Str("key", token).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			s.log.Debug().Str("key", token).Str("layer", "redis").Msg("idempotent replay")
			return decodeEnvelope(cached)
		}
	}

	record, err := s.idempRepo.Get(ctx, dbTx, token)
	if err != nil {
		return nil, apperror.FromStore(fmt.Errorf("db idempotency check: %w", err))
	}
	if record == nil {
		return nil, nil
	}

	s.log.Debug().Str("key", token).Str("layer", "db").Msg("idempotent replay")
	return decodeEnvelope(record.Response)
}

// commit stores the idempotency record, when there is a token, and commits.
// It returns the serialized envelope for the cache.
func (s *WalletServiceImpl) commit(ctx context.Context, dbTx pgx.Tx, token string, env *response.Envelope) ([]byte, error) {
	var raw []byte
	if token != "" {
		var err error
		raw, err = json.Marshal(env)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		inserted, err := s.idempRepo.CreateIfAbsent(ctx, dbTx, &domain.IdempotencyRecord{
			Key:       token,
			Response:  raw,
			CreatedAt: s.timestamp(),
		})
		if err != nil {
			return nil, apperror.FromStore(fmt.Errorf("save idempotency record: %w", err))
		}
		if !inserted {
			return nil, apperror.ErrConflict(fmt.Errorf("idempotency key %q stored concurrently", token))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.FromStore(fmt.Errorf("commit tx: %w", err))
	}
	return raw, nil
}

// afterCommit does the best-effort work that must not change the result.
func (s *WalletServiceImpl) afterCommit(ctx context.Context, token string, raw []byte, currency string, entries ...*domain.Transaction) {
	if token != "" && s.idempCache != nil {
		if err := s.idempCache.Set(ctx, token, raw, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", token).Msg("failed to cache idempotency in redis")
		}
	}

	if s.publisher == nil {
		return
	}
	events := make([]domain.LedgerEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, domain.NewLedgerEvent(e, currency))
	}
	if err := s.publisher.Publish(ctx, events); err != nil {
		s.log.Warn().Err(err).Int("events", len(events)).Msg("failed to publish ledger events")
	}
}

// timestamp is truncated to what Postgres stores.
func (s *WalletServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// decodeEnvelope restores a stored envelope. Data stays raw so the replay
// serializes to the same bytes as the first response.
func decodeEnvelope(raw []byte) (*response.Envelope, error) {
	var stored struct {
		Status     bool            `json:"status"`
		StatusCode int             `json:"statusCode"`
		Message    string          `json:"message"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decode stored response: %w", err))
	}
	return &response.Envelope{
		Status:     stored.Status,
		StatusCode: stored.StatusCode,
		Message:    stored.Message,
		Data:       stored.Data,
	}, nil
}
