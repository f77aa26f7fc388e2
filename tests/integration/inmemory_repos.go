package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

// inMemoryAccountRepo mirrors the conditional-update semantics of the real
// repo: Debit only succeeds when the balance covers the amount, atomically
// under the repo mutex.
type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return apperror.ErrUsernameExists()
		}
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryAccountRepo) Debit(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.Balance < amount {
		return 0, apperror.ErrInsufficientFunds()
	}
	account.Balance -= amount
	return account.Balance, nil
}

func (r *inMemoryAccountRepo) DebitTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return r.Debit(ctx, id, amount)
}

func (r *inMemoryAccountRepo) Credit(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return 0, apperror.ErrNotFound("account")
	}
	account.Balance += amount
	return account.Balance, nil
}

func (r *inMemoryAccountRepo) CreditTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return r.Credit(ctx, id, amount)
}

func (r *inMemoryAccountRepo) ApplyStats(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta ports.StatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return apperror.ErrNotFound("account")
	}
	account.TotalWins += delta.Wins
	account.TotalLosses += delta.Losses
	account.TotalWagered += delta.Wagered
	if delta.WinAmount > account.BiggestWin {
		account.BiggestWin = delta.WinAmount
	}
	return nil
}

func (r *inMemoryAccountRepo) UpdateProgression(ctx context.Context, tx pgx.Tx, id uuid.UUID, level int, xp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.Level = level
		account.XP = xp
	}
	return nil
}

func (r *inMemoryAccountRepo) UpdateBonusClaim(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		now := time.Now().UTC()
		account.LastDailyBonus = &now
	}
	return nil
}

func (r *inMemoryAccountRepo) Leaderboard(ctx context.Context, orderBy ports.LeaderboardField, limit int) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		switch orderBy {
		case ports.LeaderboardWagered:
			return all[i].TotalWagered > all[j].TotalWagered
		case ports.LeaderboardBiggestWin:
			return all[i].BiggestWin > all[j].BiggestWin
		case ports.LeaderboardLevel:
			return all[i].Level > all[j].Level
		default:
			return all[i].Balance > all[j].Balance
		}
	})
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// --- In-Memory Game Round Repo ---

type inMemoryRoundRepo struct {
	mu     sync.Mutex
	rounds []domain.GameRound
}

func newInMemoryRoundRepo() *inMemoryRoundRepo {
	return &inMemoryRoundRepo{}
}

func (r *inMemoryRoundRepo) Create(ctx context.Context, tx pgx.Tx, round *domain.GameRound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, *round)
	return nil
}

func (r *inMemoryRoundRepo) ListByAccount(ctx context.Context, params ports.HistoryListParams) ([]domain.GameRound, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.GameRound
	for i := len(r.rounds) - 1; i >= 0; i-- { // newest first
		round := r.rounds[i]
		if round.AccountID != params.AccountID {
			continue
		}
		if params.GameType != nil && round.GameType != *params.GameType {
			continue
		}
		matched = append(matched, round)
	}
	total := int64(len(matched))

	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.GameRound{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --- In-Memory Peer Bet Repo ---

type inMemoryPeerBetRepo struct {
	mu   sync.Mutex
	bets map[uuid.UUID]*domain.PeerBet
}

func newInMemoryPeerBetRepo() *inMemoryPeerBetRepo {
	return &inMemoryPeerBetRepo{bets: make(map[uuid.UUID]*domain.PeerBet)}
}

func (r *inMemoryPeerBetRepo) Create(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *bet
	r.bets[bet.ID] = &copied
	return nil
}

func (r *inMemoryPeerBetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PeerBet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bet, ok := r.bets[id]
	if !ok {
		return nil, apperror.ErrNotFound("peer bet")
	}
	copied := *bet
	return &copied, nil
}

func (r *inMemoryPeerBetRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PeerBet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryPeerBetRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, bet *domain.PeerBet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bets[bet.ID]; !ok {
		return apperror.ErrNotFound("peer bet")
	}
	copied := *bet
	r.bets[bet.ID] = &copied
	return nil
}

func (r *inMemoryPeerBetRepo) ListOpen(ctx context.Context, accountID uuid.UUID) ([]domain.PeerBet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var open []domain.PeerBet
	for _, bet := range r.bets {
		if bet.Status != domain.PeerBetStatusPending {
			continue
		}
		if bet.ProposerID == accountID || bet.CounterpartyID == accountID {
			open = append(open, *bet)
		}
	}
	return open, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.Mutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
