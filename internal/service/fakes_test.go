package service

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
)

// fakeTx satisfies pgx.Tx for transactor-based services.
type fakeTx struct{ pgx.Tx }

func (m *fakeTx) Rollback(_ context.Context) error { return nil }
func (m *fakeTx) Commit(_ context.Context) error   { return nil }

type fakeTransactor struct{}

func (f *fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

// stubFair scripts the fairness engine so outcomes are chosen by the test.
type stubFair struct {
	seed       string
	roll       float64
	indexRolls []float64 // RollIndex(_, i) returns indexRolls[i] when present
	perm       []int     // Shuffle prefix; remaining indices follow in order
}

func (f *stubFair) NewSeed() (string, error) { return f.seed, nil }

func (f *stubFair) VerificationHash(seed string) string { return "hash:" + seed }

func (f *stubFair) Roll(string) float64 { return f.roll }

func (f *stubFair) RollIndex(_ string, index int) float64 {
	if index < len(f.indexRolls) {
		return f.indexRolls[index]
	}
	return f.roll
}

func (f *stubFair) Shuffle(_ string, n int) []int {
	used := make(map[int]bool, len(f.perm))
	perm := make([]int, 0, n)
	for _, p := range f.perm {
		if p < n && !used[p] {
			perm = append(perm, p)
			used[p] = true
		}
	}
	for i := 0; i < n && len(perm) < n; i++ {
		if !used[i] {
			perm = append(perm, i)
		}
	}
	return perm
}

// fakeLedger keeps balances in memory and records every settlement.
type fakeLedger struct {
	mu        sync.Mutex
	balances  map[uuid.UUID]int64
	settles   []ports.SettleParams
	refunds   []int64
	debitErr  error
	settleErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[uuid.UUID]int64)}
}

func (l *fakeLedger) DebitStake(_ context.Context, accountID uuid.UUID, stake int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.debitErr != nil {
		return 0, l.debitErr
	}
	if l.balances[accountID] < stake {
		return 0, apperror.ErrInsufficientFunds()
	}
	l.balances[accountID] -= stake
	return l.balances[accountID], nil
}

func (l *fakeLedger) Settle(_ context.Context, params ports.SettleParams) (*ports.SettleResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.settleErr != nil {
		return nil, l.settleErr
	}
	if params.DebitStake {
		if l.balances[params.AccountID] < params.Stake {
			return nil, apperror.ErrInsufficientFunds()
		}
		l.balances[params.AccountID] -= params.Stake
	}
	l.balances[params.AccountID] += params.Payout
	l.settles = append(l.settles, params)

	return &ports.SettleResult{
		NewBalance: l.balances[params.AccountID],
		Round: &domain.GameRound{
			ID:               uuid.New(),
			AccountID:        params.AccountID,
			GameType:         params.GameType,
			Stake:            params.Stake,
			Result:           params.Result,
			WinAmount:        params.Payout,
			VerificationHash: params.VerificationHash,
			CreatedAt:        time.Now().UTC(),
		},
	}, nil
}

func (l *fakeLedger) Refund(_ context.Context, accountID uuid.UUID, amount int64, _ string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] += amount
	l.refunds = append(l.refunds, amount)
	return l.balances[accountID], nil
}

func (l *fakeLedger) Transfer(_ context.Context, from, to uuid.UUID, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return apperror.ErrInsufficientFunds()
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *fakeLedger) balance(accountID uuid.UUID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID]
}

// memSessionStore is an in-memory ports.SessionStore.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.GameSession
	guards   map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]*domain.GameSession),
		guards:   make(map[string]string),
	}
}

func guardKey(accountID, gameType string) string { return accountID + ":" + gameType }

func (s *memSessionStore) Create(_ context.Context, session *domain.GameSession, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gk := guardKey(session.AccountID.String(), string(session.GameType))
	if _, exists := s.guards[gk]; exists {
		return apperror.ErrSessionAlreadyActive()
	}
	s.guards[gk] = session.ID
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memSessionStore) Get(_ context.Context, sessionID string) (*domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperror.ErrInvalidSession()
	}
	copied := *session
	return &copied, nil
}

func (s *memSessionStore) Update(_ context.Context, session *domain.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return apperror.ErrInvalidSession()
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memSessionStore) FindActive(_ context.Context, accountID string, gameType domain.GameType) (*domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.guards[guardKey(accountID, string(gameType))]
	if !ok {
		return nil, nil
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *memSessionStore) Claim(_ context.Context, session *domain.GameSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return false, nil
	}
	delete(s.sessions, session.ID)
	delete(s.guards, guardKey(session.AccountID.String(), string(session.GameType)))
	return true, nil
}

// fakeAccountRepo is an in-memory ports.AccountRepository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
	for _, a := range accounts {
		copied := *a
		repo.accounts[a.ID] = &copied
	}
	return repo
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
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

func (r *fakeAccountRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAccountRepo) Debit(_ context.Context, id uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.Balance < amount {
		return 0, apperror.ErrInsufficientFunds()
	}
	account.Balance -= amount
	return account.Balance, nil
}

func (r *fakeAccountRepo) DebitTx(ctx context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return r.Debit(ctx, id, amount)
}

func (r *fakeAccountRepo) Credit(_ context.Context, id uuid.UUID, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return 0, apperror.ErrNotFound("account")
	}
	account.Balance += amount
	return account.Balance, nil
}

func (r *fakeAccountRepo) CreditTx(ctx context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (int64, error) {
	return r.Credit(ctx, id, amount)
}

func (r *fakeAccountRepo) ApplyStats(_ context.Context, _ pgx.Tx, id uuid.UUID, delta ports.StatsDelta) error {
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

func (r *fakeAccountRepo) UpdateProgression(_ context.Context, _ pgx.Tx, id uuid.UUID, level int, xp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.Level = level
		account.XP = xp
	}
	return nil
}

func (r *fakeAccountRepo) UpdateBonusClaim(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		now := time.Now().UTC()
		account.LastDailyBonus = &now
	}
	return nil
}

func (r *fakeAccountRepo) Leaderboard(_ context.Context, orderBy ports.LeaderboardField, limit int) ([]domain.Account, error) {
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
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// fakePeerBetRepo is an in-memory ports.PeerBetRepository.
type fakePeerBetRepo struct {
	mu   sync.Mutex
	bets map[uuid.UUID]*domain.PeerBet
}

func newFakePeerBetRepo() *fakePeerBetRepo {
	return &fakePeerBetRepo{bets: make(map[uuid.UUID]*domain.PeerBet)}
}

func (r *fakePeerBetRepo) Create(_ context.Context, _ pgx.Tx, bet *domain.PeerBet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *bet
	r.bets[bet.ID] = &copied
	return nil
}

func (r *fakePeerBetRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PeerBet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bet, ok := r.bets[id]
	if !ok {
		return nil, nil
	}
	copied := *bet
	return &copied, nil
}

func (r *fakePeerBetRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.PeerBet, error) {
	return r.GetByID(ctx, id)
}

func (r *fakePeerBetRepo) UpdateStatus(_ context.Context, _ pgx.Tx, bet *domain.PeerBet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *bet
	r.bets[bet.ID] = &copied
	return nil
}

func (r *fakePeerBetRepo) ListOpen(_ context.Context, accountID uuid.UUID) ([]domain.PeerBet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var open []domain.PeerBet
	for _, b := range r.bets {
		if b.Status == domain.PeerBetStatusPending && (b.ProposerID == accountID || b.CounterpartyID == accountID) {
			open = append(open, *b)
		}
	}
	return open, nil
}

// fakeRoundRepo is an in-memory ports.GameRoundRepository.
type fakeRoundRepo struct {
	mu     sync.Mutex
	rounds []domain.GameRound
}

func (r *fakeRoundRepo) Create(_ context.Context, _ pgx.Tx, round *domain.GameRound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, *round)
	return nil
}

func (r *fakeRoundRepo) ListByAccount(_ context.Context, params ports.HistoryListParams) ([]domain.GameRound, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var filtered []domain.GameRound
	for _, round := range r.rounds {
		if round.AccountID != params.AccountID {
			continue
		}
		if params.GameType != nil && round.GameType != *params.GameType {
			continue
		}
		filtered = append(filtered, round)
	}
	total := int64(len(filtered))
	start := (params.Page - 1) * params.PageSize
	if start >= len(filtered) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

// fakeIdemRepo is an in-memory ports.IdempotencyRepository.
type fakeIdemRepo struct {
	mu   sync.Mutex
	logs map[string]*domain.IdempotencyLog
}

func newFakeIdemRepo() *fakeIdemRepo {
	return &fakeIdemRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *fakeIdemRepo) Create(_ context.Context, _ pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *log
	r.logs[log.Key] = &copied
	return nil
}

func (r *fakeIdemRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	copied := *log
	return &copied, nil
}

// fakeIdemCache is an in-memory ports.IdempotencyCache.
type fakeIdemCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeIdemCache() *fakeIdemCache {
	return &fakeIdemCache{entries: make(map[string][]byte)}
}

func (c *fakeIdemCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *fakeIdemCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// nopBroadcaster drops round events.
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastTick(domain.RoundPhase, int)  {}
func (nopBroadcaster) BroadcastBet(domain.RoundBet)          {}
func (nopBroadcaster) BroadcastOutcome(*domain.RoundOutcome) {}
