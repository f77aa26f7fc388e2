package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount() *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		ID:               uuid.New(),
		Username:         "player1",
		PasswordHash:     "$argon2id$hash",
		SigningSecretEnc: "enc_secret",
		Balance:          1000,
		Level:            1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func accountColumnNames() []string {
	return []string{
		"id", "username", "password_hash", "signing_secret_enc", "balance",
		"total_wins", "total_losses", "total_wagered", "biggest_win",
		"level", "xp", "last_daily_bonus", "created_at", "updated_at",
	}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumnNames()).AddRow(
		a.ID, a.Username, a.PasswordHash, a.SigningSecretEnc, a.Balance,
		a.TotalWins, a.TotalLosses, a.TotalWagered, a.BiggestWin,
		a.Level, a.XP, a.LastDailyBonus, a.CreatedAt, a.UpdatedAt,
	)
}

func TestAccountRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.ID, a.Username, a.PasswordHash, a.SigningSecretEnc, a.Balance,
			a.TotalWins, a.TotalLosses, a.TotalWagered, a.BiggestWin,
			a.Level, a.XP, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE username").
		WithArgs(a.Username).
		WillReturnRows(accountRow(a))

	result, err := repo.GetByUsername(context.Background(), a.Username)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.Equal(t, int64(1000), result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(accountColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Debit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE accounts SET balance = balance - .+ WHERE id = .+ AND balance >=`).
		WithArgs(id, int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(900)))

	balance, err := repo.Debit(context.Background(), id, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Debit_InsufficientFunds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	// Conditional update matches no row when balance does not cover the stake.
	mock.ExpectQuery(`UPDATE accounts SET balance = balance -`).
		WithArgs(id, int64(5000)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))

	_, err = repo.Debit(context.Background(), id, 5000)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FUND_001", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_CreditTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE accounts SET balance = balance \+`).
		WithArgs(id, int64(250)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(1250)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	balance, err := repo.CreditTx(context.Background(), tx, id, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_ApplyStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET\s+total_wins = total_wins`).
		WithArgs(id, int64(1), int64(0), int64(100), int64(250)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.ApplyStats(context.Background(), tx, id, ports.StatsDelta{
		Wins: 1, Wagered: 100, WinAmount: 250,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Leaderboard(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()
	b := newTestAccount()
	b.Username = "player2"
	b.Balance = 500

	rows := pgxmock.NewRows(accountColumnNames()).
		AddRow(a.ID, a.Username, a.PasswordHash, a.SigningSecretEnc, a.Balance,
			a.TotalWins, a.TotalLosses, a.TotalWagered, a.BiggestWin,
			a.Level, a.XP, a.LastDailyBonus, a.CreatedAt, a.UpdatedAt).
		AddRow(b.ID, b.Username, b.PasswordHash, b.SigningSecretEnc, b.Balance,
			b.TotalWins, b.TotalLosses, b.TotalWagered, b.BiggestWin,
			b.Level, b.XP, b.LastDailyBonus, b.CreatedAt, b.UpdatedAt)

	mock.ExpectQuery(`SELECT .+ FROM accounts ORDER BY balance DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	result, err := repo.Leaderboard(context.Background(), ports.LeaderboardBalance, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "player1", result[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Leaderboard_UnknownField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	_, err = repo.Leaderboard(context.Background(), ports.LeaderboardField("password_hash"), 10)
	assert.Error(t, err)
}
