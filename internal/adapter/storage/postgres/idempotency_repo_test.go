package postgres

import (
	"context"
	"testing"
	"time"

	"casino-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	log := &domain.IdempotencyLog{
		Key:          "acct:PAY-001",
		AccountID:    uuid.New(),
		ResponseJSON: []byte(`{"coins":500}`),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.AccountID, log.ResponseJSON, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	accountID := uuid.New()
	created := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("acct:PAY-001").
		WillReturnRows(pgxmock.NewRows([]string{"key", "account_id", "response_json", "created_at"}).
			AddRow("acct:PAY-001", accountID, []byte(`{"coins":500}`), created))

	log, err := repo.Get(context.Background(), "acct:PAY-001")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, accountID, log.AccountID)
	assert.JSONEq(t, `{"coins":500}`, string(log.ResponseJSON))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("acct:UNKNOWN").
		WillReturnRows(pgxmock.NewRows([]string{"key", "account_id", "response_json", "created_at"}))

	log, err := repo.Get(context.Background(), "acct:UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, log)
}
