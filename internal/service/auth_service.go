package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accounts        ports.AccountRepository
	hashSvc         ports.HashService
	encSvc          ports.EncryptionService
	tokenSvc        ports.TokenService
	audit           ports.AuditService
	startingCredits int64
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	accounts ports.AccountRepository,
	hashSvc ports.HashService,
	encSvc ports.EncryptionService,
	tokenSvc ports.TokenService,
	audit ports.AuditService,
	startingCredits int64,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		accounts:        accounts,
		hashSvc:         hashSvc,
		encSvc:          encSvc,
		tokenSvc:        tokenSvc,
		audit:           audit,
		startingCredits: startingCredits,
	}
}

// Register creates a new player account with starting credits and a signed
// API secret. The plaintext signing secret is shown exactly once.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*ports.RegisterResult, error) {
	existing, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	signingSecret, err := generateRandomHex(32) // 64 hex chars
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate signing secret: %w", err))
	}

	signingSecretEnc, err := s.encSvc.Encrypt(signingSecret)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encrypt signing secret: %w", err))
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:               uuid.New(),
		Username:         username,
		PasswordHash:     passwordHash,
		SigningSecretEnc: signingSecretEnc,
		Balance:          s.startingCredits,
		Level:            1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	token, expiry, err := s.tokenSvc.Generate(account.ID, account.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &account.ID,
		Action:       domain.AuditActionRegister,
		ResourceType: "account",
		ResourceID:   account.ID.String(),
		CreatedAt:    now,
	})

	return &ports.RegisterResult{
		AccountID:     account.ID,
		Username:      account.Username,
		Balance:       account.Balance,
		SigningSecret: signingSecret,
		Token:         token,
		TokenExpiry:   expiry,
	}, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(account.ID, account.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &account.ID,
		Action:       domain.AuditActionLogin,
		ResourceType: "account",
		ResourceID:   account.ID.String(),
		CreatedAt:    time.Now().UTC(),
	})

	return &ports.LoginResult{
		AccountID:   account.ID,
		Username:    account.Username,
		Balance:     account.Balance,
		Token:       token,
		TokenExpiry: expiry,
	}, nil
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
