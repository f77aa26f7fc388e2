package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"casino-core/config"
	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReplayGuard verifies the signed-request envelope on balance-mutating
// routes. Pipeline: check timestamp freshness -> burn the nonce -> verify
// the HMAC over the canonical string with the account's signing secret.
// Runs after JWTAuth, so the account identity is already on the context.
func ReplayGuard(
	accounts ports.AccountRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	nonceStore ports.NonceStore,
	auditSvc ports.AuditService,
	cfg config.FraudConfig,
	log zerolog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := AccountID(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthenticated())
			c.Abort()
			return
		}

		signature := c.GetHeader(HeaderSignature)
		timestampStr := c.GetHeader(HeaderTimestamp)
		nonce := c.GetHeader(HeaderNonce)
		if signature == "" || timestampStr == "" || nonce == "" {
			rejectSigned(c, auditSvc, accountID, "missing signature headers", apperror.ErrInvalidSignature())
			return
		}

		timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			rejectSigned(c, auditSvc, accountID, "malformed timestamp", apperror.ErrTimestampExpired())
			return
		}
		if math.Abs(float64(time.Now().Unix()-timestamp)) > cfg.ReplayFreshness.Seconds() {
			rejectSigned(c, auditSvc, accountID, "timestamp outside freshness window", apperror.ErrTimestampExpired())
			return
		}

		isNew, err := nonceStore.CheckAndSet(c.Request.Context(), accountID.String(), nonce, cfg.NonceTTL)
		if err != nil {
			log.Warn().Err(err).Msg("nonce store error, allowing request")
		} else if !isNew {
			rejectSigned(c, auditSvc, accountID, "nonce already used", apperror.ErrReplayDetected())
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), accountID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		secret, err := encSvc.Decrypt(account.SigningSecretEnc)
		if err != nil {
			log.Error().Err(err).Msg("failed to decrypt signing secret")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.Validation("cannot read request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		canonical := sigSvc.BuildCanonicalString(
			c.Request.Method,
			c.Request.URL.Path,
			timestamp,
			nonce,
			string(bodyBytes),
		)
		if !sigSvc.Verify(secret, canonical, signature) {
			rejectSigned(c, auditSvc, accountID, "signature verification failed", apperror.ErrInvalidSignature())
			return
		}

		c.Next()
	}
}

func rejectSigned(c *gin.Context, auditSvc ports.AuditService, accountID uuid.UUID, reason string, appErr *apperror.AppError) {
	if auditSvc != nil {
		details, _ := json.Marshal(map[string]string{
			"reason": reason,
			"path":   c.Request.URL.Path,
		})
		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:        uuid.New(),
			AccountID: &accountID,
			Action:    domain.AuditActionRequestRejected,
			Details:   string(details),
			IPAddress: c.ClientIP(),
			CreatedAt: time.Now(),
		})
	}
	response.Error(c, appErr)
	c.Abort()
}

// TxLock serializes wager-mutating requests per account. A second request
// arriving while one is in flight is rejected, not queued.
func TxLock(store ports.TxLockStore, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := AccountID(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthenticated())
			c.Abort()
			return
		}

		acquired, err := store.Acquire(c.Request.Context(), accountID.String(), ttl)
		if err != nil {
			log.Warn().Err(err).Msg("tx lock store error, allowing request")
			c.Next()
			return
		}
		if !acquired {
			response.Error(c, apperror.ErrTransactionInProgress())
			c.Abort()
			return
		}

		defer func() {
			if err := store.Release(c.Request.Context(), accountID.String()); err != nil {
				log.Warn().Err(err).Str("account_id", accountID.String()).Msg("tx lock release failed, TTL will expire it")
			}
		}()
		c.Next()
	}
}

// FraudTrack records (account, ip) observations and flags accounts that
// cross the multi-IP / multi-account thresholds. Informational only: a
// flagged request still proceeds.
func FraudTrack(store ports.FraudStore, auditSvc ports.AuditService, cfg config.FraudConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := AccountID(c)
		if !ok {
			c.Next()
			return
		}

		ips, accounts, err := store.Track(c.Request.Context(), accountID.String(), c.ClientIP(), cfg.TrackingWindow)
		if err != nil {
			log.Warn().Err(err).Msg("fraud tracking failed")
			c.Next()
			return
		}

		if ips > cfg.MaxIPsPerAccount || accounts > cfg.MaxAccountsPerIP {
			log.Warn().
				Str("account_id", accountID.String()).
				Str("client_ip", c.ClientIP()).
				Int64("distinct_ips", ips).
				Int64("accounts_on_ip", accounts).
				Msg("fraud heuristic threshold crossed")

			if auditSvc != nil {
				details, _ := json.Marshal(map[string]int64{
					"distinct_ips":   ips,
					"accounts_on_ip": accounts,
				})
				auditSvc.Log(c.Request.Context(), &domain.AuditLog{
					ID:        uuid.New(),
					AccountID: &accountID,
					Action:    domain.AuditActionFraudFlag,
					Details:   string(details),
					IPAddress: c.ClientIP(),
					CreatedAt: time.Now(),
				})
			}
		}

		c.Next()
	}
}
