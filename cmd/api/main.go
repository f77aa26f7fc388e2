package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casino-core/config"
	httpHandler "casino-core/internal/adapter/http/handler"
	pgStorage "casino-core/internal/adapter/storage/postgres"
	redisStorage "casino-core/internal/adapter/storage/redis"
	"casino-core/internal/adapter/ws"
	"casino-core/internal/core/ports"
	"casino-core/internal/service"
	"casino-core/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting casino core")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	roundRepo := pgStorage.NewGameRoundRepo(pool)
	peerBetRepo := pgStorage.NewPeerBetRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	sessionStore := redisStorage.NewSessionStore(rdb)
	nonceStore := redisStorage.NewNonceStore(rdb)
	txLockStore := redisStorage.NewTxLockStore(rdb)
	fraudStore := redisStorage.NewFraudStore(rdb)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	fairSvc := service.NewProvablyFair()

	auditSvc := service.NewAuditService(auditRepo, log)
	ledger := service.NewLedgerService(accountRepo, roundRepo, transactor, auditSvc, log)

	rules := service.GameRules{
		HouseEdge:     cfg.Games.HouseEdge,
		MaxMultiplier: cfg.Games.MaxMultiplier,
		MaxWin:        cfg.Games.MaxWin,
		MinStake:      cfg.Games.MinStake,
		MaxStake:      cfg.Games.MaxStake,
		SessionTTL:    cfg.Games.SessionTTL,
	}

	// Initialize business services
	authSvc := service.NewAuthService(accountRepo, hashSvc, encSvc, tokenSvc, auditSvc, cfg.Games.StartingCredits)
	slotsSvc := service.NewSlotsService(ledger, fairSvc, rules, log)
	rouletteSvc := service.NewRouletteService(ledger, fairSvc, rules, log)
	diceSvc := service.NewDiceService(ledger, fairSvc, rules, log)
	blackjackSvc := service.NewBlackjackService(ledger, fairSvc, sessionStore, rules, log)
	minesSvc := service.NewMinesService(ledger, fairSvc, sessionStore, rules, log)
	crapsSvc := service.NewCrapsService(ledger, fairSvc, sessionStore, accountRepo, rules, log)
	peerBetSvc := service.NewPeerBetService(transactor, accountRepo, peerBetRepo, roundRepo, fairSvc, rules, auditSvc, log)
	bonusSvc := service.NewBonusService(transactor, accountRepo, auditSvc, log)
	purchaseSvc := service.NewPurchaseService(transactor, accountRepo, idempotencyRepo, idempotencyCache, auditSvc, log)
	leaderboardSvc := service.NewLeaderboardService(accountRepo)
	historySvc := service.NewHistoryService(roundRepo)

	// Shared continuous round: websocket hub + scheduler loop
	hub := ws.NewHub(log)
	scheduler := service.NewRoundScheduler(ledger, fairSvc, hub, cfg.Round, rules, log)

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go scheduler.Run(schedulerCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Rate limiting can be switched off for local development.
	var rlStore *redisStorage.RateLimitStore
	if cfg.RateLimit.Enabled {
		rlStore = rateLimitStore
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SlotsSvc:       slotsSvc,
		RouletteSvc:    rouletteSvc,
		DiceSvc:        diceSvc,
		BlackjackSvc:   blackjackSvc,
		MinesSvc:       minesSvc,
		CrapsSvc:       crapsSvc,
		PeerBetSvc:     peerBetSvc,
		RoundSvc:       scheduler,
		BonusSvc:       bonusSvc,
		HistorySvc:     historySvc,
		LeaderboardSvc: leaderboardSvc,
		PurchaseSvc:    purchaseSvc,
		AccountRepo:    accountRepo,
		EncSvc:         encSvc,
		SigSvc:         sigSvc,
		TokenSvc:       tokenSvc,
		NonceStore:     nonceStore,
		TxLockStore:    txLockStore,
		FraudStore:     fraudStore,
		RateLimitStore: rlStore,
		AuditSvc:       auditSvc,
		RoundStream:    hub,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		FraudCfg:       cfg.Fraud,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown: stop taking requests, then stop the round loop so
	// pooled bets are refunded, then drop websocket subscribers.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stopScheduler()
	hub.Shutdown()

	log.Info().Msg("Server exited")
}
