package handler

import (
	"net/http"

	"casino-core/config"
	"casino-core/internal/adapter/http/middleware"
	redisStore "casino-core/internal/adapter/storage/redis"
	"casino-core/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoundStream upgrades a request into a live round-event subscription.
type RoundStream interface {
	HandleConnection(w http.ResponseWriter, r *http.Request)
}

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	SlotsSvc       ports.SlotsService
	RouletteSvc    ports.RouletteService
	DiceSvc        ports.DiceService
	BlackjackSvc   ports.BlackjackService
	MinesSvc       ports.MinesService
	CrapsSvc       ports.CrapsService
	PeerBetSvc     ports.PeerBetService
	RoundSvc       ports.RoundService
	BonusSvc       ports.BonusService
	HistorySvc     ports.HistoryService
	LeaderboardSvc ports.LeaderboardService
	PurchaseSvc    ports.PurchaseService
	AccountRepo    ports.AccountRepository
	EncSvc         ports.EncryptionService
	SigSvc         ports.SignatureService
	TokenSvc       ports.TokenService
	NonceStore     ports.NonceStore
	TxLockStore    ports.TxLockStore
	FraudStore     ports.FraudStore
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	AuditSvc       ports.AuditService         // nil = audit logging disabled
	RoundStream    RoundStream                // nil = websocket feed disabled
	HealthCheckers []ports.HealthChecker
	FraudCfg       config.FraudConfig
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// Wager-mutating routes additionally pass the signed-request guard, the
	// per-account transaction lock, and fraud observation tracking.
	replayGuard := middleware.ReplayGuard(deps.AccountRepo, deps.EncSvc, deps.SigSvc, deps.NonceStore, deps.AuditSvc, deps.FraudCfg, deps.Logger)
	txLock := middleware.TxLock(deps.TxLockStore, deps.FraudCfg.TxLockTTL, deps.Logger)
	fraudTrack := middleware.FraudTrack(deps.FraudStore, deps.AuditSvc, deps.FraudCfg, deps.Logger)
	wager := []gin.HandlerFunc{jwtAuth, replayGuard, txLock, fraudTrack}

	// --- Game engines ---
	gamesHandler := NewGamesHandler(deps.SlotsSvc, deps.RouletteSvc, deps.DiceSvc)
	tableHandler := NewTableHandler(deps.BlackjackSvc, deps.MinesSvc, deps.CrapsSvc)
	games := v1.Group("/games", wager...)
	{
		games.POST("/slots", rl("games"), gamesHandler.PlaySlots)
		games.POST("/roulette", rl("games"), gamesHandler.PlayRoulette)
		games.POST("/dice", rl("games"), gamesHandler.PlayDice)

		games.POST("/blackjack", rl("games"), tableHandler.StartBlackjack)
		games.POST("/blackjack/:session_id/hit", rl("games"), tableHandler.HitBlackjack)
		games.POST("/blackjack/:session_id/stand", rl("games"), tableHandler.StandBlackjack)

		games.POST("/mines", rl("games"), tableHandler.StartMines)
		games.POST("/mines/:session_id/reveal", rl("games"), tableHandler.RevealMines)
		games.POST("/mines/:session_id/cashout", rl("games"), tableHandler.CashoutMines)

		games.POST("/craps/bets", rl("games"), tableHandler.PlaceCrapsBet)
		games.POST("/craps/roll", rl("games"), tableHandler.RollCraps)
	}

	// --- Peer bets ---
	peerBetHandler := NewPeerBetHandler(deps.PeerBetSvc)
	peerBets := v1.Group("/peerbets")
	{
		peerBets.GET("", jwtAuth, rl("peerbets"), peerBetHandler.ListOpen)
		peerBets.POST("", append(wager, rl("peerbets"), peerBetHandler.Propose)...)
		peerBets.POST("/:bet_id/accept", append(wager, rl("peerbets"), peerBetHandler.Accept)...)
		peerBets.POST("/:bet_id/cancel", append(wager, rl("peerbets"), peerBetHandler.Cancel)...)
	}

	// --- Shared continuous round ---
	roundHandler := NewRoundHandler(deps.RoundSvc)
	round := v1.Group("/round")
	{
		round.GET("", rl("round"), roundHandler.Snapshot)
		round.GET("/history", rl("round"), roundHandler.History)
		round.POST("/bets", append(wager, rl("round"), roundHandler.PlaceBet)...)
		if deps.RoundStream != nil {
			round.GET("/ws", func(c *gin.Context) {
				deps.RoundStream.HandleConnection(c.Writer, c.Request)
			})
		}
	}

	// --- Account, bonus, history, leaderboard, purchases ---
	accountHandler := NewAccountHandler(deps.AccountRepo, deps.BonusSvc, deps.HistorySvc, deps.LeaderboardSvc, deps.PurchaseSvc)
	account := v1.Group("/account", jwtAuth)
	{
		account.GET("", rl("account"), accountHandler.Profile)
		account.GET("/history", rl("account"), accountHandler.History)
		account.POST("/bonus", txLock, rl("account"), accountHandler.ClaimBonus)
	}

	v1.GET("/leaderboard", jwtAuth, rl("account"), accountHandler.Leaderboard)
	v1.POST("/purchases", append(wager, rl("purchases"), accountHandler.ConfirmPurchase)...)

	return r
}
