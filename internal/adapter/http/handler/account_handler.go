package handler

import (
	"strconv"
	"time"

	"casino-core/internal/adapter/http/dto"
	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles profile, bonus, history, leaderboard and purchase
// endpoints.
type AccountHandler struct {
	accounts       ports.AccountRepository
	bonusSvc       ports.BonusService
	historySvc     ports.HistoryService
	leaderboardSvc ports.LeaderboardService
	purchaseSvc    ports.PurchaseService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accounts ports.AccountRepository,
	bonusSvc ports.BonusService,
	historySvc ports.HistoryService,
	leaderboardSvc ports.LeaderboardService,
	purchaseSvc ports.PurchaseService,
) *AccountHandler {
	return &AccountHandler{
		accounts:       accounts,
		bonusSvc:       bonusSvc,
		historySvc:     historySvc,
		leaderboardSvc: leaderboardSvc,
		purchaseSvc:    purchaseSvc,
	}
}

// Profile handles GET /api/v1/account.
func (h *AccountHandler) Profile(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"account":           account,
		"xp_for_next_level": domain.XPForLevel(account.Level),
		"daily_bonus_ready": account.DailyBonusReady(time.Now()),
	})
}

// ClaimBonus handles POST /api/v1/account/bonus.
func (h *AccountHandler) ClaimBonus(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	result, err := h.bonusSvc.Claim(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// History handles GET /api/v1/account/history.
func (h *AccountHandler) History(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	params := ports.HistoryListParams{
		AccountID: accountID,
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	if gt := c.Query("game_type"); gt != "" {
		gameType := domain.GameType(gt)
		params.GameType = &gameType
	}

	rounds, total, err := h.historySvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	response.OK(c, dto.HistoryListResponse{
		Items:      rounds,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// Leaderboard handles GET /api/v1/leaderboard.
func (h *AccountHandler) Leaderboard(c *gin.Context) {
	entries, err := h.leaderboardSvc.Top(
		c.Request.Context(),
		ports.LeaderboardField(c.Query("field")),
		intQuery(c, "limit", 10),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// ConfirmPurchase handles POST /api/v1/purchases.
func (h *AccountHandler) ConfirmPurchase(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.purchaseSvc.ConfirmPurchase(c.Request.Context(), accountID, req.PaymentRef, req.Coins)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Duplicate {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
