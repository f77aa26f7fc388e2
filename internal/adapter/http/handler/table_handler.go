package handler

import (
	"casino-core/internal/adapter/http/dto"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
)

// TableHandler handles the session-backed table games: blackjack, mines and
// craps.
type TableHandler struct {
	blackjackSvc ports.BlackjackService
	minesSvc     ports.MinesService
	crapsSvc     ports.CrapsService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(blackjackSvc ports.BlackjackService, minesSvc ports.MinesService, crapsSvc ports.CrapsService) *TableHandler {
	return &TableHandler{blackjackSvc: blackjackSvc, minesSvc: minesSvc, crapsSvc: crapsSvc}
}

// StartBlackjack handles POST /api/v1/games/blackjack.
func (h *TableHandler) StartBlackjack(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.BlackjackStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.blackjackSvc.Start(c.Request.Context(), accountID, req.Stake)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// HitBlackjack handles POST /api/v1/games/blackjack/:session_id/hit.
func (h *TableHandler) HitBlackjack(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	view, err := h.blackjackSvc.Hit(c.Request.Context(), accountID, c.Param("session_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// StandBlackjack handles POST /api/v1/games/blackjack/:session_id/stand.
func (h *TableHandler) StandBlackjack(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	view, err := h.blackjackSvc.Stand(c.Request.Context(), accountID, c.Param("session_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// StartMines handles POST /api/v1/games/mines.
func (h *TableHandler) StartMines(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.MinesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.minesSvc.Start(c.Request.Context(), accountID, req.Stake, req.Mines)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// RevealMines handles POST /api/v1/games/mines/:session_id/reveal.
func (h *TableHandler) RevealMines(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.minesSvc.Reveal(c.Request.Context(), accountID, c.Param("session_id"), req.Cell)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// CashoutMines handles POST /api/v1/games/mines/:session_id/cashout.
func (h *TableHandler) CashoutMines(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	view, err := h.minesSvc.Cashout(c.Request.Context(), accountID, c.Param("session_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// PlaceCrapsBet handles POST /api/v1/games/craps/bets.
func (h *TableHandler) PlaceCrapsBet(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.CrapsBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.crapsSvc.PlaceBet(c.Request.Context(), accountID, ports.CrapsBetRequest{
		Kind:   req.Kind,
		Target: req.Target,
		Stake:  req.Stake,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// RollCraps handles POST /api/v1/games/craps/roll.
func (h *TableHandler) RollCraps(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	view, err := h.crapsSvc.Roll(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
