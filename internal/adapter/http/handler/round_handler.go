package handler

import (
	"casino-core/internal/adapter/http/dto"
	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
)

// RoundHandler handles the shared continuous-roulette round.
type RoundHandler struct {
	roundSvc ports.RoundService
}

// NewRoundHandler creates a new RoundHandler.
func NewRoundHandler(roundSvc ports.RoundService) *RoundHandler {
	return &RoundHandler{roundSvc: roundSvc}
}

// Snapshot handles GET /api/v1/round.
func (h *RoundHandler) Snapshot(c *gin.Context) {
	round := h.roundSvc.Snapshot()
	if round == nil {
		response.Error(c, apperror.ErrBettingClosed())
		return
	}
	response.OK(c, round)
}

// History handles GET /api/v1/round/history.
func (h *RoundHandler) History(c *gin.Context) {
	response.OK(c, gin.H{"symbols": h.roundSvc.History()})
}

// PlaceBet handles POST /api/v1/round/bets.
func (h *RoundHandler) PlaceBet(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.RoundBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	bet, err := h.roundSvc.PlaceBet(c.Request.Context(), accountID, req.Stake, domain.RoundSymbol(req.Symbol))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bet)
}
