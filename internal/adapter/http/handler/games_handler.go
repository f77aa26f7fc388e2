package handler

import (
	"casino-core/internal/adapter/http/dto"
	"casino-core/internal/adapter/http/middleware"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GamesHandler handles the single-wager game endpoints.
type GamesHandler struct {
	slotsSvc    ports.SlotsService
	rouletteSvc ports.RouletteService
	diceSvc     ports.DiceService
}

// NewGamesHandler creates a new GamesHandler.
func NewGamesHandler(slotsSvc ports.SlotsService, rouletteSvc ports.RouletteService, diceSvc ports.DiceService) *GamesHandler {
	return &GamesHandler{slotsSvc: slotsSvc, rouletteSvc: rouletteSvc, diceSvc: diceSvc}
}

// PlaySlots handles POST /api/v1/games/slots.
func (h *GamesHandler) PlaySlots(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.SlotsPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.slotsSvc.Play(c.Request.Context(), accountID, req.Stake)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// PlayRoulette handles POST /api/v1/games/roulette.
func (h *GamesHandler) PlayRoulette(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.RoulettePlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.rouletteSvc.Play(c.Request.Context(), accountID, req.Stake, ports.RouletteBet{
		Kind:   req.Kind,
		Number: req.Number,
		Choice: req.Choice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// PlayDice handles POST /api/v1/games/dice.
func (h *GamesHandler) PlayDice(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.DicePlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.diceSvc.Play(c.Request.Context(), accountID, req.Stake, req.Target, req.Mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// authedAccount is the shared identity guard for handlers below this file.
func authedAccount(c *gin.Context) (uuid.UUID, bool) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthenticated())
		return uuid.Nil, false
	}
	return accountID, true
}
