package handler

import (
	"casino-core/internal/adapter/http/dto"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"
	"casino-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PeerBetHandler handles the head-to-head wager endpoints.
type PeerBetHandler struct {
	peerBetSvc ports.PeerBetService
}

// NewPeerBetHandler creates a new PeerBetHandler.
func NewPeerBetHandler(peerBetSvc ports.PeerBetService) *PeerBetHandler {
	return &PeerBetHandler{peerBetSvc: peerBetSvc}
}

// Propose handles POST /api/v1/peerbets.
func (h *PeerBetHandler) Propose(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	var req dto.PeerBetProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	counterpartyID, err := uuid.Parse(req.CounterpartyID)
	if err != nil {
		response.Error(c, apperror.Validation("counterparty_id must be a UUID"))
		return
	}

	bet, err := h.peerBetSvc.Propose(c.Request.Context(), accountID, counterpartyID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bet)
}

// Accept handles POST /api/v1/peerbets/:bet_id/accept.
func (h *PeerBetHandler) Accept(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	betID, err := uuid.Parse(c.Param("bet_id"))
	if err != nil {
		response.Error(c, apperror.Validation("bet_id must be a UUID"))
		return
	}

	result, err := h.peerBetSvc.Accept(c.Request.Context(), accountID, betID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Cancel handles POST /api/v1/peerbets/:bet_id/cancel.
func (h *PeerBetHandler) Cancel(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	betID, err := uuid.Parse(c.Param("bet_id"))
	if err != nil {
		response.Error(c, apperror.Validation("bet_id must be a UUID"))
		return
	}

	bet, err := h.peerBetSvc.Cancel(c.Request.Context(), accountID, betID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, bet)
}

// ListOpen handles GET /api/v1/peerbets.
func (h *PeerBetHandler) ListOpen(c *gin.Context) {
	accountID, ok := authedAccount(c)
	if !ok {
		return
	}

	bets, err := h.peerBetSvc.ListOpen(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, bets)
}
