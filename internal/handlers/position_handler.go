package handlers

import (
	"net/http"

	"market-settlement/internal/repository"
	"market-settlement/internal/services"

	"github.com/gin-gonic/gin"
)

type PositionHandler struct {
	settlement *services.SettlementService
}

func NewPositionHandler(settlement *services.SettlementService) *PositionHandler {
	return &PositionHandler{settlement: settlement}
}

// GetMyPositions returns the caller's positions across markets
func (h *PositionHandler) GetMyPositions(c *gin.Context) {
	caller := callerFrom(c)
	limit, offset := page(c)

	positions, err := h.settlement.ListPositions(c.Request.Context(), repository.PositionFilter{
		Bettor: caller.Wallet,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    positions,
		"count":   len(positions),
	})
}

// GetPosition returns a single position
func (h *PositionHandler) GetPosition(c *gin.Context) {
	positionID, ok := positionIDParam(c)
	if !ok {
		return
	}

	position, err := h.settlement.GetPosition(c.Request.Context(), positionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    position,
	})
}

// ClaimPayout pays out a winning position
// POST /api/positions/:id/claim
func (h *PositionHandler) ClaimPayout(c *gin.Context) {
	positionID, ok := positionIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlement.ClaimPayout(c.Request.Context(), callerFrom(c), positionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.NewClaimResponse(result),
	})
}

// ClaimRefund returns the stake of a position in a cancelled market
// POST /api/positions/:id/refund
func (h *PositionHandler) ClaimRefund(c *gin.Context) {
	positionID, ok := positionIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlement.ClaimRefund(c.Request.Context(), callerFrom(c), positionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.NewClaimResponse(result),
	})
}
