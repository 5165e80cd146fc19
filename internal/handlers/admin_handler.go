package handlers

import (
	"context"
	"net/http"

	"market-settlement/internal/blockchain"
	"market-settlement/internal/models"
	"market-settlement/internal/services"

	"github.com/gin-gonic/gin"
)

// Diagnoser reports the health of the on-chain side
type Diagnoser interface {
	RunDiagnostics(ctx context.Context) *blockchain.DiagnosticResult
}

type AdminHandler struct {
	settlement  *services.SettlementService
	diagnostics Diagnoser
}

// NewAdminHandler creates the admin handler. diagnostics may be nil.
func NewAdminHandler(settlement *services.SettlementService, diagnostics Diagnoser) *AdminHandler {
	return &AdminHandler{settlement: settlement, diagnostics: diagnostics}
}

// AuthorityMiddleware admits only the platform authority of the current parameters
func (h *AdminHandler) AuthorityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerFrom(c)
		if !caller.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "Unauthenticated"})
			return
		}

		params, err := h.settlement.GetParameters(c.Request.Context())
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if caller.Wallet != params.Authority {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Platform authority required", "code": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// GetParameters returns the current parameter snapshot
func (h *AdminHandler) GetParameters(c *gin.Context) {
	params, err := h.settlement.GetParameters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    params,
	})
}

// UpdateParameters replaces the parameter snapshot
// PUT /api/admin/parameters
func (h *AdminHandler) UpdateParameters(c *gin.Context) {
	var req models.UpdateParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	params, err := h.settlement.UpdateParameters(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    params,
	})
}

// CancelMarket voids an ended, unresolved market
// POST /api/admin/markets/:id/cancel
func (h *AdminHandler) CancelMarket(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}

	market, err := h.settlement.CancelMarket(c.Request.Context(), callerFrom(c), marketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.NewMarketResponse(market),
	})
}

// SweepStaleMarkets runs the stale-market cancellation immediately
// POST /api/admin/markets/sweep-stale
func (h *AdminHandler) SweepStaleMarkets(c *gin.Context) {
	summary, err := h.settlement.CancelStaleMarkets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// GetDiagnostics checks Solana RPC connectivity and the vault balance
// GET /api/admin/diagnostics
func (h *AdminHandler) GetDiagnostics(c *gin.Context) {
	if h.diagnostics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Diagnostics unavailable", "code": "VaultUnavailable"})
		return
	}

	result := h.diagnostics.RunDiagnostics(c.Request.Context())
	status := http.StatusOK
	if !result.RPCConnected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success": result.RPCConnected,
		"data":    result,
	})
}
