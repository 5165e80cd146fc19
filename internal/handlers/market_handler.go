package handlers

import (
	"net/http"
	"strconv"

	"market-settlement/internal/models"
	"market-settlement/internal/repository"
	"market-settlement/internal/services"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	settlement *services.SettlementService
}

func NewMarketHandler(settlement *services.SettlementService) *MarketHandler {
	return &MarketHandler{settlement: settlement}
}

// GetMarkets returns markets with optional status filtering
// GET /api/markets?status=ACTIVE&limit=50&offset=0
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	status := models.MarketStatus(c.Query("status"))
	limit, offset := page(c)

	markets, total, err := h.settlement.ListMarkets(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]models.MarketResponse, 0, len(markets))
	for _, m := range markets {
		data = append(data, services.NewMarketResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   len(data),
		"total":   total,
	})
}

// GetMarketByID returns a market with its pools and current odds
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}

	market, err := h.settlement.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.NewMarketResponse(market),
	})
}

// CreateMarket registers a governance-approved market (authority only)
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	market, err := h.settlement.CreateMarket(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    services.NewMarketResponse(market),
	})
}

// PlaceWager stakes lamports from the caller's balance on one side
// POST /api/markets/:id/wagers
func (h *MarketHandler) PlaceWager(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}

	var req models.PlaceWagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	position, err := h.settlement.PlaceWager(c.Request.Context(), callerFrom(c), marketID, req.Side, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    position,
	})
}

// ResolveMarket records the outcome and distributes fees (creator only)
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}

	var req models.ResolveMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	recipients := services.Recipients{Platform: req.PlatformWallet, Creator: req.CreatorWallet}
	market, err := h.settlement.ResolveMarket(c.Request.Context(), callerFrom(c), marketID, req.Outcome, recipients)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.NewMarketResponse(market),
	})
}

// GetQuote previews a wager without placing it
// GET /api/markets/:id/quote?side=YES&amount=1000000
func (h *MarketHandler) GetQuote(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}
	amount, err := strconv.ParseUint(c.Query("amount"), 10, 64)
	if err != nil {
		badRequest(c, "invalid amount")
		return
	}

	quote, err := h.settlement.GetQuote(c.Request.Context(), marketID, models.BetSide(c.Query("side")), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// GetMarketEvents returns the audit trail of a market
func (h *MarketHandler) GetMarketEvents(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}

	events, err := h.settlement.ListMarketEvents(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"count":   len(events),
	})
}

// GetMarketPositions lists the positions of a market
func (h *MarketHandler) GetMarketPositions(c *gin.Context) {
	marketID, ok := marketIDParam(c)
	if !ok {
		return
	}
	limit, offset := page(c)

	positions, err := h.settlement.ListPositions(c.Request.Context(), repository.PositionFilter{
		MarketID: &marketID,
		Bettor:   c.Query("bettor"),
		Limit:    limit,
		Offset:   offset,
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
