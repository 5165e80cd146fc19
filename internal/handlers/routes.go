package handlers

import (
	"net/http"
	"time"

	"market-settlement/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth     *AuthHandler
	Market   *MarketHandler
	Position *PositionHandler
	Wallet   *WalletHandler
	Admin    *AdminHandler
}

// RegisterRoutes mounts the API on router. Mutating routes pass through limiter.
func RegisterRoutes(router *gin.Engine, h Handlers, limiter *RateLimiter) {
	limit := limiter.Middleware()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/challenge", limit, h.Auth.Challenge)
		authRoutes.POST("/wallet", limit, h.Auth.WalletLogin)
		authRoutes.GET("/me", auth.AuthMiddleware(), h.Auth.GetMe)
	}

	// Public read routes
	router.GET("/api/markets", h.Market.GetMarkets)
	router.GET("/api/markets/:id", h.Market.GetMarketByID)
	router.GET("/api/markets/:id/quote", h.Market.GetQuote)
	router.GET("/api/markets/:id/events", h.Market.GetMarketEvents)
	router.GET("/api/markets/:id/positions", h.Market.GetMarketPositions)
	router.GET("/api/positions/:id", h.Position.GetPosition)
	router.GET("/api/parameters", h.Admin.GetParameters)
	router.GET("/api/wallet/vault", h.Wallet.GetVault)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/markets", limit, h.Market.CreateMarket)
		api.POST("/markets/:id/wagers", limit, h.Market.PlaceWager)
		api.POST("/markets/:id/resolve", limit, h.Market.ResolveMarket)

		api.GET("/positions", h.Position.GetMyPositions)
		api.POST("/positions/:id/claim", limit, h.Position.ClaimPayout)
		api.POST("/positions/:id/refund", limit, h.Position.ClaimRefund)

		api.GET("/wallet/balance", h.Wallet.GetBalance)
		api.GET("/wallet/history", h.Wallet.GetHistory)
		api.POST("/wallet/deposit", limit, h.Wallet.Deposit)
		api.POST("/wallet/withdraw", limit, h.Wallet.Withdraw)
	}

	// Admin routes (platform authority only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(h.Admin.AuthorityMiddleware())
	{
		admin.GET("/parameters", h.Admin.GetParameters)
		admin.GET("/diagnostics", h.Admin.GetDiagnostics)
		admin.PUT("/parameters", limit, h.Admin.UpdateParameters)
		admin.POST("/markets/:id/cancel", limit, h.Admin.CancelMarket)
		admin.POST("/markets/sweep-stale", limit, h.Admin.SweepStaleMarkets)
	}
}
