package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	walletKey  = "wallet_address"
	sessionKey = "session_id"
)

func unauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "Unauthenticated",
	})
}

// AuthMiddleware requires a bearer session token and attaches the caller's
// wallet to the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthenticated(c, "Authorization header required")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthenticated(c, "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := ValidateToken(strings.TrimSpace(token))
		if err != nil {
			unauthenticated(c, "Invalid or expired token")
			return
		}

		c.Set(walletKey, claims.WalletAddress)
		c.Set(sessionKey, claims.ID)
		c.Next()
	}
}

// GetWalletAddress returns the authenticated wallet, if any
func GetWalletAddress(c *gin.Context) (string, bool) {
	address := c.GetString(walletKey)
	return address, address != ""
}

// GetSessionID returns the token id of the current session
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
