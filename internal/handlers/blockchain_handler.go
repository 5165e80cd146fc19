package handlers

import (
	"net/http"

	"market-settlement/internal/models"
	"market-settlement/internal/services"

	"github.com/gin-gonic/gin"
)

// WalletHandler moves funds between Solana and the caller's ledger balance
type WalletHandler struct {
	funding *services.FundingService
}

func NewWalletHandler(funding *services.FundingService) *WalletHandler {
	return &WalletHandler{funding: funding}
}

// GetVault returns the address deposits must be sent to
func (h *WalletHandler) GetVault(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"vault":   h.funding.VaultAddress(),
	})
}

// Deposit credits a confirmed transfer into the vault
// POST /api/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.funding.Deposit(c.Request.Context(), callerFrom(c), req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entry,
	})
}

// Withdraw sends lamports from the caller's balance to their wallet
// POST /api/wallet/withdraw (202 while the on-chain transfer is unconfirmed)
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.funding.Withdraw(c.Request.Context(), callerFrom(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if entry.Status == models.LedgerEntryPending {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"success": true,
		"data":    entry,
	})
}

// GetBalance returns the caller's ledger balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.funding.Balance(c.Request.Context(), callerFrom(c).Wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    balance,
	})
}

// GetHistory returns the caller's ledger entries, newest first
func (h *WalletHandler) GetHistory(c *gin.Context) {
	limit, offset := page(c)
	entries, err := h.funding.History(c.Request.Context(), callerFrom(c).Wallet, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}
