package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"market-settlement/internal/auth"
	"market-settlement/internal/blockchain"
	"market-settlement/internal/repository"
	"market-settlement/internal/services"
	"market-settlement/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var kindStatus = map[settlement.Kind]int{
	settlement.KindValidation:    http.StatusBadRequest,
	settlement.KindAuthorization: http.StatusForbidden,
	settlement.KindNotFound:      http.StatusNotFound,
	settlement.KindState:         http.StatusConflict,
	settlement.KindFunds:         http.StatusPaymentRequired,
	settlement.KindArithmetic:    http.StatusUnprocessableEntity,
	settlement.KindFatal:         http.StatusInternalServerError,
}

// respondError writes err as {"error", "code"} with the status of its kind
func respondError(c *gin.Context, err error) {
	var serr *settlement.Error
	if errors.As(err, &serr) {
		status, ok := kindStatus[serr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		message := serr.Message
		if serr.Kind == settlement.KindFatal {
			message = "internal settlement error"
		}
		c.JSON(status, gin.H{"error": message, "code": serr.Code})
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "NotFound"})
	case errors.Is(err, repository.ErrParametersNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "ParametersNotInitialized"})
	case errors.Is(err, services.ErrDepositClaimedByOther):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "DepositClaimed"})
	case errors.Is(err, blockchain.ErrTransactionNotConfirmed),
		errors.Is(err, blockchain.ErrTransactionFailed),
		errors.Is(err, blockchain.ErrNoVaultTransfer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidDeposit"})
	case errors.Is(err, services.ErrWithdrawalFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": services.ErrWithdrawalFailed.Error(), "code": "WithdrawalFailed"})
	case errors.Is(err, blockchain.ErrVaultNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "VaultUnavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "Internal"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "BadRequest"})
}

// callerFrom returns the wallet identity attached by the JWT middleware
func callerFrom(c *gin.Context) services.Caller {
	wallet, _ := auth.GetWalletAddress(c)
	return services.Caller{Wallet: wallet}
}

func marketIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid market id")
		return 0, false
	}
	return id, true
}

func positionIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid position id")
		return uuid.Nil, false
	}
	return id, true
}

// page reads limit and offset query parameters
func page(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
