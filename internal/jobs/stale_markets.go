package jobs

import (
	"context"
	"time"

	"market-settlement/internal/services"

	"go.uber.org/zap"
)

const staleSweepTimeout = 10 * time.Minute

// StaleMarketCanceller cancels markets that stayed unresolved long past their end date
type StaleMarketCanceller struct {
	settlement *services.SettlementService
	logger     *zap.Logger
}

func NewStaleMarketCanceller(settlement *services.SettlementService, logger *zap.Logger) *StaleMarketCanceller {
	return &StaleMarketCanceller{settlement: settlement, logger: logger}
}

// Run performs one sweep
func (j *StaleMarketCanceller) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, staleSweepTimeout)
	defer cancel()

	summary, err := j.settlement.CancelStaleMarkets(ctx)
	if err != nil {
		j.logger.Error("stale market sweep failed", zap.Error(err))
		return
	}
	if summary.Failed > 0 {
		j.logger.Warn("stale market sweep had failures", zap.Uint64s("markets", summary.FailedMarkets))
	}
}
