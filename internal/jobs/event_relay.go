package jobs

import (
	"context"
	"time"

	"market-settlement/internal/services"

	"go.uber.org/zap"
)

const relayTimeout = 30 * time.Second

// EventRelayJob drains the outbox into Kafka on every tick
type EventRelayJob struct {
	relay  *services.EventRelay
	logger *zap.Logger
}

func NewEventRelayJob(relay *services.EventRelay, logger *zap.Logger) *EventRelayJob {
	return &EventRelayJob{relay: relay, logger: logger}
}

// Run relays batches until the outbox is empty or a batch fails
func (j *EventRelayJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, relayTimeout)
	defer cancel()

	for {
		n, err := j.relay.RelayOnce(ctx)
		if err != nil {
			j.logger.Warn("event relay failed", zap.Error(err))
			return
		}
		if n == 0 || ctx.Err() != nil {
			return
		}
	}
}
