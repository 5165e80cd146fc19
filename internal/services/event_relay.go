package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-settlement/internal/metrics"
	"market-settlement/internal/models"
	"market-settlement/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher delivers outbox events to the audit log
type EventPublisher interface {
	Publish(ctx context.Context, batch []*models.SettlementEvent) error
}

// EventRelay moves committed outbox events to the publisher in creation
// order. A batch is stamped published only after the publisher accepted it,
// so delivery is at least once.
type EventRelay struct {
	repo      *repository.Repository
	publisher EventPublisher
	metrics   *metrics.Settlement
	logger    *zap.Logger
	batchSize int
	mu        sync.Mutex
}

func NewEventRelay(
	repo *repository.Repository,
	publisher EventPublisher,
	m *metrics.Settlement,
	logger *zap.Logger,
	batchSize int,
) *EventRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &EventRelay{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		batchSize: batchSize,
	}
}

// RelayOnce publishes up to one batch and returns how many events it relayed.
// Concurrent calls run one after the other.
func (r *EventRelay) RelayOnce(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, err := r.repo.ListUnpublishedEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list outbox events: %w", err)
	}

	if len(batch) > 0 {
		if err := r.publisher.Publish(ctx, batch); err != nil {
			return 0, fmt.Errorf("failed to publish %d events: %w", len(batch), err)
		}

		ids := make([]uuid.UUID, 0, len(batch))
		for _, e := range batch {
			ids = append(ids, e.ID)
		}
		if err := r.repo.MarkEventsPublished(ctx, ids, time.Now()); err != nil {
			return 0, fmt.Errorf("failed to mark events published: %w", err)
		}
		r.metrics.Relayed(len(batch))
		r.logger.Debug("events relayed", zap.Int("count", len(batch)))
	}

	if backlog, err := r.repo.CountUnpublishedEvents(ctx); err == nil {
		r.metrics.RelayBacklog(backlog)
	}
	return len(batch), nil
}
