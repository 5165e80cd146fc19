package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"market-settlement/internal/events"

	"github.com/redis/go-redis/v9"
)

// ChannelOddsBroadcast carries every odds update for live subscribers
const ChannelOddsBroadcast = "settlement:odds"

// OddsCache keeps the latest odds of each market in Redis and fans updates
// out over pub/sub
type OddsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewOddsCache(c *redis.Client, ttl time.Duration) *OddsCache {
	return &OddsCache{Client: c, TTL: ttl}
}

func key(marketID uint64) string {
	return "odds:current:" + strconv.FormatUint(marketID, 10)
}

// PublishOdds stores update as the market's current odds and broadcasts it
func (c *OddsCache) PublishOdds(ctx context.Context, update events.OddsUpdate) error {
	b, err := json.Marshal(update)
	if err != nil {
		return err
	}

	pipe := c.Client.TxPipeline()
	pipe.Set(ctx, key(update.MarketID), b, c.TTL)
	pipe.Publish(ctx, ChannelOddsBroadcast, b)
	_, err = pipe.Exec(ctx)
	return err
}

// GetOdds returns the cached odds of a market. ok is false on a cache miss.
func (c *OddsCache) GetOdds(ctx context.Context, marketID uint64) (events.OddsUpdate, bool, error) {
	var update events.OddsUpdate
	b, err := c.Client.Get(ctx, key(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return update, false, nil
	}
	if err != nil {
		return update, false, err
	}
	if err := json.Unmarshal(b, &update); err != nil {
		return update, false, err
	}
	return update, true, nil
}

// Invalidate drops the cached odds of a market
func (c *OddsCache) Invalidate(ctx context.Context, marketID uint64) error {
	return c.Client.Del(ctx, key(marketID)).Err()
}
