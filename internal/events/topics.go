package events

import (
	"market-settlement/internal/models"
)

// DefaultTopicPrefix is prepended to every event type
const DefaultTopicPrefix = "settlement"

// Topic returns the Kafka topic an event type is published to
func Topic(prefix string, eventType models.SettlementEventType) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "." + string(eventType)
}

// AllTypes lists every settlement event type
var AllTypes = []models.SettlementEventType{
	models.EventMarketCreated,
	models.EventWagerPlaced,
	models.EventMarketResolved,
	models.EventPayoutClaimed,
	models.EventMarketCancelled,
	models.EventRefundClaimed,
}
