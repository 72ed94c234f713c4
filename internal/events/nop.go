package events

import (
	"context"

	"go.uber.org/zap"
)

// NopPublisher only logs events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, eventType, key string, _ any) {
	zap.L().Debug("event", zap.String("type", eventType), zap.String("key", key))
}
