package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/events"
	"github.com/spec-kit/crm-realtime/internal/persistence"
)

// RedisBridge relays tenant broadcasts across hub instances through a redis
// pub/sub channel. Each instance tags published envelopes with its own id
// and ignores its echoes on receipt.
type RedisBridge struct {
	redis      *persistence.Redis
	channel    string
	instanceID string
	logger     *zap.Logger
}

type bridgeEnvelope struct {
	Instance       string         `json:"instance"`
	OrganizationID string         `json:"organization_id"`
	Event          events.Name    `json:"event"`
	Payload        events.Payload `json:"payload"`
}

// NewRedisBridge builds a bridge over channel. A missing client or empty
// channel returns nil, which disables cross-instance fan-out.
func NewRedisBridge(redis *persistence.Redis, channel string, logger *zap.Logger) *RedisBridge {
	if redis == nil || redis.Client == nil || channel == "" {
		return nil
	}
	return &RedisBridge{
		redis:      redis,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Publish sends a broadcast envelope to peer instances. Failures are logged
// and dropped; local delivery already happened.
func (b *RedisBridge) Publish(orgID string, event events.Name, payload events.Payload) {
	envelope := bridgeEnvelope{
		Instance:       b.instanceID,
		OrganizationID: orgID,
		Event:          event,
		Payload:        payload,
	}
	if err := b.redis.PublishJSON(context.Background(), b.channel, envelope); err != nil {
		b.logger.Warn("bridge publish failed", zap.Error(err))
	}
}

// Run replays remote events from the bridge channel into the local router
// until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context, router *Router) {
	for raw := range b.redis.Subscribe(ctx, b.channel) {
		var envelope bridgeEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			b.logger.Warn("bridge envelope unmarshal failed", zap.Error(err))
			continue
		}
		if envelope.Instance == b.instanceID {
			continue
		}
		router.DeliverLocal(envelope.OrganizationID, envelope.Event, envelope.Payload)
	}
}
