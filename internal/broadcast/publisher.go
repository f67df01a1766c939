package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"tradepost/pkg/logger"
	"tradepost/pkg/redis"
)

// Publisher fans state-change events out to connected listeners. Delivery is
// best-effort and at-most-once: a failed publish is logged and dropped, it
// never fails the operation that produced it. Clients reconstruct state from
// the store, not from this channel.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// Topic names. Per-order topics embed the order id as a string suffix.
const TopicNewOrder = "new_order"

// TopicOrderUpdate returns the per-order update topic.
func TopicOrderUpdate(orderID string) string {
	return fmt.Sprintf("order_update_%s", orderID)
}

// NewOrderEvent is pushed on TopicNewOrder after an order commits.
type NewOrderEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// OrderUpdateEvent is pushed on the per-order topic after a status change.
type OrderUpdateEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type redisPublisher struct {
	client *redis.Client
	logg   *logger.Logger
	prefix string
}

// NewRedisPublisher builds a Publisher backed by Redis pub/sub.
func NewRedisPublisher(client *redis.Client, logg *logger.Logger, prefix string) (Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisPublisher{client: client, logg: logg, prefix: prefix}, nil
}

func (p *redisPublisher) Publish(ctx context.Context, topic string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(ctx, "broadcast.marshal_failed", err)
		}
		return
	}

	channel := topic
	if p.prefix != "" {
		channel = p.prefix + ":" + topic
	}
	if err := p.client.Publish(ctx, channel, body); err != nil {
		if p.logg != nil {
			ctx = p.logg.WithField(ctx, "topic", topic)
			p.logg.Warn(ctx, "broadcast.publish_failed")
		}
	}
}

// Nop returns a Publisher that drops everything. Used when the broadcast
// channel is not configured.
func Nop() Publisher {
	return nopPublisher{}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) {}
