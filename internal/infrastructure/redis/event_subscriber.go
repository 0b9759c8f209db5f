package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisEventSubscriber consumes the bid events the auction house publishes
// from inside its acceptance scripts.
type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

func (r *RedisEventSubscriber) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, "auction_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("Subscribed to auction events")

	for {
		select {
		case msg := <-ch:
			event, err := r.parseEventData(msg.Payload)
			if err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(ctx, event); err != nil {
				r.log.Error("Failed to handle event", "event", event, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

func (r *RedisEventSubscriber) parseEventData(payload string) (*domain.BidEvent, error) {
	// Parse "lotID:eventType:bidder:amount:timestamp". Event types, bidder
	// addresses, amounts and timestamps never contain the delimiter, but lot
	// IDs may be namespaced, so the fixed fields are taken from the right.
	parts := strings.Split(payload, ":")
	if len(parts) < 5 {
		return nil, fmt.Errorf("invalid event format: %s", payload)
	}
	n := len(parts)

	amount, err := domain.AmountFromString(parts[n-2])
	if err != nil {
		return nil, err
	}

	timestamp, err := strconv.ParseInt(parts[n-1], 10, 64)
	if err != nil {
		return nil, err
	}

	return &domain.BidEvent{
		LotID:     strings.Join(parts[:n-4], ":"),
		Type:      domain.BidEventType(parts[n-4]),
		Bidder:    parts[n-3],
		Amount:    amount,
		Timestamp: time.Unix(timestamp, 0),
	}, nil
}
