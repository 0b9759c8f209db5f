package redis

import (
	"context"
	"encoding/json"

	"auction-keeper/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisEventPublisher announces every strategy outcome on a pub/sub channel
// so dashboards and other keeper replicas can follow what was decided.
type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (r *RedisEventPublisher) PublishOutcome(ctx context.Context, outcome *domain.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, "keeper_outcomes", string(data)).Err()
}
