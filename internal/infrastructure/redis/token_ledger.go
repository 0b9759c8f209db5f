package redis

import (
	"context"
	"fmt"

	"auction-keeper/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisTokenLedger exposes the balances and allowances the keeper reads
// before bidding. It mirrors externally-owned ledger state in Redis hashes.
// Approvals are recorded for the owner address the ledger was opened with,
// the same way a real ledger attributes them to the transaction sender.
type RedisTokenLedger struct {
	client *redis.Client
	owner  string
}

func NewRedisTokenLedger(client *redis.Client, owner string) *RedisTokenLedger {
	return &RedisTokenLedger{client: client, owner: owner}
}

// Token returns the ledger view for a single asset.
func (l *RedisTokenLedger) Token(name string) domain.Token {
	return &redisToken{client: l.client, name: name, owner: l.owner}
}

type redisToken struct {
	client *redis.Client
	name   string
	owner  string
}

func (t *redisToken) Name() string { return t.name }

func (t *redisToken) BalanceOf(ctx context.Context, address string) (domain.Amount, error) {
	key := fmt.Sprintf("token:%s:balances", t.name)

	result, err := t.client.HGet(ctx, key, address).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.Amount{}, nil
		}
		return domain.Amount{}, err
	}

	return domain.AmountFromString(result)
}

func (t *redisToken) AllowanceOf(ctx context.Context, owner, spender string) (domain.Amount, error) {
	key := fmt.Sprintf("token:%s:allowances", t.name)
	field := fmt.Sprintf("%s:%s", owner, spender)

	result, err := t.client.HGet(ctx, key, field).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.Amount{}, nil
		}
		return domain.Amount{}, err
	}

	return domain.AmountFromString(result)
}

func (t *redisToken) Approve(ctx context.Context, spender string, amount domain.Amount) (bool, error) {
	key := fmt.Sprintf("token:%s:allowances", t.name)
	field := fmt.Sprintf("%s:%s", t.owner, spender)

	if err := t.client.HSet(ctx, key, field, amount.String()).Err(); err != nil {
		return false, err
	}
	return true, nil
}
