package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"auction-keeper/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// TokenResolver turns a token name from auction state into a live ledger view.
type TokenResolver interface {
	Token(name string) domain.Token
}

// RedisAuctionHouse reads lot state owned by the external auction manager
// and submits this keeper's bids. Acceptance is decided atomically inside
// Redis, so a lot outbid between our snapshot and our submission is rejected
// there rather than detected here.
type RedisAuctionHouse struct {
	client *redis.Client
	tokens TokenResolver
	trader string
}

func NewRedisAuctionHouse(client *redis.Client, tokens TokenResolver, trader string) *RedisAuctionHouse {
	return &RedisAuctionHouse{
		client: client,
		tokens: tokens,
		trader: trader,
	}
}

// Acceptance scripts run against current lot state and publish the resulting
// bid event in the same atomic step.
const bidScript = `
        local lot_key = "lot:" .. KEYS[1]
        local current = redis.call('HGET', lot_key, 'buy_amount')
        local min_increase = redis.call('HGET', lot_key, 'min_increase')

        if current == false then
            return {0, "lot_not_found"}
        end

        local amount = tonumber(ARGV[1])
        local min_next = tonumber(current) * (1 + tonumber(min_increase or "0"))

        if amount >= min_next and amount > tonumber(current) then
            redis.call('HSET', lot_key,
                'buy_amount', ARGV[1],
                'last_bidder', ARGV[2],
                'last_updated', ARGV[3])

            redis.call('PUBLISH', 'auction_events',
                KEYS[1] .. ":bid_accepted:" .. ARGV[2] .. ":" .. ARGV[1] .. ":" .. ARGV[3])
            return {1, "accepted"}
        else
            redis.call('PUBLISH', 'auction_events',
                KEYS[1] .. ":bid_rejected:" .. ARGV[2] .. ":" .. ARGV[1] .. ":" .. ARGV[3])
            return {0, "insufficient_increment"}
        end
    `

const partialBidScript = `
        local lot_key = "lot:" .. KEYS[1]
        local current = redis.call('HGET', lot_key, 'buy_amount')
        local sell = redis.call('HGET', lot_key, 'sell_amount')
        local min_increase = redis.call('HGET', lot_key, 'min_increase')

        if current == false then
            return {0, "lot_not_found"}
        end

        local amount = tonumber(ARGV[1])
        local quantity = tonumber(ARGV[2])
        local min_next = tonumber(current) * (1 + tonumber(min_increase or "0"))
        local prop_min = min_next * quantity / tonumber(sell)

        if quantity < tonumber(sell) and quantity > 0 and amount >= prop_min then
            redis.call('HSET', lot_key,
                'buy_amount', ARGV[1],
                'sell_amount', ARGV[2],
                'last_bidder', ARGV[3],
                'last_updated', ARGV[4])

            redis.call('PUBLISH', 'auction_events',
                KEYS[1] .. ":bid_accepted:" .. ARGV[3] .. ":" .. ARGV[1] .. ":" .. ARGV[4])
            return {1, "accepted"}
        else
            redis.call('PUBLISH', 'auction_events',
                KEYS[1] .. ":bid_rejected:" .. ARGV[3] .. ":" .. ARGV[1] .. ":" .. ARGV[4])
            return {0, "split_rejected"}
        end
    `

func (h *RedisAuctionHouse) ActiveLots(ctx context.Context) ([]domain.Auctionlet, error) {
	lotIDs, err := h.client.SMembers(ctx, "lots:open").Result()
	if err != nil {
		return nil, err
	}

	lots := make([]domain.Auctionlet, 0, len(lotIDs))
	for _, lotID := range lotIDs {
		lot, err := h.Lot(ctx, lotID)
		if err != nil {
			// A lot can be settled and deleted between SMEMBERS and HMGET.
			continue
		}
		lots = append(lots, lot)
	}

	return lots, nil
}

// Lot reads one lot as a point-in-time snapshot.
func (h *RedisAuctionHouse) Lot(ctx context.Context, lotID string) (domain.Auctionlet, error) {
	key := fmt.Sprintf("lot:%s", lotID)

	result, err := h.client.HMGet(ctx, key,
		"auction_id", "buy_amount", "sell_amount", "min_increase",
		"selling_token", "buying_token", "can_split").Result()
	if err != nil {
		return nil, err
	}
	if result[0] == nil {
		return nil, fmt.Errorf("lot %s not found", lotID)
	}

	buyAmount, err := domain.AmountFromString(asString(result[1], "0"))
	if err != nil {
		return nil, fmt.Errorf("lot %s buy amount: %w", lotID, err)
	}
	sellAmount, err := domain.AmountFromString(asString(result[2], "0"))
	if err != nil {
		return nil, fmt.Errorf("lot %s sell amount: %w", lotID, err)
	}
	minIncrease, err := decimal.NewFromString(asString(result[3], "0"))
	if err != nil {
		return nil, fmt.Errorf("lot %s min increase: %w", lotID, err)
	}

	auction := &domain.Auction{
		ID:          asString(result[0], ""),
		Selling:     h.tokens.Token(asString(result[4], "")),
		Buying:      h.tokens.Token(asString(result[5], "")),
		MinIncrease: minIncrease,
	}

	return &redisLot{
		house:      h,
		id:         lotID,
		auction:    auction,
		buyAmount:  buyAmount,
		sellAmount: sellAmount,
		canSplit:   asString(result[6], "0") == "1",
	}, nil
}

func (h *RedisAuctionHouse) submitBid(ctx context.Context, lotID string, amount domain.Amount) (bool, error) {
	result, err := h.client.Eval(ctx, bidScript, []string{lotID},
		amount.String(),
		h.trader,
		strconv.FormatInt(time.Now().Unix(), 10)).Result()
	if err != nil {
		return false, err
	}

	resultSlice := result.([]interface{})
	return resultSlice[0].(int64) == 1, nil
}

func (h *RedisAuctionHouse) submitPartialBid(ctx context.Context, lotID string, amount, quantity domain.Amount) (bool, error) {
	result, err := h.client.Eval(ctx, partialBidScript, []string{lotID},
		amount.String(),
		quantity.String(),
		h.trader,
		strconv.FormatInt(time.Now().Unix(), 10)).Result()
	if err != nil {
		return false, err
	}

	resultSlice := result.([]interface{})
	return resultSlice[0].(int64) == 1, nil
}

func asString(value interface{}, fallback string) string {
	if value == nil {
		return fallback
	}
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	return s
}

// redisLot is an immutable snapshot; submissions go back through the house.
type redisLot struct {
	house      *RedisAuctionHouse
	id         string
	auction    *domain.Auction
	buyAmount  domain.Amount
	sellAmount domain.Amount
	canSplit   bool
}

func (l *redisLot) ID() string                { return l.id }
func (l *redisLot) Auction() *domain.Auction  { return l.auction }
func (l *redisLot) BuyAmount() domain.Amount  { return l.buyAmount }
func (l *redisLot) SellAmount() domain.Amount { return l.sellAmount }
func (l *redisLot) CanSplit() bool            { return l.canSplit }

func (l *redisLot) Bid(ctx context.Context, amount domain.Amount) (bool, error) {
	return l.house.submitBid(ctx, l.id, amount)
}

func (l *redisLot) BidPartial(ctx context.Context, amount, quantity domain.Amount) (bool, error) {
	return l.house.submitPartialBid(ctx, l.id, amount, quantity)
}
