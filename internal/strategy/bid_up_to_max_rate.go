package strategy

import (
	"auction-keeper/internal/domain"
	"auction-keeper/pkg/utils"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInternal marks a defect in the engine's own arithmetic, e.g. a computed
// minimum next bid below the current bid. Correct logic makes these
// unreachable; they are never a business outcome.
var ErrInternal = errors.New("strategy invariant violated")

// DefaultAllowanceCeiling is the allowance requested whenever the current
// allowance does not cover a bid. It is deliberately far above any single
// bid so approvals are not repeated on every lot.
var DefaultAllowanceCeiling = domain.AmountFromInt(1_000_000)

// Config controls how aggressively the keeper bids on a lot.
type Config struct {
	// MaxPrice is the maximum ratio of buy amount to sell amount the keeper
	// will ever pay for a lot.
	MaxPrice decimal.Decimal
	// Step in (0, 1] scales each bid between the current bid and the ceiling.
	Step decimal.Decimal
	// MinimalBid is an absolute floor below which the keeper never bids.
	MinimalBid domain.Amount
	// AllowanceCeiling overrides DefaultAllowanceCeiling when positive.
	AllowanceCeiling domain.Amount
}

func (c Config) Validate() error {
	if !c.MaxPrice.IsPositive() {
		return fmt.Errorf("max price must be > 0")
	}
	if !c.Step.IsPositive() {
		return fmt.Errorf("step must be > 0")
	}
	if c.Step.GreaterThan(decimal.New(1, 0)) {
		return fmt.Errorf("step must be <= 1")
	}
	if !c.MinimalBid.IsPositive() {
		return fmt.Errorf("minimal bid must be > 0")
	}
	return nil
}

// BidUpToMaxRate bids towards a configured maximum unit price, stepping a
// fixed fraction of the remaining headroom on every invocation. It holds no
// mutable state; one instance serves any number of lots.
type BidUpToMaxRate struct {
	maxPrice         decimal.Decimal
	step             decimal.Decimal
	minimalBid       domain.Amount
	allowanceCeiling domain.Amount
}

func NewBidUpToMaxRate(cfg Config) (*BidUpToMaxRate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}

	ceiling := cfg.AllowanceCeiling
	if !ceiling.IsPositive() {
		ceiling = DefaultAllowanceCeiling
	}

	return &BidUpToMaxRate{
		maxPrice:         cfg.MaxPrice,
		step:             cfg.Step,
		minimalBid:       cfg.MinimalBid,
		allowanceCeiling: ceiling,
	}, nil
}

// Perform computes and attempts at most one bid on the lot. Guard order is
// significant: later computations assume earlier guards passed.
func (s *BidUpToMaxRate) Perform(ctx context.Context, lot domain.Auctionlet, tctx domain.TradingContext) (*domain.Outcome, error) {
	auction := lot.Auction()
	current := lot.BuyAmount()
	sell := lot.SellAmount()

	minNext := current.PercentageChange(auction.MinIncrease)
	if minNext.LessThan(current) {
		return nil, fmt.Errorf("%w: minimum next bid %s below current bid %s", ErrInternal, minNext, current)
	}

	// The absolute ceiling we will ever pay for this lot.
	maxBid := sell.MulRatio(s.maxPrice)

	if current.GreaterThanOrEqual(maxBid) {
		return s.outcome(domain.OutcomeMaxReached, lot), nil
	}
	if minNext.GreaterThan(maxBid) {
		return s.outcome(domain.OutcomeIncreaseExceedsMax, lot), nil
	}
	if s.minimalBid.GreaterThan(maxBid) {
		return s.outcome(domain.OutcomeFloorExceedsMax, lot), nil
	}

	balance, err := auction.Buying.BalanceOf(ctx, tctx.TraderAddress)
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	if balance.LessThan(s.minimalBid) {
		return s.outcome(domain.OutcomeBalanceBelowFloor, lot), nil
	}

	// The bid we want under ideal conditions: a step of the remaining
	// headroom above the current bid.
	preferred := current.Add(maxBid.Sub(current).MulRatio(s.step))
	// The auction's minimum increase and our own floor can both force us
	// higher than the preferred bid.
	preferred = domain.MaxAmount(preferred, minNext)
	preferred = domain.MaxAmount(preferred, s.minimalBid)

	// We cannot bid more than we hold.
	actual := domain.MinAmount(preferred, balance)

	if actual.LessThan(minNext) {
		if !lot.CanSplit() {
			return s.outcome(domain.OutcomeSplitUnavailable, lot), nil
		}

		// Bid the whole balance for a proportionally smaller quantity at
		// the preferred unit rate. The rate is truncated at the fixed
		// scale, so an extreme sell amount can collapse it to zero; that
		// must surface as a defect, not a division by zero.
		rate := preferred.Div(sell)
		if rate.IsZero() {
			return nil, fmt.Errorf("%w: implied unit rate %s/%s is zero for lot %s",
				ErrInternal, preferred, sell, lot.ID())
		}
		actual = balance
		quantity := balance.DivRatio(rate)

		accepted, err := lot.BidPartial(ctx, actual, quantity)
		if err != nil {
			return nil, fmt.Errorf("partial bid submission failed: %w", err)
		}
		kind := domain.OutcomePartialBidFailed
		if accepted {
			kind = domain.OutcomePartialBidPlaced
		}
		out := s.outcome(kind, lot)
		out.Bid = actual
		out.Quantity = quantity
		return out, nil
	}

	allowance, err := auction.Buying.AllowanceOf(ctx, tctx.TraderAddress, tctx.AuctionManagerAddress)
	if err != nil {
		return nil, fmt.Errorf("allowance query failed: %w", err)
	}
	if actual.GreaterThan(allowance) {
		approved, err := auction.Buying.Approve(ctx, tctx.AuctionManagerAddress, s.allowanceCeiling)
		if err != nil {
			return nil, fmt.Errorf("allowance raise failed: %w", err)
		}
		if !approved {
			return s.outcome(domain.OutcomeAllowanceRaiseFailed, lot), nil
		}
	}

	if !actual.GreaterThan(current) || actual.GreaterThan(maxBid) || actual.LessThan(minNext) {
		return nil, fmt.Errorf("%w: computed bid %s not within (%s, %s] or below minimum next bid %s",
			ErrInternal, actual, current, maxBid, minNext)
	}

	accepted, err := lot.Bid(ctx, actual)
	if err != nil {
		return nil, fmt.Errorf("bid submission failed: %w", err)
	}
	kind := domain.OutcomeBidFailed
	if accepted {
		kind = domain.OutcomeBidPlaced
	}
	out := s.outcome(kind, lot)
	out.Bid = actual
	return out, nil
}

func (s *BidUpToMaxRate) outcome(kind domain.OutcomeKind, lot domain.Auctionlet) *domain.Outcome {
	auction := lot.Auction()
	return &domain.Outcome{
		ID:           utils.GenerateID("outcome"),
		Kind:         kind,
		LotID:        lot.ID(),
		BuyingToken:  auction.Buying.Name(),
		SellingToken: auction.Selling.Name(),
		Timestamp:    time.Now(),
	}
}
