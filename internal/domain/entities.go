package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Auction holds the static parameters of one auction: what is being sold,
// what bids are denominated in, and the fractional minimum increase the
// auction manager enforces between consecutive bids.
type Auction struct {
	ID          string
	Selling     Token
	Buying      Token
	MinIncrease decimal.Decimal
}

// AuctionRecord is the persisted registry entry for an auction the keeper
// watches. Token interfaces are resolved separately; the record only keeps
// their display names.
type AuctionRecord struct {
	ID           string
	SellingToken string
	BuyingToken  string
	MinIncrease  decimal.Decimal
	Status       AuctionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AuctionStatus int

const (
	AuctionWatched AuctionStatus = iota
	AuctionActive
	AuctionEnded
	AuctionIgnored
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionWatched:
		return "watched"
	case AuctionActive:
		return "active"
	case AuctionEnded:
		return "ended"
	case AuctionIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// TradingContext identifies the keeper on the ledger: the address it bids
// from and the auction manager address that spends its allowance.
type TradingContext struct {
	TraderAddress         string
	AuctionManagerAddress string
}

// OutcomeKind classifies what a strategy invocation decided or attempted.
type OutcomeKind string

const (
	OutcomeMaxReached           OutcomeKind = "max_reached"
	OutcomeIncreaseExceedsMax   OutcomeKind = "increase_exceeds_max"
	OutcomeFloorExceedsMax      OutcomeKind = "floor_exceeds_max"
	OutcomeBalanceBelowFloor    OutcomeKind = "balance_below_floor"
	OutcomeSplitUnavailable     OutcomeKind = "split_unavailable"
	OutcomeAllowanceRaiseFailed OutcomeKind = "allowance_raise_failed"
	OutcomeBidPlaced            OutcomeKind = "bid_placed"
	OutcomeBidFailed            OutcomeKind = "bid_failed"
	OutcomePartialBidPlaced     OutcomeKind = "partial_bid_placed"
	OutcomePartialBidFailed     OutcomeKind = "partial_bid_failed"
)

// Outcome is the immutable record of one strategy invocation. Every variant,
// including every "did not bid" case, is a normal completion rather than an
// error.
type Outcome struct {
	ID           string      `json:"id"`
	Kind         OutcomeKind `json:"kind"`
	LotID        string      `json:"lot_id"`
	Bid          Amount      `json:"bid"`
	Quantity     Amount      `json:"quantity"`
	BuyingToken  string      `json:"buying_token"`
	SellingToken string      `json:"selling_token"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Bidded reports whether the invocation submitted a bid that was accepted.
func (o *Outcome) Bidded() bool {
	return o.Kind == OutcomeBidPlaced || o.Kind == OutcomePartialBidPlaced
}

// Description renders the outcome for logs and operator-facing streams.
func (o *Outcome) Description() string {
	switch o.Kind {
	case OutcomeMaxReached:
		return "our maximum possible bid reached"
	case OutcomeIncreaseExceedsMax:
		return "minimal increase exceeds our maximum possible bid"
	case OutcomeFloorExceedsMax:
		return "minimal bid exceeds our maximum possible bid"
	case OutcomeBalanceBelowFloor:
		return "not bidding as available balance is less than minimal bid"
	case OutcomeSplitUnavailable:
		return "available balance is below minimal next bid and splitting is unavailable"
	case OutcomeAllowanceRaiseFailed:
		return "tried to raise allowance, but the attempt failed"
	case OutcomeBidPlaced:
		return fmt.Sprintf("placed a new bid at %s %s, bid was successful", o.Bid, o.BuyingToken)
	case OutcomeBidFailed:
		return fmt.Sprintf("tried to place a new bid at %s %s, but the bid failed", o.Bid, o.BuyingToken)
	case OutcomePartialBidPlaced:
		return fmt.Sprintf("placed a new bid at %s %s (partial bid for %s %s), bid was successful",
			o.Bid, o.BuyingToken, o.Quantity, o.SellingToken)
	case OutcomePartialBidFailed:
		return fmt.Sprintf("tried to place a new bid at %s %s (partial bid for %s %s), but the bid failed",
			o.Bid, o.BuyingToken, o.Quantity, o.SellingToken)
	default:
		return "unknown outcome"
	}
}

// BidEvent is published on the auction event channel whenever the auction
// house accepts or rejects a bid, by this keeper or anyone else.
type BidEvent struct {
	Type      BidEventType `json:"type"`
	LotID     string       `json:"lot_id"`
	Bidder    string       `json:"bidder"`
	Amount    Amount       `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted BidEventType = "bid_accepted"
	BidRejected BidEventType = "bid_rejected"
)
