package domain

import (
	"context"
	"time"
)

// Ledger interfaces
type Token interface {
	Name() string
	BalanceOf(ctx context.Context, address string) (Amount, error)
	AllowanceOf(ctx context.Context, owner, spender string) (Amount, error)
	// Approve grants spender the given allowance. A false return means the
	// ledger refused the approval; an error means the submission never made it.
	Approve(ctx context.Context, spender string, amount Amount) (bool, error)
}

// Auctionlet is one biddable lot, read as a snapshot. The lot may be outbid
// between the snapshot and a Bid submission; the auction house atomically
// accepts or rejects against current truth.
type Auctionlet interface {
	ID() string
	Auction() *Auction
	BuyAmount() Amount
	SellAmount() Amount
	CanSplit() bool
	Bid(ctx context.Context, amount Amount) (bool, error)
	BidPartial(ctx context.Context, amount, quantity Amount) (bool, error)
}

// AuctionHouse discovers lots that are open for bidding.
type AuctionHouse interface {
	ActiveLots(ctx context.Context) ([]Auctionlet, error)
	Lot(ctx context.Context, lotID string) (Auctionlet, error)
}

// Strategy decides, for a single lot, whether to bid and how much. Outcomes
// cover every business result including all "did not bid" cases; errors are
// reserved for infrastructure failures and internal invariant violations.
type Strategy interface {
	Perform(ctx context.Context, lot Auctionlet, tctx TradingContext) (*Outcome, error)
}

// Repository interfaces
type OutcomeRepository interface {
	SaveOutcome(ctx context.Context, outcome *Outcome) error
	GetOutcomeHistory(ctx context.Context, lotID string) ([]*Outcome, error)
	GetRecentOutcomes(ctx context.Context, limit int) ([]*Outcome, error)
}

type AuctionRepository interface {
	RegisterAuction(ctx context.Context, record *AuctionRecord) error
	GetAuction(ctx context.Context, auctionID string) (*AuctionRecord, error)
	GetWatchedAuctions(ctx context.Context) ([]*AuctionRecord, error)
	UpdateAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
}

// Event interfaces
type EventPublisher interface {
	PublishOutcome(ctx context.Context, outcome *Outcome) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(ctx context.Context, event *BidEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ClientID() string
	LotID() string
}

type ConnectionManager interface {
	RegisterConnection(clientID, lotID string, conn WebSocketConnection) error
	UnregisterConnection(clientID, lotID string) error
	GetConnectionsForLot(lotID string) []WebSocketConnection
	BroadcastToLot(lotID string, message interface{}) error
	CloseAndUnregisterConnections(lotID string) error
}

type LotBroadcaster interface {
	BroadcastToLot(ctx context.Context, lotID string, message interface{}) error
}

// KeeperStatus is what the read-only API reports about a running keeper.
type KeeperStatus struct {
	InstanceID string    `json:"instance_id"`
	Leader     bool      `json:"leader"`
	LastSweep  time.Time `json:"last_sweep"`
	OpenLots   int       `json:"open_lots"`
}
