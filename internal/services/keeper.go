package services

import (
	"context"
	"sync"
	"time"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"
)

// KeeperService runs the bidding strategy across every open lot and records
// what was decided. The strategy itself is stateless; all bookkeeping
// (persistence, events, watcher streams) happens here.
type KeeperService struct {
	strategy       domain.Strategy
	house          domain.AuctionHouse
	outcomeRepo    domain.OutcomeRepository
	eventPub       domain.EventPublisher
	broadcaster    domain.LotBroadcaster
	leaderElection domain.LeaderElection
	tctx           domain.TradingContext
	instanceID     string
	log            logger.Logger

	mu        sync.RWMutex
	lastSweep time.Time
	openLots  int
}

func NewKeeperService(
	strategy domain.Strategy,
	house domain.AuctionHouse,
	outcomeRepo domain.OutcomeRepository,
	eventPub domain.EventPublisher,
	broadcaster domain.LotBroadcaster,
	leaderElection domain.LeaderElection,
	tctx domain.TradingContext,
	instanceID string,
	log logger.Logger,
) *KeeperService {
	return &KeeperService{
		strategy:       strategy,
		house:          house,
		outcomeRepo:    outcomeRepo,
		eventPub:       eventPub,
		broadcaster:    broadcaster,
		leaderElection: leaderElection,
		tctx:           tctx,
		instanceID:     instanceID,
		log:            log,
	}
}

// EvaluateLot runs one strategy invocation against a lot snapshot and
// records the outcome. Bookkeeping failures are logged, never allowed to
// mask the decision itself.
func (k *KeeperService) EvaluateLot(ctx context.Context, lot domain.Auctionlet) (*domain.Outcome, error) {
	outcome, err := k.strategy.Perform(ctx, lot, k.tctx)
	if err != nil {
		return nil, err
	}

	k.log.Info("Strategy outcome",
		"lot_id", outcome.LotID,
		"kind", outcome.Kind,
		"description", outcome.Description())

	if err := k.outcomeRepo.SaveOutcome(ctx, outcome); err != nil {
		k.log.Error("Failed to save outcome", "lot_id", outcome.LotID, "error", err)
	}

	if err := k.eventPub.PublishOutcome(ctx, outcome); err != nil {
		k.log.Error("Failed to publish outcome", "lot_id", outcome.LotID, "error", err)
	}

	if err := k.broadcaster.BroadcastToLot(ctx, outcome.LotID, map[string]interface{}{
		"type":        "outcome",
		"kind":        outcome.Kind,
		"description": outcome.Description(),
		"bid":         outcome.Bid,
		"quantity":    outcome.Quantity,
		"timestamp":   outcome.Timestamp,
	}); err != nil {
		k.log.Error("Failed to broadcast outcome", "lot_id", outcome.LotID, "error", err)
	}

	return outcome, nil
}

// EvaluateLotByID reloads a lot and evaluates it; used when a bid event
// makes an earlier snapshot stale.
func (k *KeeperService) EvaluateLotByID(ctx context.Context, lotID string) (*domain.Outcome, error) {
	lot, err := k.house.Lot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return k.EvaluateLot(ctx, lot)
}

// RunOnce sweeps every open lot. Only the leader replica bids, so an
// operator running several keepers never outbids itself.
func (k *KeeperService) RunOnce(ctx context.Context) error {
	isLeader, err := k.leaderElection.IsLeader(ctx, k.instanceID)
	if err != nil {
		return err
	}
	if !isLeader {
		k.log.Debug("Skipping sweep, not the leader", "instance_id", k.instanceID)
		return nil
	}

	lots, err := k.house.ActiveLots(ctx)
	if err != nil {
		return err
	}

	for _, lot := range lots {
		if _, err := k.EvaluateLot(ctx, lot); err != nil {
			k.log.Error("Lot evaluation failed", "lot_id", lot.ID(), "error", err)
		}
	}

	k.mu.Lock()
	k.lastSweep = time.Now()
	k.openLots = len(lots)
	k.mu.Unlock()

	return nil
}

func (k *KeeperService) Status(ctx context.Context) domain.KeeperStatus {
	isLeader, err := k.leaderElection.IsLeader(ctx, k.instanceID)
	if err != nil {
		k.log.Error("Failed to check leadership", "error", err)
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	return domain.KeeperStatus{
		InstanceID: k.instanceID,
		Leader:     isLeader,
		LastSweep:  k.lastSweep,
		OpenLots:   k.openLots,
	}
}

func (k *KeeperService) TraderAddress() string {
	return k.tctx.TraderAddress
}
