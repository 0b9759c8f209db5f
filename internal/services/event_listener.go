package services

import (
	"context"
	"fmt"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"
)

// EventListener reacts to bid events published by the auction house. A bid
// accepted from another trader invalidates the keeper's last decision, so the
// lot is re-evaluated straight away instead of waiting for the next sweep.
type EventListener struct {
	keeper      *KeeperService
	broadcaster domain.LotBroadcaster
	log         logger.Logger
}

func NewEventListener(keeper *KeeperService, broadcaster domain.LotBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		keeper:      keeper,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.handleBidEvent)
}

func (el *EventListener) handleBidEvent(ctx context.Context, event *domain.BidEvent) error {
	el.log.Info("Handling bid event", "type", event.Type, "lot_id", event.LotID, "bidder", event.Bidder)

	switch event.Type {
	case domain.BidAccepted:
		return el.handleBidAccepted(ctx, event)
	case domain.BidRejected:
		return el.handleBidRejected(ctx, event)
	}

	return fmt.Errorf("unknown event type %+v", *event)
}

func (el *EventListener) handleBidAccepted(ctx context.Context, event *domain.BidEvent) error {
	// Keep lot watchers informed regardless of who bid
	if err := el.broadcaster.BroadcastToLot(ctx, event.LotID, map[string]interface{}{
		"type":        "bid_update",
		"current_bid": event.Amount,
		"bidder":      event.Bidder,
		"timestamp":   event.Timestamp,
	}); err != nil {
		el.log.Error("Failed to broadcast bid update", "lot_id", event.LotID, "error", err)
	}

	if event.Bidder == el.keeper.TraderAddress() {
		return nil
	}
	if !el.keeper.Status(ctx).Leader {
		return nil
	}

	// Outbid by someone else, respond without waiting for the next sweep
	if _, err := el.keeper.EvaluateLotByID(ctx, event.LotID); err != nil {
		el.log.Error("Failed to re-evaluate lot after competing bid", "lot_id", event.LotID, "error", err)
		return err
	}
	return nil
}

func (el *EventListener) handleBidRejected(ctx context.Context, event *domain.BidEvent) error {
	if event.Bidder == el.keeper.TraderAddress() {
		el.log.Warn("Own bid rejected, snapshot was stale", "lot_id", event.LotID, "amount", event.Amount)
	}
	return nil
}
