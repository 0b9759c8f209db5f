package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type fakeLot struct {
	id string
}

func (l *fakeLot) ID() string               { return l.id }
func (l *fakeLot) Auction() *domain.Auction { return &domain.Auction{ID: "auction-1"} }
func (l *fakeLot) BuyAmount() domain.Amount { return domain.AmountFromInt(100) }
func (l *fakeLot) SellAmount() domain.Amount {
	return domain.AmountFromInt(10)
}
func (l *fakeLot) CanSplit() bool { return false }
func (l *fakeLot) Bid(ctx context.Context, amount domain.Amount) (bool, error) {
	return true, nil
}
func (l *fakeLot) BidPartial(ctx context.Context, amount, quantity domain.Amount) (bool, error) {
	return true, nil
}

type fakeStrategy struct {
	outcomes []*domain.Outcome
	err      error
	calls    []string
	lastCtx  context.Context
}

func (s *fakeStrategy) Perform(ctx context.Context, lot domain.Auctionlet,
	tctx domain.TradingContext) (*domain.Outcome, error) {
	s.calls = append(s.calls, lot.ID())
	s.lastCtx = ctx
	if s.err != nil {
		return nil, s.err
	}
	out := &domain.Outcome{
		ID:        "outcome-1",
		Kind:      domain.OutcomeBidPlaced,
		LotID:     lot.ID(),
		Timestamp: time.Now(),
	}
	s.outcomes = append(s.outcomes, out)
	return out, nil
}

type fakeHouse struct {
	lots []domain.Auctionlet
}

func (h *fakeHouse) ActiveLots(ctx context.Context) ([]domain.Auctionlet, error) {
	return h.lots, nil
}

func (h *fakeHouse) Lot(ctx context.Context, lotID string) (domain.Auctionlet, error) {
	for _, lot := range h.lots {
		if lot.ID() == lotID {
			return lot, nil
		}
	}
	return nil, errors.New("lot not found")
}

type fakeOutcomeRepo struct {
	saved []*domain.Outcome
	err   error
}

func (r *fakeOutcomeRepo) SaveOutcome(ctx context.Context, outcome *domain.Outcome) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, outcome)
	return nil
}

func (r *fakeOutcomeRepo) GetOutcomeHistory(ctx context.Context, lotID string) ([]*domain.Outcome, error) {
	return r.saved, nil
}

func (r *fakeOutcomeRepo) GetRecentOutcomes(ctx context.Context, limit int) ([]*domain.Outcome, error) {
	return r.saved, nil
}

type fakePublisher struct {
	published []*domain.Outcome
}

func (p *fakePublisher) PublishOutcome(ctx context.Context, outcome *domain.Outcome) error {
	p.published = append(p.published, outcome)
	return nil
}

type fakeBroadcaster struct {
	messages map[string][]interface{}
}

func (b *fakeBroadcaster) BroadcastToLot(ctx context.Context, lotID string, message interface{}) error {
	if b.messages == nil {
		b.messages = make(map[string][]interface{})
	}
	b.messages[lotID] = append(b.messages[lotID], message)
	return nil
}

type fakeLeader struct {
	leader bool
}

func (l *fakeLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *fakeLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *fakeLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	l.leader = false
	return nil
}

type keeperFixture struct {
	keeper      *KeeperService
	strategy    *fakeStrategy
	house       *fakeHouse
	outcomeRepo *fakeOutcomeRepo
	publisher   *fakePublisher
	broadcaster *fakeBroadcaster
	leader      *fakeLeader
}

func newKeeperFixture(lots ...domain.Auctionlet) *keeperFixture {
	f := &keeperFixture{
		strategy:    &fakeStrategy{},
		house:       &fakeHouse{lots: lots},
		outcomeRepo: &fakeOutcomeRepo{},
		publisher:   &fakePublisher{},
		broadcaster: &fakeBroadcaster{},
		leader:      &fakeLeader{leader: true},
	}
	f.keeper = NewKeeperService(
		f.strategy,
		f.house,
		f.outcomeRepo,
		f.publisher,
		f.broadcaster,
		f.leader,
		domain.TradingContext{TraderAddress: "0xkeeper", AuctionManagerAddress: "0xmanager"},
		"keeper-test-1",
		logger.New(),
	)
	return f
}

func TestEvaluateLotRecordsOutcome(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})

	outcome, err := f.keeper.EvaluateLot(context.Background(), f.house.lots[0])
	assert.NoError(t, err)
	assert.NotNil(t, outcome)

	check.Equal(t, 1, len(f.outcomeRepo.saved))
	check.Equal(t, 1, len(f.publisher.published))
	check.Equal(t, 1, len(f.broadcaster.messages["lot-1"]))
	check.Equal(t, "lot-1", f.outcomeRepo.saved[0].LotID)
}

func TestEvaluateLotSaveFailureDoesNotMaskOutcome(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	f.outcomeRepo.err = errors.New("mysql down")

	outcome, err := f.keeper.EvaluateLot(context.Background(), f.house.lots[0])
	assert.NoError(t, err)
	assert.NotNil(t, outcome)

	// Decision still published and broadcast
	check.Equal(t, 1, len(f.publisher.published))
	check.Equal(t, 1, len(f.broadcaster.messages["lot-1"]))
}

func TestEvaluateLotStrategyError(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	f.strategy.err = errors.New("ledger unavailable")

	outcome, err := f.keeper.EvaluateLot(context.Background(), f.house.lots[0])
	check.True(t, err != nil)
	check.True(t, outcome == nil)
	check.Equal(t, 0, len(f.outcomeRepo.saved))
	check.Equal(t, 0, len(f.publisher.published))
}

func TestRunOnceSweepsAllLots(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"}, &fakeLot{id: "lot-2"}, &fakeLot{id: "lot-3"})

	err := f.keeper.RunOnce(context.Background())
	assert.NoError(t, err)

	check.Equal(t, []string{"lot-1", "lot-2", "lot-3"}, f.strategy.calls)
	check.Equal(t, 3, len(f.outcomeRepo.saved))

	status := f.keeper.Status(context.Background())
	check.Equal(t, 3, status.OpenLots)
	check.True(t, status.Leader)
	check.True(t, !status.LastSweep.IsZero())
}

func TestRunOnceSkipsWhenNotLeader(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	f.leader.leader = false

	err := f.keeper.RunOnce(context.Background())
	assert.NoError(t, err)

	check.Equal(t, 0, len(f.strategy.calls))
	check.Equal(t, 0, len(f.outcomeRepo.saved))
}

func TestRunOnceContinuesPastFailingLot(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"}, &fakeLot{id: "lot-2"})
	// First call fails, second succeeds
	failOnce := &failingOnceStrategy{inner: f.strategy}
	f.keeper.strategy = failOnce

	err := f.keeper.RunOnce(context.Background())
	assert.NoError(t, err)
	check.Equal(t, 2, failOnce.calls)
	check.Equal(t, 1, len(f.outcomeRepo.saved))
}

type failingOnceStrategy struct {
	inner *fakeStrategy
	calls int
}

func (s *failingOnceStrategy) Perform(ctx context.Context, lot domain.Auctionlet,
	tctx domain.TradingContext) (*domain.Outcome, error) {
	s.calls++
	if s.calls == 1 {
		return nil, errors.New("transient failure")
	}
	return s.inner.Perform(ctx, lot, tctx)
}

func TestEventListenerReEvaluatesOnCompetingBid(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	err := listener.handleBidEvent(context.Background(), &domain.BidEvent{
		Type:      domain.BidAccepted,
		LotID:     "lot-1",
		Bidder:    "0xrival",
		Amount:    domain.AmountFromInt(110),
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)

	check.Equal(t, []string{"lot-1"}, f.strategy.calls)
	// One bid_update broadcast plus one outcome broadcast
	check.Equal(t, 2, len(f.broadcaster.messages["lot-1"]))
}

// The subscriber's context must reach the strategy, so re-evaluations in
// flight observe shutdown cancellation.
func TestEventListenerPropagatesContext(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "listener")

	err := listener.handleBidEvent(ctx, &domain.BidEvent{
		Type:      domain.BidAccepted,
		LotID:     "lot-1",
		Bidder:    "0xrival",
		Amount:    domain.AmountFromInt(110),
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
	assert.NotNil(t, f.strategy.lastCtx)
	val, _ := f.strategy.lastCtx.Value(ctxKey{}).(string)
	check.Equal(t, "listener", val)
}

func TestEventListenerIgnoresOwnBid(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	err := listener.handleBidEvent(context.Background(), &domain.BidEvent{
		Type:      domain.BidAccepted,
		LotID:     "lot-1",
		Bidder:    "0xkeeper",
		Amount:    domain.AmountFromInt(110),
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)

	check.Equal(t, 0, len(f.strategy.calls))
	// Watchers are still told about the bid
	check.Equal(t, 1, len(f.broadcaster.messages["lot-1"]))
}

func TestEventListenerIgnoresCompetingBidWhenNotLeader(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	f.leader.leader = false
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	err := listener.handleBidEvent(context.Background(), &domain.BidEvent{
		Type:      domain.BidAccepted,
		LotID:     "lot-1",
		Bidder:    "0xrival",
		Amount:    domain.AmountFromInt(110),
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
	check.Equal(t, 0, len(f.strategy.calls))
}

func TestEventListenerRejectedBidIsQuiet(t *testing.T) {
	f := newKeeperFixture(&fakeLot{id: "lot-1"})
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	err := listener.handleBidEvent(context.Background(), &domain.BidEvent{
		Type:      domain.BidRejected,
		LotID:     "lot-1",
		Bidder:    "0xkeeper",
		Amount:    domain.AmountFromInt(110),
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
	check.Equal(t, 0, len(f.strategy.calls))
	check.Equal(t, 0, len(f.broadcaster.messages["lot-1"]))
}

func TestEventListenerUnknownEventType(t *testing.T) {
	f := newKeeperFixture()
	listener := NewEventListener(f.keeper, f.broadcaster, logger.New())

	err := listener.handleBidEvent(context.Background(), &domain.BidEvent{Type: "auction_imploded", LotID: "lot-1"})
	check.True(t, err != nil)
}
