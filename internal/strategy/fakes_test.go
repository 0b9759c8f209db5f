package strategy

import (
	"context"

	"auction-keeper/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeToken struct {
	name       string
	balances   map[string]domain.Amount
	allowances map[string]domain.Amount
	approveOK  bool

	approveCalls []domain.Amount
}

func newFakeToken(name string) *fakeToken {
	return &fakeToken{
		name:       name,
		balances:   make(map[string]domain.Amount),
		allowances: make(map[string]domain.Amount),
		approveOK:  true,
	}
}

func (t *fakeToken) Name() string { return t.name }

func (t *fakeToken) BalanceOf(ctx context.Context, address string) (domain.Amount, error) {
	return t.balances[address], nil
}

func (t *fakeToken) AllowanceOf(ctx context.Context, owner, spender string) (domain.Amount, error) {
	return t.allowances[owner+":"+spender], nil
}

func (t *fakeToken) Approve(ctx context.Context, spender string, amount domain.Amount) (bool, error) {
	t.approveCalls = append(t.approveCalls, amount)
	return t.approveOK, nil
}

type submittedBid struct {
	amount   domain.Amount
	quantity domain.Amount
	partial  bool
}

type fakeLot struct {
	id         string
	auction    *domain.Auction
	buyAmount  domain.Amount
	sellAmount domain.Amount
	canSplit   bool
	accept     bool

	bids []submittedBid
}

func (l *fakeLot) ID() string               { return l.id }
func (l *fakeLot) Auction() *domain.Auction { return l.auction }
func (l *fakeLot) BuyAmount() domain.Amount { return l.buyAmount }
func (l *fakeLot) SellAmount() domain.Amount {
	return l.sellAmount
}
func (l *fakeLot) CanSplit() bool { return l.canSplit }

func (l *fakeLot) Bid(ctx context.Context, amount domain.Amount) (bool, error) {
	l.bids = append(l.bids, submittedBid{amount: amount})
	return l.accept, nil
}

func (l *fakeLot) BidPartial(ctx context.Context, amount, quantity domain.Amount) (bool, error) {
	l.bids = append(l.bids, submittedBid{amount: amount, quantity: quantity, partial: true})
	return l.accept, nil
}

// testLot builds the lot from the worked examples: current bid 100, 10 units
// on offer, 1% minimum increase.
func testLot(buying, selling *fakeToken) *fakeLot {
	return &fakeLot{
		id: "lot-1",
		auction: &domain.Auction{
			ID:          "auction-1",
			Selling:     selling,
			Buying:      buying,
			MinIncrease: decimal.RequireFromString("0.01"),
		},
		buyAmount:  domain.AmountFromInt(100),
		sellAmount: domain.AmountFromInt(10),
		canSplit:   false,
		accept:     true,
	}
}
