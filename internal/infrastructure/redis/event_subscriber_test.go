package redis

import (
	"testing"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestParseEventData(t *testing.T) {
	sub := NewRedisEventSubscriber(nil, logger.New())

	tests := []struct {
		name    string
		payload string
		want    domain.BidEvent
		wantErr bool
	}{
		{
			name:    "plain lot id",
			payload: "lot-1:bid_accepted:0xrival:150.5:1700000000",
			want: domain.BidEvent{
				LotID:  "lot-1",
				Type:   domain.BidAccepted,
				Bidder: "0xrival",
				Amount: domain.MustAmount("150.5"),
			},
		},
		{
			name:    "namespaced lot id",
			payload: "auctions:eth:lot-1:bid_rejected:0xkeeper:101:1700000000",
			want: domain.BidEvent{
				LotID:  "auctions:eth:lot-1",
				Type:   domain.BidRejected,
				Bidder: "0xkeeper",
				Amount: domain.AmountFromInt(101),
			},
		},
		{
			name:    "too few fields",
			payload: "lot-1:bid_accepted:0xrival:150.5",
			wantErr: true,
		},
		{
			name:    "bad amount",
			payload: "lot-1:bid_accepted:0xrival:not-a-number:1700000000",
			wantErr: true,
		},
		{
			name:    "bad timestamp",
			payload: "lot-1:bid_accepted:0xrival:150.5:not-a-timestamp",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := sub.parseEventData(tt.payload)
			if tt.wantErr {
				check.True(t, err != nil)
				return
			}
			assert.NoError(t, err)

			check.Equal(t, tt.want.LotID, event.LotID)
			check.Equal(t, tt.want.Type, event.Type)
			check.Equal(t, tt.want.Bidder, event.Bidder)
			check.True(t, event.Amount.Equal(tt.want.Amount))
			check.Equal(t, int64(1700000000), event.Timestamp.Unix())
		})
	}
}
