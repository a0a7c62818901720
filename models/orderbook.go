package models

import (
	"time"
)

// OrderbookLevel represents a single resting price level in the orderbook
type OrderbookLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// Orderbook represents one venue's resting liquidity at a point in time.
// Bids are ordered best-first (descending price), asks best-first (ascending price).
type Orderbook struct {
	Exchange     string           `json:"exchange,omitempty"`
	Symbol       string           `json:"symbol,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
	LastUpdateID int64            `json:"last_update_id,omitempty"`
	Bids         []OrderbookLevel `json:"bids"`
	Asks         []OrderbookLevel `json:"asks"`
}

// BestBid returns the top of the bid side.
func (ob *Orderbook) BestBid() (OrderbookLevel, bool) {
	if ob == nil || len(ob.Bids) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top of the ask side.
func (ob *Orderbook) BestAsk() (OrderbookLevel, bool) {
	if ob == nil || len(ob.Asks) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Asks[0], true
}

// IsEmpty reports whether either side has no levels.
func (ob *Orderbook) IsEmpty() bool {
	return ob == nil || len(ob.Bids) == 0 || len(ob.Asks) == 0
}
