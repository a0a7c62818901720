package models

import "time"

// Side values recognised by the flow features. Matching is case-sensitive.
const (
	SideBuy  = "Buy"
	SideSell = "Sell"
)

// Trade is one executed transaction.
type Trade struct {
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Side      string    `json:"side"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Liquidation is one forced position closure.
type Liquidation struct {
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Side      string    `json:"side"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// FundingRate is the periodic long/short payment rate of a perpetual contract.
type FundingRate struct {
	FundingRate float64   `json:"funding_rate"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// OpenInterest is the outstanding notional at a point in time.
type OpenInterest struct {
	OpenInterest float64   `json:"open_interest"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
}

// MarketSnapshot aggregates every source observed during one synchronization
// period. Each field is independently optional since the sources arrive
// asynchronously.
type MarketSnapshot struct {
	Symbol       string        `json:"symbol,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	Orderbook    *Orderbook    `json:"orderbook,omitempty"`
	Trades       []Trade       `json:"trades,omitempty"`
	Liquidations []Liquidation `json:"liquidations,omitempty"`
	FundingRate  *FundingRate  `json:"funding_rate,omitempty"`
	OpenInterest *OpenInterest `json:"open_interest,omitempty"`
}
