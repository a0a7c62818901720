package features

import (
	"math"
	"testing"
	"time"

	"featureflow/models"
)

const tolerance = 1e-9

var ts = time.UnixMilli(1700000000000).UTC()

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("%s: got %.10f, want %.10f", name, got, want)
	}
}

// sampleBook has bids 100x2, 99x3, 98x1 and asks 101x1, 102x2, 103x4.
func sampleBook() *models.Orderbook {
	return &models.Orderbook{
		Exchange:  "binance",
		Symbol:    "BTCUSDT",
		Timestamp: ts,
		Bids: []models.OrderbookLevel{
			{Price: 100, Volume: 2},
			{Price: 99, Volume: 3},
			{Price: 98, Volume: 1},
		},
		Asks: []models.OrderbookLevel{
			{Price: 101, Volume: 1},
			{Price: 102, Volume: 2},
			{Price: 103, Volume: 4},
		},
	}
}

// sampleTrades average 100 against a mid of 100.5 with 2 bought and 1 sold.
func sampleTrades() []models.Trade {
	return []models.Trade{
		{Price: 100, Amount: 2, Side: models.SideBuy, Timestamp: ts},
		{Price: 100, Amount: 1, Side: models.SideSell, Timestamp: ts.Add(time.Second)},
	}
}

func fullSnapshot() models.MarketSnapshot {
	return models.MarketSnapshot{
		Symbol:    "BTCUSDT",
		Timestamp: ts,
		Orderbook: sampleBook(),
		Trades:    sampleTrades(),
		Liquidations: []models.Liquidation{
			{Price: 100, Amount: 3, Side: models.SideBuy, Timestamp: ts},
			{Price: 100, Amount: 1, Side: models.SideSell, Timestamp: ts.Add(time.Second)},
		},
		FundingRate:  &models.FundingRate{FundingRate: 0.0001, Timestamp: ts},
		OpenInterest: &models.OpenInterest{OpenInterest: 1000, Timestamp: ts},
	}
}
