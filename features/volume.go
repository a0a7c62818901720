package features

import (
	"gonum.org/v1/gonum/floats"

	"featureflow/models"
)

// VWAPFeature averages the prices of the best Depth levels on each side,
// weighted by their volume.
type VWAPFeature struct{}

func (VWAPFeature) Name() string           { return "vwap" }
func (VWAPFeature) Description() string    { return "Volume-Weighted Average Price up to specified depth" }
func (VWAPFeature) Category() Category     { return CategoryVolume }
func (VWAPFeature) Dependencies() []string { return nil }
func (VWAPFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (VWAPFeature) Compute(ob *models.Orderbook, cfg OrderbookConfig) (float64, error) {
	if ob.IsEmpty() {
		return 0, ErrEmptyOrderbook
	}
	depth := cfg.Depth
	if depth > len(ob.Bids) || depth > len(ob.Asks) {
		return 0, &InsufficientDepthError{
			Requested: depth,
			Available: min(len(ob.Bids), len(ob.Asks)),
		}
	}
	if depth < 0 {
		depth = 0
	}

	prices := make([]float64, 0, 2*depth)
	volumes := make([]float64, 0, 2*depth)
	for _, side := range [][]models.OrderbookLevel{ob.Bids[:depth], ob.Asks[:depth]} {
		for _, lvl := range side {
			prices = append(prices, lvl.Price)
			volumes = append(volumes, lvl.Volume)
		}
	}

	sumV := floats.Sum(volumes)
	if sumV <= 0 {
		return 0, ErrZeroVolume
	}
	return truncate(floats.Dot(prices, volumes) / sumV), nil
}

// TAVFeature sums the resting volume within Bps of the best price on each side.
type TAVFeature struct{}

func (TAVFeature) Name() string           { return "tav" }
func (TAVFeature) Description() string    { return "Total Available Volume within X bps of the best prices" }
func (TAVFeature) Category() Category     { return CategoryVolume }
func (TAVFeature) Dependencies() []string { return nil }
func (TAVFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (TAVFeature) Compute(ob *models.Orderbook, cfg OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	lowerBid := bid.Price * (1 - cfg.Bps)
	upperAsk := ask.Price * (1 + cfg.Bps)

	var bidVolume, askVolume float64
	for _, lvl := range ob.Bids {
		if lvl.Price >= lowerBid {
			bidVolume += lvl.Volume
		}
	}
	for _, lvl := range ob.Asks {
		if lvl.Price <= upperAsk {
			askVolume += lvl.Volume
		}
	}
	return truncate(bidVolume + askVolume), nil
}
