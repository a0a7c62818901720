package features

import "featureflow/models"

// bestLevels returns the top of both sides or ErrEmptyOrderbook.
func bestLevels(ob *models.Orderbook) (bid, ask models.OrderbookLevel, err error) {
	if ob.IsEmpty() {
		return bid, ask, ErrEmptyOrderbook
	}
	return ob.Bids[0], ob.Asks[0], nil
}

// SpreadFeature is the bid-ask spread at the top of the book.
type SpreadFeature struct{}

func (SpreadFeature) Name() string           { return "spread" }
func (SpreadFeature) Description() string    { return "Bid-ask spread (ask_price - bid_price)" }
func (SpreadFeature) Category() Category     { return CategorySpread }
func (SpreadFeature) Dependencies() []string { return nil }
func (SpreadFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (SpreadFeature) Compute(ob *models.Orderbook, _ OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	return truncate(ask.Price - bid.Price), nil
}

// MidpriceFeature is the arithmetic mean of best bid and best ask.
type MidpriceFeature struct{}

func (MidpriceFeature) Name() string           { return "midprice" }
func (MidpriceFeature) Description() string    { return "Mid price: (best_bid + best_ask) / 2" }
func (MidpriceFeature) Category() Category     { return CategoryPrice }
func (MidpriceFeature) Dependencies() []string { return nil }
func (MidpriceFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (MidpriceFeature) Compute(ob *models.Orderbook, _ OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	return truncate((ask.Price + bid.Price) / 2), nil
}

// WeightedMidpriceFeature weights each best price by its own size.
type WeightedMidpriceFeature struct{}

func (WeightedMidpriceFeature) Name() string           { return "w_midprice" }
func (WeightedMidpriceFeature) Description() string    { return "Volume-weighted mid price at best levels" }
func (WeightedMidpriceFeature) Category() Category     { return CategoryPrice }
func (WeightedMidpriceFeature) Dependencies() []string { return nil }
func (WeightedMidpriceFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (WeightedMidpriceFeature) Compute(ob *models.Orderbook, _ OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	total := ask.Volume + bid.Volume
	if total == 0 {
		return 0, ErrZeroVolume
	}
	return truncate((bid.Price*bid.Volume + ask.Price*ask.Volume) / total), nil
}

// MicropriceFeature weights each best price by the opposite side's size,
// pulling the estimate toward the thinner side.
type MicropriceFeature struct{}

func (MicropriceFeature) Name() string           { return "microprice" }
func (MicropriceFeature) Description() string    { return "Microprice: size-imbalance-weighted fair value" }
func (MicropriceFeature) Category() Category     { return CategoryPrice }
func (MicropriceFeature) Dependencies() []string { return nil }
func (MicropriceFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (MicropriceFeature) Compute(ob *models.Orderbook, _ OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	total := bid.Volume + ask.Volume
	if total == 0 {
		return 0, ErrZeroVolume
	}
	return truncate(bid.Price*(ask.Volume/total) + ask.Price*(bid.Volume/total)), nil
}

// ImbalanceFeature is the ask share of best-level volume, in [0, 1].
type ImbalanceFeature struct{}

func (ImbalanceFeature) Name() string { return "imb" }
func (ImbalanceFeature) Description() string {
	return "Order imbalance: ask_volume / (ask_volume + bid_volume)"
}
func (ImbalanceFeature) Category() Category     { return CategoryImbalance }
func (ImbalanceFeature) Dependencies() []string { return nil }
func (ImbalanceFeature) DefaultConfig() OrderbookConfig {
	return DefaultOrderbookConfig()
}

func (ImbalanceFeature) Compute(ob *models.Orderbook, _ OrderbookConfig) (float64, error) {
	bid, ask, err := bestLevels(ob)
	if err != nil {
		return 0, err
	}
	total := ask.Volume + bid.Volume
	if total == 0 {
		return 0, ErrZeroVolume
	}
	return truncate(ask.Volume / total), nil
}
