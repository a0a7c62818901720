package features

import (
	"gonum.org/v1/gonum/stat"

	"featureflow/models"
)

// PriceImpactFeature is the mean deviation of trade prices from the
// midprice. Positive values mean trades printed above mid.
type PriceImpactFeature struct{}

func (PriceImpactFeature) Name() string                { return "price_impact" }
func (PriceImpactFeature) Description() string         { return "Mean trade price deviation from midprice" }
func (PriceImpactFeature) Category() Category          { return CategoryLiquidity }
func (PriceImpactFeature) Dependencies() []string      { return nil }
func (PriceImpactFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (PriceImpactFeature) Compute(snap *models.MarketSnapshot, _ MarketConfig) (float64, error) {
	if snap == nil {
		return 0, ErrEmptyOrderbook
	}
	bid, ask, err := bestLevels(snap.Orderbook)
	if err != nil {
		return 0, err
	}
	if len(snap.Trades) == 0 {
		return 0, nil
	}

	mid := (bid.Price + ask.Price) / 2
	deviations := make([]float64, len(snap.Trades))
	for i, t := range snap.Trades {
		deviations[i] = t.Price - mid
	}
	return truncate(stat.Mean(deviations, nil)), nil
}
