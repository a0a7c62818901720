package features

import (
	"math"

	"featureflow/models"
)

// addSideVolume accumulates amount into buy or sell. Side text other than
// exactly "Buy" or "Sell" is counted on neither side, which also keeps it
// out of the imbalance denominator.
func addSideVolume(side string, amount float64, buy, sell *float64) {
	switch side {
	case models.SideBuy:
		*buy += amount
	case models.SideSell:
		*sell += amount
	}
}

func tradeSideVolumes(trades []models.Trade) (buy, sell float64) {
	for _, t := range trades {
		addSideVolume(t.Side, t.Amount, &buy, &sell)
	}
	return buy, sell
}

func signedImbalance(buy, sell float64) float64 {
	total := buy + sell
	if total == 0 {
		return 0
	}
	return truncate((buy - sell) / total)
}

// TradeIntensityFeature is the total traded amount in the period.
type TradeIntensityFeature struct{}

func (TradeIntensityFeature) Name() string { return "trade_intensity" }
func (TradeIntensityFeature) Description() string {
	return "Total trade volume (sum of amounts) in the period"
}
func (TradeIntensityFeature) Category() Category         { return CategoryFlow }
func (TradeIntensityFeature) Dependencies() []string     { return nil }
func (TradeIntensityFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (TradeIntensityFeature) Compute(trades []models.Trade, _ MarketConfig) (float64, error) {
	if len(trades) == 0 {
		return 0, nil
	}
	var total float64
	for _, t := range trades {
		total += t.Amount
	}
	return truncate(total), nil
}

// TradeDirectionImbalanceFeature is the net aggressor direction in [-1, 1].
type TradeDirectionImbalanceFeature struct{}

func (TradeDirectionImbalanceFeature) Name() string { return "trade_direction_imbalance" }
func (TradeDirectionImbalanceFeature) Description() string {
	return "Signed net aggressor imbalance: (buy_vol - sell_vol) / total_vol"
}
func (TradeDirectionImbalanceFeature) Category() Category         { return CategoryFlow }
func (TradeDirectionImbalanceFeature) Dependencies() []string     { return nil }
func (TradeDirectionImbalanceFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (TradeDirectionImbalanceFeature) Compute(trades []models.Trade, _ MarketConfig) (float64, error) {
	if len(trades) == 0 {
		return 0, nil
	}
	return signedImbalance(tradeSideVolumes(trades)), nil
}

// LiquidationPressureFeature is the liquidated notional in the period.
type LiquidationPressureFeature struct{}

func (LiquidationPressureFeature) Name() string { return "liquidation_pressure" }
func (LiquidationPressureFeature) Description() string {
	return "Total liquidation notional (price * amount) in the period"
}
func (LiquidationPressureFeature) Category() Category         { return CategoryFlow }
func (LiquidationPressureFeature) Dependencies() []string     { return nil }
func (LiquidationPressureFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (LiquidationPressureFeature) Compute(liqs []models.Liquidation, _ MarketConfig) (float64, error) {
	if len(liqs) == 0 {
		return 0, nil
	}
	var notional float64
	for _, l := range liqs {
		notional += l.Price * l.Amount
	}
	return truncate(notional), nil
}

// LiquidationImbalanceFeature is the directional skew of liquidations in
// [-1, 1]. Positive means more "Buy" side (short) liquidations.
type LiquidationImbalanceFeature struct{}

func (LiquidationImbalanceFeature) Name() string { return "liquidation_imbalance" }
func (LiquidationImbalanceFeature) Description() string {
	return "Liquidation direction imbalance: (buy - sell) / total"
}
func (LiquidationImbalanceFeature) Category() Category         { return CategoryImbalance }
func (LiquidationImbalanceFeature) Dependencies() []string     { return nil }
func (LiquidationImbalanceFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (LiquidationImbalanceFeature) Compute(liqs []models.Liquidation, _ MarketConfig) (float64, error) {
	if len(liqs) == 0 {
		return 0, nil
	}
	var buy, sell float64
	for _, l := range liqs {
		addSideVolume(l.Side, l.Amount, &buy, &sell)
	}
	return signedImbalance(buy, sell), nil
}

// FundingRateFeature reports the signed funding rate in basis points.
type FundingRateFeature struct{}

func (FundingRateFeature) Name() string                { return "funding_rate" }
func (FundingRateFeature) Description() string         { return "Signed funding rate in basis points (x10000)" }
func (FundingRateFeature) Category() Category          { return CategoryFlow }
func (FundingRateFeature) Dependencies() []string      { return nil }
func (FundingRateFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (FundingRateFeature) Compute(fr models.FundingRate, _ MarketConfig) (float64, error) {
	return fr.FundingRate * 10_000, nil
}

// OIChangeFeature is the percentage change between two open interest readings.
type OIChangeFeature struct{}

func (OIChangeFeature) Name() string { return "oi_change" }
func (OIChangeFeature) Description() string {
	return "Percentage change in open interest: (curr - prev) / prev * 100"
}
func (OIChangeFeature) Category() Category          { return CategoryVolume }
func (OIChangeFeature) Dependencies() []string      { return nil }
func (OIChangeFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (OIChangeFeature) Compute(pair OIPair, _ MarketConfig) (float64, error) {
	if pair.Prev == 0 {
		if pair.Curr == 0 {
			return 0, nil
		}
		return 0, &ComputationError{Message: "previous OI is zero, cannot compute percentage change"}
	}
	return (pair.Curr - pair.Prev) / pair.Prev * 100, nil
}

// TradeFlowToxicityFeature is a VPIN-style measure of one-sided flow in [0, 1].
type TradeFlowToxicityFeature struct{}

func (TradeFlowToxicityFeature) Name() string { return "trade_flow_toxicity" }
func (TradeFlowToxicityFeature) Description() string {
	return "VPIN-inspired toxicity: |buy_vol - sell_vol| / total_vol"
}
func (TradeFlowToxicityFeature) Category() Category         { return CategoryFlow }
func (TradeFlowToxicityFeature) Dependencies() []string     { return nil }
func (TradeFlowToxicityFeature) DefaultConfig() MarketConfig { return DefaultMarketConfig() }

func (TradeFlowToxicityFeature) Compute(snap *models.MarketSnapshot, _ MarketConfig) (float64, error) {
	if snap == nil || len(snap.Trades) == 0 {
		return 0, nil
	}
	buy, sell := tradeSideVolumes(snap.Trades)
	total := buy + sell
	if total == 0 {
		return 0, nil
	}
	return truncate(math.Abs(buy-sell) / total), nil
}
