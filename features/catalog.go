package features

var (
	_ OrderbookFeature    = SpreadFeature{}
	_ OrderbookFeature    = MidpriceFeature{}
	_ OrderbookFeature    = WeightedMidpriceFeature{}
	_ OrderbookFeature    = MicropriceFeature{}
	_ OrderbookFeature    = VWAPFeature{}
	_ OrderbookFeature    = TAVFeature{}
	_ OrderbookFeature    = ImbalanceFeature{}
	_ TradeFeature        = TradeIntensityFeature{}
	_ TradeFeature        = TradeDirectionImbalanceFeature{}
	_ LiquidationFeature  = LiquidationPressureFeature{}
	_ LiquidationFeature  = LiquidationImbalanceFeature{}
	_ FundingFeature      = FundingRateFeature{}
	_ OpenInterestFeature = OIChangeFeature{}
	_ SnapshotFeature     = PriceImpactFeature{}
	_ SnapshotFeature     = TradeFlowToxicityFeature{}
)

// FeatureCount is the width of every row produced by ComputeAllFeatures.
const FeatureCount = 15

// AllFeatureNames is the canonical column order of ComputeAllFeatures.
// Consumers index rows by position, so this order must never change.
var AllFeatureNames = [FeatureCount]string{
	"spread",
	"midprice",
	"w_midprice",
	"microprice",
	"vwap",
	"tav",
	"imb",
	"trade_intensity",
	"trade_direction_imbalance",
	"liquidation_pressure",
	"liquidation_imbalance",
	"funding_rate",
	"oi_change",
	"price_impact",
	"trade_flow_toxicity",
}

// ColumnNames returns a copy of AllFeatureNames as a slice.
func ColumnNames() []string {
	names := make([]string, FeatureCount)
	copy(names, AllFeatureNames[:])
	return names
}

// ColumnIndex returns the position of name in AllFeatureNames.
func ColumnIndex(name string) (int, bool) {
	for i, n := range AllFeatureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// OrderbookFeatureNames lists the order-book features in column order.
func OrderbookFeatureNames() []string {
	var names []string
	for _, n := range AllFeatureNames {
		if _, err := OrderbookFeatureByName(n); err == nil {
			names = append(names, n)
		}
	}
	return names
}

// OrderbookFeatureByName resolves one of the order-book features.
func OrderbookFeatureByName(name string) (OrderbookFeature, error) {
	switch name {
	case "spread":
		return SpreadFeature{}, nil
	case "midprice":
		return MidpriceFeature{}, nil
	case "w_midprice":
		return WeightedMidpriceFeature{}, nil
	case "microprice":
		return MicropriceFeature{}, nil
	case "vwap":
		return VWAPFeature{}, nil
	case "tav":
		return TAVFeature{}, nil
	case "imb":
		return ImbalanceFeature{}, nil
	default:
		return nil, &FeatureNotFoundError{Name: name}
	}
}

func orderbookDescriptors() []Descriptor {
	return []Descriptor{
		SpreadFeature{}, MidpriceFeature{}, WeightedMidpriceFeature{}, MicropriceFeature{},
		VWAPFeature{}, ImbalanceFeature{}, TAVFeature{},
	}
}

func tradeDescriptors() []Descriptor {
	return []Descriptor{TradeIntensityFeature{}, TradeDirectionImbalanceFeature{}}
}

func liquidationDescriptors() []Descriptor {
	return []Descriptor{LiquidationPressureFeature{}, LiquidationImbalanceFeature{}}
}

func marketDescriptors() []Descriptor {
	return []Descriptor{
		FundingRateFeature{}, OIChangeFeature{},
		PriceImpactFeature{}, TradeFlowToxicityFeature{},
	}
}
