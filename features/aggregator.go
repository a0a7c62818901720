package features

import (
	"sort"
	"sync"

	"featureflow/logger"
	"featureflow/models"

	"github.com/sirupsen/logrus"
)

// Aggregator computes the canonical 15-column row for each market snapshot.
// Any feature failure is logged at debug level, counted, and replaced by 0.
// Compute may be called from several goroutines; each call is one stream.
type Aggregator struct {
	cfg MarketConfig
	log *logger.Log

	mu       sync.Mutex
	degraded map[string]int64
	rows     int64
}

func NewAggregator(cfg MarketConfig) *Aggregator {
	return &Aggregator{
		cfg:      cfg,
		log:      logger.GetLogger(),
		degraded: make(map[string]int64),
	}
}

// ComputeAllFeatures returns one row per snapshot in AllFeatureNames order.
// It never fails: missing sources and failing features yield 0.
func ComputeAllFeatures(snapshots []models.MarketSnapshot, cfg MarketConfig) [][]float64 {
	return NewAggregator(cfg).Compute(snapshots)
}

var (
	orderbookColumns = [...]OrderbookFeature{
		SpreadFeature{},
		MidpriceFeature{},
		WeightedMidpriceFeature{},
		MicropriceFeature{},
		VWAPFeature{},
		TAVFeature{},
		ImbalanceFeature{},
	}
	tradeColumns       = [...]TradeFeature{TradeIntensityFeature{}, TradeDirectionImbalanceFeature{}}
	liquidationColumns = [...]LiquidationFeature{LiquidationPressureFeature{}, LiquidationImbalanceFeature{}}
	fundingColumn      FundingFeature      = FundingRateFeature{}
	oiColumn           OpenInterestFeature = OIChangeFeature{}
	snapshotColumns    = [...]SnapshotFeature{PriceImpactFeature{}, TradeFlowToxicityFeature{}}
)

// Compute aggregates one stream. The previous open interest carried between
// snapshots starts at the first observed value, so the first change is 0.
func (a *Aggregator) Compute(snapshots []models.MarketSnapshot) [][]float64 {
	obCfg := a.cfg.OrderbookConfig()
	var prevOI *float64

	matrix := make([][]float64, 0, len(snapshots))
	for i := range snapshots {
		snap := &snapshots[i]
		row := make([]float64, 0, FeatureCount)

		if snap.Orderbook != nil {
			for _, f := range orderbookColumns {
				v, err := f.Compute(snap.Orderbook, obCfg)
				row = append(row, a.lenient(i, f, v, err))
			}
		} else {
			row = append(row, make([]float64, len(orderbookColumns))...)
		}

		for _, f := range tradeColumns {
			v, err := f.Compute(snap.Trades, a.cfg)
			row = append(row, a.lenient(i, f, v, err))
		}

		for _, f := range liquidationColumns {
			v, err := f.Compute(snap.Liquidations, a.cfg)
			row = append(row, a.lenient(i, f, v, err))
		}

		if snap.FundingRate != nil {
			v, err := fundingColumn.Compute(*snap.FundingRate, a.cfg)
			row = append(row, a.lenient(i, fundingColumn, v, err))
		} else {
			row = append(row, 0)
		}

		if snap.OpenInterest != nil {
			curr := snap.OpenInterest.OpenInterest
			prev := curr
			if prevOI != nil {
				prev = *prevOI
			}
			v, err := oiColumn.Compute(OIPair{Prev: prev, Curr: curr}, a.cfg)
			row = append(row, a.lenient(i, oiColumn, v, err))
			prevOI = &curr
		} else {
			row = append(row, 0)
		}

		for _, f := range snapshotColumns {
			v, err := f.Compute(snap, a.cfg)
			row = append(row, a.lenient(i, f, v, err))
		}

		matrix = append(matrix, row)
	}

	a.mu.Lock()
	a.rows += int64(len(matrix))
	a.mu.Unlock()
	return matrix
}

func (a *Aggregator) lenient(index int, d Descriptor, v float64, err error) float64 {
	if err == nil {
		return v
	}
	a.mu.Lock()
	a.degraded[d.Name()]++
	a.mu.Unlock()

	if !a.log.IsLevelEnabled(logrus.DebugLevel) {
		return 0
	}
	a.log.WithComponent("aggregator").WithError(err).WithFields(logger.Fields{
		"feature":  d.Name(),
		"snapshot": index,
	}).Debug("feature degraded to 0")
	return 0
}

// Degraded returns, per feature name, how many values were replaced by 0
// because the feature failed. A missing order book, funding rate or open
// interest fills its own columns with 0 uncounted, but price_impact reads the
// book through the snapshot and counts a degradation when it is absent.
func (a *Aggregator) Degraded() map[string]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int64, len(a.degraded))
	for k, v := range a.degraded {
		out[k] = v
	}
	return out
}

// DegradedTotal sums Degraded over all features.
func (a *Aggregator) DegradedTotal() int64 {
	var total int64
	for _, v := range a.Degraded() {
		total += v
	}
	return total
}

// DegradedFeatures lists the names with at least one degradation, sorted.
func (a *Aggregator) DegradedFeatures() []string {
	counts := a.Degraded()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rows returns how many rows this aggregator has produced.
func (a *Aggregator) Rows() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rows
}
