// Package features computes scalar market-microstructure signals from order
// books, trades, liquidations, funding rates and open interest.
package features

import (
	"fmt"
	"math"
	"strings"

	"featureflow/models"
)

// Category groups features by what they measure.
type Category int

const (
	CategorySpread Category = iota
	CategoryPrice
	CategoryVolume
	CategoryLiquidity
	CategoryImbalance
	CategoryVolatility
	CategoryFlow
	CategoryTiming
)

var categoryNames = [...]string{
	CategorySpread:     "Spread",
	CategoryPrice:      "Price",
	CategoryVolume:     "Volume",
	CategoryLiquidity:  "Liquidity",
	CategoryImbalance:  "Imbalance",
	CategoryVolatility: "Volatility",
	CategoryFlow:       "Flow",
	CategoryTiming:     "Timing",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature category %q", s)
}

// Descriptor is the identity part of every feature.
type Descriptor interface {
	// Name is the stable identifier used for selection and column naming.
	Name() string
	Description() string
	Category() Category
	// Dependencies lists other feature names this one builds on. Declared
	// only; nothing resolves them yet.
	Dependencies() []string
}

// Feature computes one scalar from an input of type I under configuration C.
// Implementations are pure and hold no state, so a single value can be shared
// between goroutines.
type Feature[I any, C any] interface {
	Descriptor
	Compute(input I, cfg C) (float64, error)
	DefaultConfig() C
}

// OrderbookFeature computes over a single order book.
type OrderbookFeature interface {
	Feature[*models.Orderbook, OrderbookConfig]
}

// TradeFeature computes over the trades of one synchronization period.
type TradeFeature interface {
	Feature[[]models.Trade, MarketConfig]
}

// LiquidationFeature computes over the liquidations of one period.
type LiquidationFeature interface {
	Feature[[]models.Liquidation, MarketConfig]
}

// FundingFeature computes over a funding rate observation.
type FundingFeature interface {
	Feature[models.FundingRate, MarketConfig]
}

// OpenInterestFeature computes over a (previous, current) open interest pair.
type OpenInterestFeature interface {
	Feature[OIPair, MarketConfig]
}

// SnapshotFeature combines several sources of one market snapshot.
type SnapshotFeature interface {
	Feature[*models.MarketSnapshot, MarketConfig]
}

// OIPair carries two consecutive open interest readings.
type OIPair struct {
	Prev float64
	Curr float64
}

const (
	defaultDepth = 5
	defaultBps   = 0.001 // 10 bps
)

// OrderbookConfig parameterises the order-book features.
type OrderbookConfig struct {
	Depth int     `yaml:"depth"`
	Bps   float64 `yaml:"bps"`
}

// DefaultOrderbookConfig returns depth 5 and a 10 bps band.
func DefaultOrderbookConfig() OrderbookConfig {
	return OrderbookConfig{Depth: defaultDepth, Bps: defaultBps}
}

// Validate rejects configurations no order-book feature can use.
func (c OrderbookConfig) Validate() error {
	return validateDepthBps(c.Depth, c.Bps)
}

// MarketConfig parameterises the multi-source features. It has the same
// shape as OrderbookConfig but the two families evolve independently.
type MarketConfig struct {
	Depth int     `yaml:"depth"`
	Bps   float64 `yaml:"bps"`
}

// DefaultMarketConfig returns depth 5 and a 10 bps band.
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{Depth: defaultDepth, Bps: defaultBps}
}

// Validate rejects configurations no market feature can use.
func (c MarketConfig) Validate() error {
	return validateDepthBps(c.Depth, c.Bps)
}

// OrderbookConfig projects the market configuration onto the order-book family.
func (c MarketConfig) OrderbookConfig() OrderbookConfig {
	return OrderbookConfig{Depth: c.Depth, Bps: c.Bps}
}

func validateDepthBps(depth int, bps float64) error {
	if depth <= 0 {
		return &InvalidConfigError{Message: fmt.Sprintf("depth must be greater than 0, got %d", depth)}
	}
	if math.IsNaN(bps) || math.IsInf(bps, 0) || bps < 0 {
		return &InvalidConfigError{Message: fmt.Sprintf("bps must be a non-negative number, got %v", bps)}
	}
	return nil
}
