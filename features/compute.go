package features

import (
	"fmt"

	"featureflow/models"
)

// ComputeFeatures computes the named order-book features for every book.
// It fails on the first error; no partial matrix is returned.
func ComputeFeatures(obs []models.Orderbook, names []string, depth int, bps float64) ([][]float64, error) {
	return ComputeFeaturesWithConfig(obs, names, OrderbookConfig{Depth: depth, Bps: bps})
}

// ComputeFeaturesWithConfig is ComputeFeatures with an explicit configuration.
func ComputeFeaturesWithConfig(obs []models.Orderbook, names []string, cfg OrderbookConfig) ([][]float64, error) {
	selector, err := NewSelector(names)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matrix := make([][]float64, 0, len(obs))
	for i := range obs {
		row, err := selector.ComputeValues(&obs[i], cfg)
		if err != nil {
			return nil, fmt.Errorf("orderbook %d: %w", i, err)
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

// ComputeSingleOrderbook computes the named features for one book.
func ComputeSingleOrderbook(ob *models.Orderbook, names []string, cfg OrderbookConfig) ([]float64, error) {
	selector, err := NewSelector(names)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return selector.ComputeValues(ob, cfg)
}
