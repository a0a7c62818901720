package features

import (
	"fmt"

	"featureflow/models"
)

// Selector computes a caller-chosen, ordered set of order-book features.
// A failing feature aborts the whole row.
type Selector struct {
	features []OrderbookFeature
	names    []string
}

// NewSelector resolves names in order. Any unknown name fails construction
// with a FeatureNotFoundError.
func NewSelector(names []string) (*Selector, error) {
	fs := make([]OrderbookFeature, 0, len(names))
	for _, name := range names {
		f, err := OrderbookFeatureByName(name)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	return NewSelectorFromFeatures(fs...), nil
}

// NewSelectorFromFeatures builds a selector from already constructed features.
func NewSelectorFromFeatures(fs ...OrderbookFeature) *Selector {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name()
	}
	return &Selector{features: fs, names: names}
}

// ComputeValues returns one value per selected feature, in selection order.
func (s *Selector) ComputeValues(ob *models.Orderbook, cfg OrderbookConfig) ([]float64, error) {
	values := make([]float64, 0, len(s.features))
	for _, f := range s.features {
		v, err := f.Compute(ob, cfg)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name(), err)
		}
		values = append(values, v)
	}
	return values, nil
}

// ComputeValuesWithDefaults uses DefaultOrderbookConfig.
func (s *Selector) ComputeValuesWithDefaults(ob *models.Orderbook) ([]float64, error) {
	return s.ComputeValues(ob, DefaultOrderbookConfig())
}

// FeatureNames returns the selected names in order.
func (s *Selector) FeatureNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Selector) Len() int { return len(s.features) }

func (s *Selector) IsEmpty() bool { return len(s.features) == 0 }
