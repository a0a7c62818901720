package features

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"featureflow/models"
)

func TestSelectorOrderAndNames(t *testing.T) {
	s, err := NewSelector([]string{"imb", "spread", "midprice"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if s.Len() != 3 || s.IsEmpty() {
		t.Fatalf("unexpected selector size %d", s.Len())
	}
	vals, err := s.ComputeValuesWithDefaults(sampleBook())
	if err != nil {
		t.Fatalf("ComputeValues: %v", err)
	}
	approx(t, "imb", vals[0], 0.33333333)
	approx(t, "spread", vals[1], 1)
	approx(t, "midprice", vals[2], 100.5)

	names := s.FeatureNames()
	names[0] = "changed"
	if s.FeatureNames()[0] != "imb" {
		t.Errorf("FeatureNames leaked internal state")
	}
}

func TestSelectorRejectsUnknownName(t *testing.T) {
	s, err := NewSelector([]string{"spread", "trade_intensity"})
	if s != nil {
		t.Errorf("expected nil selector")
	}
	var nf *FeatureNotFoundError
	if !errors.As(err, &nf) || nf.Name != "trade_intensity" {
		t.Fatalf("expected FeatureNotFoundError, got %v", err)
	}
}

func TestEmptySelector(t *testing.T) {
	s, err := NewSelector(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals, err := s.ComputeValues(nil, DefaultOrderbookConfig())
	if err != nil || len(vals) != 0 {
		t.Errorf("got %v, %v", vals, err)
	}
}

func TestComputeFeatures(t *testing.T) {
	obs := []models.Orderbook{*sampleBook(), *sampleBook()}
	obs[1].Asks[0].Price = 102

	m, err := ComputeFeatures(obs, []string{"spread", "midprice"}, 2, 0.001)
	if err != nil {
		t.Fatalf("ComputeFeatures: %v", err)
	}
	want := [][]float64{{1, 100.5}, {2, 101}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestComputeFeaturesWrapsIndexAndName(t *testing.T) {
	obs := []models.Orderbook{*sampleBook(), *sampleBook()}
	obs[1].Bids = obs[1].Bids[:1]

	m, err := ComputeFeatures(obs, []string{"spread", "vwap"}, 3, 0.001)
	if m != nil {
		t.Errorf("expected no partial matrix, got %v", m)
	}
	var depthErr *InsufficientDepthError
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected InsufficientDepthError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "orderbook 1: feature vwap: insufficient depth") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestComputeFeaturesValidation(t *testing.T) {
	obs := []models.Orderbook{*sampleBook()}
	var ic *InvalidConfigError
	if _, err := ComputeFeatures(obs, []string{"spread"}, 0, 0.001); !errors.As(err, &ic) {
		t.Errorf("depth 0: expected InvalidConfigError, got %v", err)
	}
	if _, err := ComputeFeatures(obs, []string{"spread"}, 5, -1); !errors.As(err, &ic) {
		t.Errorf("negative bps: expected InvalidConfigError, got %v", err)
	}
	var nf *FeatureNotFoundError
	if _, err := ComputeFeatures(obs, []string{"bogus"}, 0, 0.001); !errors.As(err, &nf) {
		t.Errorf("unknown names are reported before config errors, got %v", err)
	}
}

func TestComputeFeaturesEmptyInput(t *testing.T) {
	m, err := ComputeFeatures(nil, []string{"spread"}, 5, 0.001)
	if err != nil || len(m) != 0 {
		t.Errorf("got %v, %v", m, err)
	}
}

func TestComputeSingleOrderbook(t *testing.T) {
	vals, err := ComputeSingleOrderbook(sampleBook(), []string{"vwap", "tav"}, OrderbookConfig{Depth: 2, Bps: 0.015})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "vwap", vals[0], 100.25)
	approx(t, "tav", vals[1], 8)

	if _, err := ComputeSingleOrderbook(&models.Orderbook{}, []string{"spread"}, DefaultOrderbookConfig()); !errors.Is(err, ErrEmptyOrderbook) {
		t.Errorf("expected ErrEmptyOrderbook, got %v", err)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	obs := []models.Orderbook{*sampleBook(), *sampleBook(), *sampleBook()}
	names := []string{"spread", "midprice", "w_midprice", "microprice", "vwap", "imb", "tav"}
	a, err := ComputeFeatures(obs, names, 3, 0.01)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := ComputeFeatures(obs, names, 3, 0.01)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ between runs")
	}
}
