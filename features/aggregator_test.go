package features

import (
	"bytes"
	"strings"
	"testing"

	"featureflow/logger"
	"featureflow/models"

	"github.com/sirupsen/logrus"
)

func column(name string) int {
	for i, n := range AllFeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

func TestComputeAllFeaturesShape(t *testing.T) {
	snaps := []models.MarketSnapshot{fullSnapshot(), {Symbol: "BTCUSDT"}, fullSnapshot()}
	m := ComputeAllFeatures(snaps, DefaultMarketConfig())
	if len(m) != len(snaps) {
		t.Fatalf("expected %d rows, got %d", len(snaps), len(m))
	}
	for i, row := range m {
		if len(row) != FeatureCount {
			t.Errorf("row %d has %d columns", i, len(row))
		}
	}
	for i, v := range m[1] {
		if v != 0 {
			t.Errorf("empty snapshot column %s = %v, want 0", AllFeatureNames[i], v)
		}
	}
}

func TestComputeAllFeaturesValues(t *testing.T) {
	cfg := MarketConfig{Depth: 2, Bps: 0.015}
	row := ComputeAllFeatures([]models.MarketSnapshot{fullSnapshot()}, cfg)[0]

	want := map[string]float64{
		"spread":                    1,
		"midprice":                  100.5,
		"w_midprice":                100.33333333,
		"microprice":                100.66666666,
		"vwap":                      100.25,
		"tav":                       8,
		"imb":                       0.33333333,
		"trade_intensity":           3,
		"trade_direction_imbalance": 0.33333333,
		"liquidation_pressure":      400,
		"liquidation_imbalance":     0.5,
		"funding_rate":              1,
		"oi_change":                 0,
		"price_impact":              -0.5,
		"trade_flow_toxicity":       0.33333333,
	}
	for name, v := range want {
		approx(t, name, row[column(name)], v)
	}
}

func TestAggregatorDegradesFailuresToZero(t *testing.T) {
	snap := fullSnapshot()
	// depth 5 exceeds the 3 levels on each side
	a := NewAggregator(DefaultMarketConfig())
	row := a.Compute([]models.MarketSnapshot{snap})[0]

	if row[column("vwap")] != 0 {
		t.Errorf("vwap should degrade to 0, got %v", row[column("vwap")])
	}
	approx(t, "spread", row[column("spread")], 1)

	if got := a.Degraded()["vwap"]; got != 1 {
		t.Errorf("expected one vwap degradation, got %d", got)
	}
	if a.DegradedTotal() != 1 {
		t.Errorf("unexpected total %d", a.DegradedTotal())
	}
	if names := a.DegradedFeatures(); len(names) != 1 || names[0] != "vwap" {
		t.Errorf("unexpected degraded features %v", names)
	}
	if a.Rows() != 1 {
		t.Errorf("expected 1 row, got %d", a.Rows())
	}
}

func TestAggregatorMissingBookDegradesOnlyPriceImpact(t *testing.T) {
	a := NewAggregator(DefaultMarketConfig())
	a.Compute([]models.MarketSnapshot{{Symbol: "ETHUSDT"}})
	// the absent book still fails price_impact, which is a real degradation
	if got := a.Degraded(); len(got) != 1 || got["price_impact"] != 1 {
		t.Errorf("unexpected degradations %v", got)
	}
}

func TestAggregatorOpenInterestCarry(t *testing.T) {
	oi := func(v float64) *models.OpenInterest { return &models.OpenInterest{OpenInterest: v} }
	snaps := []models.MarketSnapshot{
		{OpenInterest: oi(1000)},
		{OpenInterest: oi(1100)},
		{},
		{OpenInterest: oi(990)},
	}
	m := ComputeAllFeatures(snaps, DefaultMarketConfig())
	col := column("oi_change")

	approx(t, "first", m[0][col], 0)
	approx(t, "second", m[1][col], 10)
	approx(t, "absent", m[2][col], 0)
	// 1100 is still the carried value after the gap
	approx(t, "after gap", m[3][col], -10)
}

func TestAggregatorOpenInterestFromZero(t *testing.T) {
	oi := func(v float64) *models.OpenInterest { return &models.OpenInterest{OpenInterest: v} }
	a := NewAggregator(DefaultMarketConfig())
	m := a.Compute([]models.MarketSnapshot{{OpenInterest: oi(0)}, {OpenInterest: oi(50)}, {OpenInterest: oi(100)}})
	col := column("oi_change")

	if m[1][col] != 0 {
		t.Errorf("change from zero should degrade to 0, got %v", m[1][col])
	}
	if a.Degraded()["oi_change"] != 1 {
		t.Errorf("expected one oi_change degradation")
	}
	approx(t, "third", m[2][col], 100)
}

func TestAggregatorStreamsAreIndependent(t *testing.T) {
	a := NewAggregator(DefaultMarketConfig())
	first := a.Compute([]models.MarketSnapshot{{OpenInterest: &models.OpenInterest{OpenInterest: 10}}})
	second := a.Compute([]models.MarketSnapshot{{OpenInterest: &models.OpenInterest{OpenInterest: 20}}})
	if first[0][column("oi_change")] != 0 || second[0][column("oi_change")] != 0 {
		t.Errorf("each Compute call should start a fresh open interest carry")
	}
}

func TestColumnNames(t *testing.T) {
	names := ColumnNames()
	if len(names) != FeatureCount || names[0] != "spread" || names[FeatureCount-1] != "trade_flow_toxicity" {
		t.Fatalf("unexpected columns %v", names)
	}
	names[0] = "x"
	if AllFeatureNames[0] != "spread" {
		t.Errorf("ColumnNames leaked the canonical array")
	}
}

func TestAggregatorDegradationLogLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Logger()
	log.SetOutput(&buf)
	log.SetLevel(logrus.InfoLevel)

	a := NewAggregator(DefaultMarketConfig())
	a.log = log
	a.Compute([]models.MarketSnapshot{{Symbol: "ETHUSDT"}})
	if buf.Len() != 0 {
		t.Fatalf("expected no output at info level, got %q", buf.String())
	}
	if a.Degraded()["price_impact"] != 1 {
		t.Fatalf("degradation not counted at info level: %v", a.Degraded())
	}

	log.SetLevel(logrus.DebugLevel)
	a.Compute([]models.MarketSnapshot{{Symbol: "ETHUSDT"}})
	if !strings.Contains(buf.String(), "feature degraded to 0") || !strings.Contains(buf.String(), "price_impact") {
		t.Fatalf("expected debug degradation line, got %q", buf.String())
	}
}
