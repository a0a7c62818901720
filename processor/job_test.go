package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "featureflow/config"
	"featureflow/features"
	"featureflow/reader"
)

const snapshotLines = `{"symbol":"BTCUSDT","orderbook":{"bids":[{"price":100,"volume":2}],"asks":[{"price":101,"volume":1}]},"open_interest":{"open_interest":1000}}
{"symbol":"ETHUSDT","orderbook":{"bids":[{"price":10,"volume":1}],"asks":[{"price":11,"volume":1}]}}
{"symbol":"BTCUSDT","orderbook":{"bids":[{"price":100,"volume":1}],"asks":[{"price":101,"volume":1}]},"open_interest":{"open_interest":1100}}
`

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Key(symbol, runID string, ts time.Time) string {
	return "features/" + symbol + "/" + runID
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "s3://bucket/" + key, nil
}

func minimalConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &appconfig.Config{}
	cfg.Featureflow.Name = "test"
	cfg.Featureflow.Version = "1.0"
	cfg.Features.Depth = 1
	cfg.Features.Bps = 0.001
	cfg.Features.Workers = 2
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.Compression = "snappy"

	cfg.Input.Snapshots = filepath.Join(dir, "snapshots.jsonl")
	if err := os.WriteFile(cfg.Input.Snapshots, []byte(snapshotLines), 0o644); err != nil {
		t.Fatalf("write snapshots: %v", err)
	}
	return cfg
}

func writeOrderbooks(t *testing.T, path string, rows []reader.OrderbookRow) {
	t.Helper()
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(reader.OrderbookRow), 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		t.Fatalf("write stop: %v", err)
	}
	fw.Close()
}

func TestRunMarketWritesOneFilePerSymbol(t *testing.T) {
	cfg := minimalConfig(t)
	up := &fakeUploader{}
	job := NewJob(cfg, nil, up)

	res, err := job.Run(context.Background(), ModeMarket)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Rows != 3 || len(res.Files) != 2 {
		t.Fatalf("unexpected result: rows=%d files=%d", res.Rows, len(res.Files))
	}
	if len(res.Columns) != features.FeatureCount {
		t.Errorf("expected all %d columns, got %d", features.FeatureCount, len(res.Columns))
	}
	if len(up.keys) != 2 || !strings.Contains(up.keys[0], "BTCUSDT") {
		t.Errorf("unexpected uploads %v", up.keys)
	}
	if !strings.HasPrefix(res.Files[0].Path, "s3://bucket/") {
		t.Errorf("uploaded file should be referenced by its s3 location, got %s", res.Files[0].Path)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "metadata", "metadata.json")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
	// absent trades and open interest are not degradations
	if len(res.Degraded) != 0 {
		t.Errorf("unexpected degradations %v", res.Degraded)
	}
}

func TestRunMarketSelectsColumns(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Features.Names = []string{"oi_change", "spread"}

	res, err := NewJob(cfg, nil, nil).RunMarket(context.Background())
	if err != nil {
		t.Fatalf("RunMarket failed: %v", err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "oi_change" {
		t.Errorf("unexpected columns %v", res.Columns)
	}
	if !strings.HasPrefix(res.Files[0].Path, cfg.Output.Dir) {
		t.Errorf("local file expected, got %s", res.Files[0].Path)
	}
	if _, err := os.Stat(res.Files[0].Path); err != nil {
		t.Errorf("matrix file missing: %v", err)
	}
}

func TestRunMarketUnknownFeature(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Features.Names = []string{"nope"}

	_, err := NewJob(cfg, nil, nil).RunMarket(context.Background())
	var nf *features.FeatureNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected FeatureNotFoundError, got %v", err)
	}
}

func TestRunOrderbooks(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Input.Orderbooks = filepath.Join(t.TempDir(), "books.parquet")
	writeOrderbooks(t, cfg.Input.Orderbooks, []reader.OrderbookRow{
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "bid", Price: 100, Quantity: 2, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "ask", Price: 101, Quantity: 1, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 2, LastUpdateID: 2, Side: "bid", Price: 100, Quantity: 1, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 2, LastUpdateID: 2, Side: "ask", Price: 102, Quantity: 1, Level: 1},
	})

	res, err := NewJob(cfg, nil, nil).Run(context.Background(), ModeOrderbook)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Rows != 2 || len(res.Columns) != 7 {
		t.Errorf("unexpected result rows=%d columns=%v", res.Rows, res.Columns)
	}
	if !strings.Contains(res.Files[0].Path, "symbol=BTCUSDT") {
		t.Errorf("unexpected path %s", res.Files[0].Path)
	}
}

func TestRunOrderbooksRejectsMarketFeatures(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Input.Orderbooks = "unused.parquet"
	cfg.Features.Names = []string{"spread", "trade_intensity"}

	_, err := NewJob(cfg, nil, nil).RunOrderbooks(context.Background())
	var ic *features.InvalidConfigError
	if !errors.As(err, &ic) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestRunOrderbooksStrictFailure(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Features.Depth = 3
	cfg.Features.Names = []string{"vwap"}
	cfg.Input.Orderbooks = filepath.Join(t.TempDir(), "books.parquet")
	writeOrderbooks(t, cfg.Input.Orderbooks, []reader.OrderbookRow{
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "bid", Price: 100, Quantity: 2, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "ask", Price: 101, Quantity: 1, Level: 1},
	})

	_, err := NewJob(cfg, nil, nil).RunOrderbooks(context.Background())
	var depthErr *features.InsufficientDepthError
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected InsufficientDepthError, got %v", err)
	}
}

func TestRunUploadFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewJob(minimalConfig(t), nil, &fakeUploader{err: boom}).RunMarket(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestRunUnknownMode(t *testing.T) {
	if _, err := NewJob(minimalConfig(t), nil, nil).Run(context.Background(), "stream"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRunMarketRegisteredNameWithoutColumn(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Features.Names = []string{"spread", "basis"}
	regs := features.NewRegistries()
	regs.Market.Register("basis", features.CategoryFlow)

	_, err := NewJob(cfg, regs, nil).RunMarket(context.Background())
	if err == nil || !strings.Contains(err.Error(), "basis has no column") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestRunOrderbooksDefaultColumnsIgnoreExtraRegistrations(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Input.Orderbooks = filepath.Join(t.TempDir(), "books.parquet")
	writeOrderbooks(t, cfg.Input.Orderbooks, []reader.OrderbookRow{
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "bid", Price: 100, Quantity: 2, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1, LastUpdateID: 1, Side: "ask", Price: 101, Quantity: 1, Level: 1},
	})
	regs := features.NewRegistries()
	regs.Orderbook.Register("depth_ratio", features.CategoryLiquidity)

	res, err := NewJob(cfg, regs, nil).RunOrderbooks(context.Background())
	if err != nil {
		t.Fatalf("RunOrderbooks failed: %v", err)
	}
	want := features.OrderbookFeatureNames()
	if len(res.Columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, res.Columns)
	}
	for i := range want {
		if res.Columns[i] != want[i] {
			t.Errorf("column %d = %s, want %s", i, res.Columns[i], want[i])
		}
	}
}
