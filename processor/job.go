// Package processor runs one batch feature computation: load the configured
// input, compute the matrix, persist it locally and optionally in S3.
package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	appconfig "featureflow/config"
	"featureflow/features"
	"featureflow/logger"
	"featureflow/models"
	"featureflow/reader"
	"featureflow/writer"
)

// Modes accepted by Run.
const (
	ModeMarket    = "market"
	ModeOrderbook = "orderbook"
)

// Uploader stores an encoded matrix remotely. *writer.S3Uploader satisfies it.
type Uploader interface {
	Key(symbol, runID string, ts time.Time) string
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// Result summarises a finished run.
type Result struct {
	RunID    string
	Mode     string
	Rows     int
	Columns  []string
	Files    []writer.DataFile
	Degraded map[string]int64
}

type Job struct {
	config     *appconfig.Config
	registries *features.Registries
	matrix     *writer.MatrixWriter
	uploader   Uploader
	log        *logger.Log
	runID      string
	now        func() time.Time
}

// NewJob prepares a run. uploader may be nil to keep output local.
func NewJob(cfg *appconfig.Config, registries *features.Registries, uploader Uploader) *Job {
	if registries == nil {
		registries = features.NewRegistries()
	}
	return &Job{
		config:     cfg,
		registries: registries,
		matrix:     writer.NewMatrixWriter(cfg.Output.Compression),
		uploader:   uploader,
		log:        logger.GetLogger(),
		runID:      uuid.NewString(),
		now:        time.Now,
	}
}

func (j *Job) RunID() string { return j.runID }

// Run dispatches on mode.
func (j *Job) Run(ctx context.Context, mode string) (*Result, error) {
	switch mode {
	case ModeMarket:
		return j.RunMarket(ctx)
	case ModeOrderbook:
		return j.RunOrderbooks(ctx)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// marketColumns resolves the configured names to positions in the
// aggregated row. An empty selection keeps every column.
func (j *Job) marketColumns() ([]string, []int, error) {
	names := j.config.Features.Names
	if len(names) == 0 {
		return features.ColumnNames(), nil, nil
	}
	if err := j.registries.Validate(names); err != nil {
		return nil, nil, err
	}
	idx := make([]int, len(names))
	for i, n := range names {
		c, ok := features.ColumnIndex(n)
		if !ok {
			return nil, nil, fmt.Errorf("feature %s has no column in %s mode", n, ModeMarket)
		}
		idx[i] = c
	}
	return names, idx, nil
}

func project(rows [][]float64, idx []int) [][]float64 {
	if idx == nil {
		return rows
	}
	out := make([][]float64, len(rows))
	for r, row := range rows {
		p := make([]float64, len(idx))
		for i, c := range idx {
			p[i] = row[c]
		}
		out[r] = p
	}
	return out
}

// RunMarket aggregates every snapshot stream, one stream per symbol, and
// writes one matrix file per symbol.
func (j *Job) RunMarket(ctx context.Context) (*Result, error) {
	start := j.now()
	log := j.log.WithComponent("processor").WithFields(logger.Fields{"run_id": j.runID, "mode": ModeMarket})

	if j.config.Input.Snapshots == "" {
		return nil, fmt.Errorf("input.snapshots is required in %s mode", ModeMarket)
	}
	columns, idx, err := j.marketColumns()
	if err != nil {
		return nil, err
	}
	cfg := j.config.Features.MarketConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snaps, err := reader.LoadSnapshots(j.config.Input.Snapshots)
	if err != nil {
		return nil, err
	}
	symbols, streams := reader.GroupBySymbol(snaps)
	logger.LogDataFlowEntry(log, "snapshot_reader", "aggregator", len(snaps), "market_snapshot")

	agg := features.NewAggregator(cfg)
	matrices, err := agg.ComputeStreams(ctx, streams, j.config.Features.Workers)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: j.runID, Mode: ModeMarket, Columns: columns}
	for i, symbol := range symbols {
		rows := project(matrices[i], idx)
		df, err := j.persist(ctx, symbol, columns, rows, []string{symbol})
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, df)
		res.Rows += len(rows)
	}
	res.Degraded = agg.Degraded()

	if err := j.finish(log, res, start); err != nil {
		return nil, err
	}
	for _, name := range agg.DegradedFeatures() {
		log.WithFields(logger.Fields{"feature": name, "count": res.Degraded[name]}).Warn("feature values degraded to 0")
	}
	return res, nil
}

// RunOrderbooks computes the selected order-book features for every book in
// the input file. Any feature failure aborts the run.
func (j *Job) RunOrderbooks(ctx context.Context) (*Result, error) {
	start := j.now()
	log := j.log.WithComponent("processor").WithFields(logger.Fields{"run_id": j.runID, "mode": ModeOrderbook})

	if j.config.Input.Orderbooks == "" {
		return nil, fmt.Errorf("input.orderbooks is required in %s mode", ModeOrderbook)
	}
	names := j.config.Features.Names
	if len(names) == 0 {
		names = features.OrderbookFeatureNames()
	}
	if err := j.registries.ValidateDomain(features.DomainOrderbook, names); err != nil {
		return nil, err
	}

	books, err := reader.LoadOrderbooks(j.config.Input.Orderbooks)
	if err != nil {
		return nil, err
	}
	logger.LogDataFlowEntry(log, "orderbook_reader", "selector", len(books), "orderbook")

	rows, err := features.ComputeFeaturesParallel(ctx, books, names, j.config.Features.OrderbookConfig(), j.config.Features.Workers)
	if err != nil {
		log.WithError(err).Error("feature computation failed")
		log.LogMetric("processor", "compute_errors", 1, "counter", logger.Fields{"mode": ModeOrderbook})
		return nil, err
	}

	rowSymbols := make([]string, len(books))
	for i := range books {
		rowSymbols[i] = books[i].Symbol
	}
	df, err := j.persist(ctx, commonSymbol(books), names, rows, rowSymbols)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: j.runID, Mode: ModeOrderbook, Columns: names, Rows: len(rows), Files: []writer.DataFile{df}}
	if err := j.finish(log, res, start); err != nil {
		return nil, err
	}
	return res, nil
}

// commonSymbol returns the symbol shared by every book, or "" when mixed.
func commonSymbol(books []models.Orderbook) string {
	if len(books) == 0 {
		return ""
	}
	s := books[0].Symbol
	for _, b := range books[1:] {
		if b.Symbol != s {
			return ""
		}
	}
	return s
}

func (j *Job) persist(ctx context.Context, symbol string, columns []string, rows [][]float64, rowSymbols []string) (writer.DataFile, error) {
	ts := j.now()
	data, err := j.matrix.Encode(columns, rows, writer.MatrixMeta{RunID: j.runID, Symbols: rowSymbols})
	if err != nil {
		return writer.DataFile{}, err
	}

	key := writer.ObjectKey("", symbol, j.runID, ts)
	path := filepath.Join(j.config.Output.Dir, filepath.FromSlash(key))
	if err := j.matrix.Save(path, data); err != nil {
		return writer.DataFile{}, err
	}

	if j.uploader != nil {
		loc, err := j.uploader.Upload(ctx, j.uploader.Key(symbol, j.runID, ts), data)
		if err != nil {
			return writer.DataFile{}, err
		}
		path = loc
	}

	return writer.DataFile{
		Path:        path,
		FileSize:    int64(len(data)),
		RecordCount: int64(len(rows)),
		Columns:     columns,
		Partition: map[string]any{
			"symbol": symbol,
			"date":   ts.UTC().Format("2006-01-02"),
		},
		Timestamp: ts,
	}, nil
}

func (j *Job) finish(log *logger.Entry, res *Result, start time.Time) error {
	manifest, err := writer.NewManifest(j.config.Output.Dir)
	if err != nil {
		return err
	}
	if err := manifest.AddRun(j.runID, start, res.Files); err != nil {
		return fmt.Errorf("failed to update manifest: %w", err)
	}

	var degraded int64
	for _, v := range res.Degraded {
		degraded += v
	}
	fields := logger.Fields{"mode": res.Mode}
	log.LogMetric("processor", "rows_computed", res.Rows, "counter", fields)
	log.LogMetric("processor", "features_degraded", degraded, "counter", logger.Fields{"mode": res.Mode})
	logger.LogPerformanceEntry(log, "processor", "run", j.now().Sub(start), logger.Fields{
		"files": len(res.Files),
		"rows":  res.Rows,
	})
	return nil
}
