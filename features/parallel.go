package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"featureflow/models"
)

func workerLimit(workers int) int {
	if workers < 1 {
		return 1
	}
	return workers
}

// ComputeFeaturesParallel is ComputeFeaturesWithConfig spread over workers
// goroutines. Rows keep their input positions. The first failure cancels the
// remaining work and is returned.
func ComputeFeaturesParallel(ctx context.Context, obs []models.Orderbook, names []string, cfg OrderbookConfig, workers int) ([][]float64, error) {
	selector, err := NewSelector(names)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matrix := make([][]float64, len(obs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i := range obs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := selector.ComputeValues(&obs[i], cfg)
			if err != nil {
				return fmt.Errorf("orderbook %d: %w", i, err)
			}
			matrix[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// ComputeStreams aggregates independent snapshot streams in parallel. Each
// stream is processed sequentially because of the carried open interest.
func ComputeStreams(ctx context.Context, streams [][]models.MarketSnapshot, cfg MarketConfig, workers int) ([][][]float64, error) {
	return NewAggregator(cfg).ComputeStreams(ctx, streams, workers)
}

// ComputeStreams runs Compute for every stream on up to workers goroutines.
// Output is indexed like streams. Only context cancellation fails the call.
func (a *Aggregator) ComputeStreams(ctx context.Context, streams [][]models.MarketSnapshot, workers int) ([][][]float64, error) {
	out := make([][][]float64, len(streams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i := range streams {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = a.Compute(streams[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
