package reader

import (
	"fmt"
	"sort"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"featureflow/internal/symbols"
	"featureflow/logger"
	"featureflow/models"
)

// OrderbookRow is one flattened order-book level as written by the snapshot
// collectors.
type OrderbookRow struct {
	Exchange     string  `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol       string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp    int64   `parquet:"name=timestamp, type=INT64"`
	LastUpdateID int64   `parquet:"name=last_update_id, type=INT64"`
	Side         string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price        float64 `parquet:"name=price, type=DOUBLE"`
	Quantity     float64 `parquet:"name=quantity, type=DOUBLE"`
	Level        int32   `parquet:"name=level, type=INT32"`
}

const (
	sideBid = "bid"
	sideAsk = "ask"
)

// LoadOrderbooks reads a flattened order-book parquet file and rebuilds the
// books it contains.
func LoadOrderbooks(path string) ([]models.Orderbook, error) {
	log := logger.GetLogger().WithComponent("orderbook_reader").WithFields(logger.Fields{"path": path})

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(OrderbookRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]OrderbookRow, n)
	if n > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	books, skipped := groupOrderbooks(rows)
	entry := log.WithFields(logger.Fields{
		"rows":       n,
		"orderbooks": len(books),
	})
	if skipped > 0 {
		entry.WithFields(logger.Fields{"skipped_rows": skipped}).Warn("rows with unknown side ignored")
	}
	entry.Info("orderbooks loaded")
	return books, nil
}

// GroupOrderbooks rebuilds one book per (exchange, symbol, timestamp,
// last_update_id) in first-seen order. Symbols are canonicalised, each side is
// sorted by level and rows whose side is neither "bid" nor "ask" are dropped.
func GroupOrderbooks(rows []OrderbookRow) []models.Orderbook {
	books, _ := groupOrderbooks(rows)
	return books
}

type bookKey struct {
	exchange     string
	symbol       string
	timestamp    int64
	lastUpdateID int64
}

type leveled struct {
	level int32
	lvl   models.OrderbookLevel
}

type partialBook struct {
	key        bookKey
	bids, asks []leveled
}

func groupOrderbooks(rows []OrderbookRow) ([]models.Orderbook, int) {
	index := make(map[bookKey]int)
	var parts []*partialBook
	skipped := 0

	for _, r := range rows {
		k := bookKey{r.Exchange, symbols.Canonical(r.Exchange, r.Symbol), r.Timestamp, r.LastUpdateID}
		i, ok := index[k]
		if !ok {
			i = len(parts)
			index[k] = i
			parts = append(parts, &partialBook{key: k})
		}
		l := leveled{level: r.Level, lvl: models.OrderbookLevel{Price: r.Price, Volume: r.Quantity}}
		switch r.Side {
		case sideBid:
			parts[i].bids = append(parts[i].bids, l)
		case sideAsk:
			parts[i].asks = append(parts[i].asks, l)
		default:
			skipped++
		}
	}

	books := make([]models.Orderbook, 0, len(parts))
	for _, p := range parts {
		books = append(books, models.Orderbook{
			Exchange:     p.key.exchange,
			Symbol:       p.key.symbol,
			Timestamp:    time.UnixMilli(p.key.timestamp).UTC(),
			LastUpdateID: p.key.lastUpdateID,
			Bids:         sortLevels(p.bids),
			Asks:         sortLevels(p.asks),
		})
	}
	return books, skipped
}

func sortLevels(ls []leveled) []models.OrderbookLevel {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].level < ls[j].level })
	out := make([]models.OrderbookLevel, len(ls))
	for i, l := range ls {
		out[i] = l.lvl
	}
	return out
}
