package reader

import (
	"path/filepath"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

func sampleRows() []OrderbookRow {
	return []OrderbookRow{
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1000, LastUpdateID: 7, Side: "ask", Price: 102, Quantity: 2, Level: 2},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1000, LastUpdateID: 7, Side: "bid", Price: 100, Quantity: 1, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1000, LastUpdateID: 7, Side: "ask", Price: 101, Quantity: 3, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 2000, LastUpdateID: 8, Side: "bid", Price: 99, Quantity: 4, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 2000, LastUpdateID: 8, Side: "mid", Price: 1, Quantity: 1, Level: 1},
		{Exchange: "binance", Symbol: "BTCUSDT", Timestamp: 1000, LastUpdateID: 7, Side: "bid", Price: 99.5, Quantity: 5, Level: 2},
	}
}

func TestGroupOrderbooks(t *testing.T) {
	books := GroupOrderbooks(sampleRows())
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}

	first := books[0]
	if first.LastUpdateID != 7 || first.Timestamp.UnixMilli() != 1000 {
		t.Errorf("unexpected first book key: %+v", first)
	}
	if len(first.Bids) != 2 || first.Bids[0].Price != 100 || first.Bids[1].Price != 99.5 {
		t.Errorf("bids not ordered by level: %+v", first.Bids)
	}
	if len(first.Asks) != 2 || first.Asks[0].Price != 101 || first.Asks[1].Volume != 2 {
		t.Errorf("asks not ordered by level: %+v", first.Asks)
	}

	second := books[1]
	if len(second.Bids) != 1 || len(second.Asks) != 0 {
		t.Errorf("unknown side should be dropped: %+v", second)
	}
}

func TestGroupOrderbooksCanonicalSymbol(t *testing.T) {
	rows := []OrderbookRow{
		{Exchange: "kucoin", Symbol: "XBTUSDTM", Timestamp: 1, LastUpdateID: 1, Side: "bid", Price: 100, Quantity: 1, Level: 1},
		{Exchange: "kucoin", Symbol: "XBT-USDTM", Timestamp: 1, LastUpdateID: 1, Side: "ask", Price: 101, Quantity: 1, Level: 1},
	}
	books := GroupOrderbooks(rows)
	if len(books) != 1 || books[0].Symbol != "BTCUSDT" {
		t.Fatalf("expected one BTCUSDT book, got %+v", books)
	}
	if len(books[0].Bids) != 1 || len(books[0].Asks) != 1 {
		t.Errorf("both rows should land in the same book: %+v", books[0])
	}
}

func TestLoadOrderbooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.parquet")

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(OrderbookRow), 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range sampleRows() {
		if err := pw.Write(r); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		t.Fatalf("write stop: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	books, err := LoadOrderbooks(path)
	if err != nil {
		t.Fatalf("LoadOrderbooks failed: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].Exchange != "binance" || books[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected identity: %+v", books[0])
	}
	bid, ok := books[0].BestBid()
	if !ok || bid.Price != 100 {
		t.Errorf("unexpected best bid %+v", bid)
	}
}

func TestLoadOrderbooksMissingFile(t *testing.T) {
	if _, err := LoadOrderbooks(filepath.Join(t.TempDir(), "missing.parquet")); err == nil {
		t.Error("expected error for missing file")
	}
}
