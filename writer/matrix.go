package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"featureflow/logger"
)

// memoryFileWriter implements ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

// Seek only reports the current size; the parquet writer never seeks back.
func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// Leading columns of every feature matrix file.
const (
	ColumnRunID  = "run_id"
	ColumnRow    = "row"
	ColumnSymbol = "symbol"
)

// MatrixMeta identifies the rows of one encoded matrix. Symbols holds either
// one symbol per row or a single symbol shared by every row.
type MatrixMeta struct {
	RunID   string
	Symbols []string
}

func (m MatrixMeta) symbol(row, rows int) string {
	switch len(m.Symbols) {
	case rows:
		return m.Symbols[row]
	case 1:
		return m.Symbols[0]
	default:
		return ""
	}
}

// MatrixWriter encodes feature matrices as parquet.
type MatrixWriter struct {
	compression string
	log         *logger.Log
}

func NewMatrixWriter(compression string) *MatrixWriter {
	return &MatrixWriter{
		compression: strings.ToLower(compression),
		log:         logger.GetLogger(),
	}
}

func (w *MatrixWriter) codec() parquet.CompressionCodec {
	switch w.compression {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

func validateColumns(names []string, rows [][]float64) error {
	seen := map[string]bool{ColumnRunID: true, ColumnRow: true, ColumnSymbol: true}
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("feature column name must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = true
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(names))
		}
	}
	return nil
}

func schema(names []string) []string {
	md := []string{
		"name=" + ColumnRunID + ", type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY",
		"name=" + ColumnRow + ", type=INT64",
		"name=" + ColumnSymbol + ", type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY",
	}
	for _, name := range names {
		md = append(md, fmt.Sprintf("name=%s, type=DOUBLE", name))
	}
	return md
}

// Encode builds a parquet file in memory with run_id, row and symbol columns
// followed by one DOUBLE column per feature name.
func (w *MatrixWriter) Encode(names []string, rows [][]float64, meta MatrixMeta) ([]byte, error) {
	if err := validateColumns(names, rows); err != nil {
		return nil, err
	}

	log := w.log.WithComponent("matrix_writer").WithFields(logger.Fields{
		"run_id":    meta.RunID,
		"rows":      len(rows),
		"columns":   len(names),
		"operation": "encode",
	})

	fw := newMemoryFileWriter()
	pw, err := writer.NewCSVWriter(schema(names), fw, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = w.codec()

	for i, row := range rows {
		record := make([]interface{}, 0, len(row)+3)
		record = append(record, meta.RunID, int64(i), meta.symbol(i, len(rows)))
		for _, v := range row {
			record = append(record, v)
		}
		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	data := fw.Bytes()
	log.WithFields(logger.Fields{
		"file_size":   len(data),
		"compression": w.compression,
	}).Debug("feature matrix encoded")
	return data, nil
}

// WriteFile encodes the matrix and writes it to path. It returns the file
// size.
func (w *MatrixWriter) WriteFile(path string, names []string, rows [][]float64, meta MatrixMeta) (int64, error) {
	data, err := w.Encode(names, rows, meta)
	if err != nil {
		return 0, err
	}
	if err := w.Save(path, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Save writes already encoded data to path, creating parent directories.
func (w *MatrixWriter) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.log.WithComponent("matrix_writer").WithFields(logger.Fields{
		"path":      path,
		"file_size": len(data),
	}).Info("feature matrix written")
	return nil
}
