// Package reader loads market data captured by the collectors into the
// in-memory models the feature engine consumes.
package reader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"featureflow/logger"
	"featureflow/models"
)

const maxSnapshotLine = 16 << 20

// LoadSnapshots reads a JSON-lines file of market snapshots.
func LoadSnapshots(path string) ([]models.MarketSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshots file: %w", err)
	}
	defer f.Close()

	snaps, err := DecodeSnapshots(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.GetLogger().WithComponent("snapshot_reader").WithFields(logger.Fields{
		"path":      path,
		"snapshots": len(snaps),
	}).Info("snapshots loaded")
	return snaps, nil
}

// DecodeSnapshots decodes one snapshot per line in input order. Blank lines
// are skipped; absent sources decode as nil.
func DecodeSnapshots(r io.Reader) ([]models.MarketSnapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLine)

	var snaps []models.MarketSnapshot
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var snap models.MarketSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("line %d: invalid snapshot: %w", line, err)
		}
		snaps = append(snaps, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return snaps, nil
}

// GroupBySymbol splits snapshots into per-symbol streams, keeping the input
// order inside each stream and ordering streams by first appearance.
func GroupBySymbol(snaps []models.MarketSnapshot) (symbols []string, streams [][]models.MarketSnapshot) {
	index := make(map[string]int)
	for _, s := range snaps {
		i, ok := index[s.Symbol]
		if !ok {
			i = len(symbols)
			index[s.Symbol] = i
			symbols = append(symbols, s.Symbol)
			streams = append(streams, nil)
		}
		streams[i] = append(streams[i], s)
	}
	return symbols, streams
}
