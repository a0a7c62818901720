package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DataFile describes a single feature matrix file produced by a run.
type DataFile struct {
	Path        string         `json:"path"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	Columns     []string       `json:"columns"`
	Partition   map[string]any `json:"partition"`
	Timestamp   time.Time      `json:"-"`
}

// ManifestEntry records one file added by a run.
type ManifestEntry struct {
	Status   int      `json:"status"`
	DataFile DataFile `json:"data_file"`
}

// Snapshot ties a run to the manifest listing its files.
type Snapshot struct {
	SnapshotID  int64  `json:"snapshot-id"`
	RunID       string `json:"run-id"`
	TimestampMs int64  `json:"timestamp-ms"`
	Manifest    string `json:"manifest-list"`
}

// TableMetadata is the top-level metadata file of an output directory.
type TableMetadata struct {
	FormatVersion     int        `json:"format-version"`
	TableUUID         string     `json:"table-uuid"`
	Location          string     `json:"location"`
	CurrentSnapshotID int64      `json:"current-snapshot-id"`
	Snapshots         []Snapshot `json:"snapshots"`
}

// Manifest keeps Iceberg-style metadata next to the written matrices so that
// downstream readers can discover every file of every run.
type Manifest struct {
	basePath  string
	tableUUID string

	mu        sync.Mutex
	snapshots []Snapshot
}

// NewManifest returns a manifest rooted at basePath. Existing metadata is
// loaded so that snapshots accumulate across runs.
func NewManifest(basePath string) (*Manifest, error) {
	m := &Manifest{basePath: basePath, tableUUID: uuid.NewString()}

	b, err := os.ReadFile(m.metadataPath())
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table metadata: %w", err)
	}
	var tm TableMetadata
	if err := json.Unmarshal(b, &tm); err != nil {
		return nil, fmt.Errorf("failed to parse table metadata: %w", err)
	}
	if tm.TableUUID != "" {
		m.tableUUID = tm.TableUUID
	}
	m.snapshots = tm.Snapshots
	return m, nil
}

func (m *Manifest) metadataPath() string {
	return filepath.Join(m.basePath, "metadata", "metadata.json")
}

// AddRun writes a manifest listing files and makes it the current snapshot.
func (m *Manifest) AddRun(runID string, ts time.Time, files []DataFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapID := ts.UnixNano()
	manifestFile := fmt.Sprintf("manifest-%s.json", runID)
	manifestPath := filepath.Join(m.basePath, "metadata", manifestFile)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return err
	}

	entries := make([]ManifestEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, ManifestEntry{Status: 1, DataFile: f})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}

	m.snapshots = append(m.snapshots, Snapshot{
		SnapshotID:  snapID,
		RunID:       runID,
		TimestampMs: ts.UnixMilli(),
		Manifest:    manifestFile,
	})
	return m.writeTableMetadata()
}

func (m *Manifest) writeTableMetadata() error {
	if len(m.snapshots) == 0 {
		return nil
	}
	tm := TableMetadata{
		FormatVersion:     2,
		TableUUID:         m.tableUUID,
		Location:          m.basePath,
		CurrentSnapshotID: m.snapshots[len(m.snapshots)-1].SnapshotID,
		Snapshots:         m.snapshots,
	}
	b, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.metadataPath(), b, 0o644)
}

// Snapshots returns the recorded runs, oldest first.
func (m *Manifest) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}
