// Package archive writes portable run records: zstd-compressed JSON for full
// replicate batches and CSV for downstream analysis tooling.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"bandsim/internal/engine"
)

// RunRecord is the self-contained artifact of one replicate batch.
type RunRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Scenario  string    `json:"scenario"`
	Seed      int64     `json:"seed"`

	Replicates []engine.Results      `json:"replicates"`
	Stats      engine.ReplicateStats `json:"stats"`
}

// NewRecord assembles a record from a replicate batch.
func NewRecord(scenarioName string, seed int64, results []engine.Results) RunRecord {
	return RunRecord{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Scenario:   scenarioName,
		Seed:       seed,
		Replicates: results,
		Stats:      engine.Aggregate(results),
	}
}

// Write stores the record as zstd-compressed JSON.
func Write(path string, rec RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(rec); err != nil {
		zw.Close()
		return fmt.Errorf("archive: encode %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: flush %s: %w", path, err)
	}
	return f.Close()
}

// Read loads a record written by Write.
func Read(path string) (RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return RunRecord{}, fmt.Errorf("archive: %w", err)
	}
	defer zr.Close()

	var rec RunRecord
	if err := json.NewDecoder(zr).Decode(&rec); err != nil {
		return RunRecord{}, fmt.Errorf("archive: decode %s: %w", path, err)
	}
	return rec, nil
}
