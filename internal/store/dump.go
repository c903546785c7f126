package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/punic/dystats/pkg/payload"
)

// RunDump writes every successfully normalized record of one run as a
// line-delimited JSON file for offline inspection, keyed by run and item
// identifier.
type RunDump struct {
	runID string
	file  *os.File
	enc   *json.Encoder
}

type dumpLine struct {
	RunID string `json:"run_id"`
	payload.Record
}

// NewRunDump creates the dump file for a fresh run under dir.
func NewRunDump(dir string) (*RunDump, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir %s: %w", dir, err)
	}

	runID := uuid.NewString()
	path := filepath.Join(dir, "records-"+runID+".ndjson")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump file %s: %w", path, err)
	}

	return &RunDump{runID: runID, file: file, enc: json.NewEncoder(file)}, nil
}

// RunID returns this run's identifier.
func (d *RunDump) RunID() string { return d.runID }

// Path returns the dump file location.
func (d *RunDump) Path() string { return d.file.Name() }

// Append writes one record as a JSON line.
func (d *RunDump) Append(rec payload.Record) error {
	if err := d.enc.Encode(dumpLine{RunID: d.runID, Record: rec}); err != nil {
		return fmt.Errorf("append dump record %s: %w", rec.ID, err)
	}
	return nil
}

func (d *RunDump) Close() error {
	return d.file.Close()
}
