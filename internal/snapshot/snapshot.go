// Package snapshot writes full-store dumps the restore path loads before
// replaying the changelog tail.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"beanstand/internal/state"
)

// NowUnix is swappable for deterministic tests.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

// File is the on-disk snapshot: every record in the store plus metadata
// about when it was taken. Seq values ride along so replay stays idempotent
// after a restore.
type File struct {
	SnapshotID  string                  `json:"snapshot_id"`
	TakenAt     int64                   `json:"taken_at"`
	RecordCount int                     `json:"record_count"`
	Records     map[string]state.Record `json:"records"`
}

type Snapshotter interface {
	WriteSnapshot(snapshotID string, st state.Store) error
}

type FilesystemSnapshotter struct {
	baseDir string
}

func NewFilesystemSnapshotter(baseDir string) *FilesystemSnapshotter {
	return &FilesystemSnapshotter{baseDir: baseDir}
}

// WriteSnapshot dumps the store to <base>/<snapshotID>/state.json. The dump
// goes through a temp file and a rename so a crash mid-write never leaves a
// half-written snapshot where the restorer will look.
func (f *FilesystemSnapshotter) WriteSnapshot(snapshotID string, st state.Store) error {
	dir := filepath.Join(f.baseDir, snapshotID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	records := make(map[string]state.Record)
	if err := st.Scan("", func(key string, rec state.Record) error {
		records[key] = rec
		return nil
	}); err != nil {
		return fmt.Errorf("scan store: %w", err)
	}

	dump := File{
		SnapshotID:  snapshotID,
		TakenAt:     NowUnix(),
		RecordCount: len(records),
		Records:     records,
	}
	b, err := json.MarshalIndent(&dump, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp := filepath.Join(dir, "state.json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, "state.json"))
}
