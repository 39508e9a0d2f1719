package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"beanstand/internal/state"
)

func TestWriteSnapshot_WritesStateJSON(t *testing.T) {
	dir := t.TempDir()
	s := state.NewInMemoryStore()
	_, _ = s.Put("product#p1", []byte(`{"id":"p1","stock":12}`), 1)
	_, _ = s.Put("user#1", []byte(`{"id":1}`), 1)

	old := NowUnix
	NowUnix = func() int64 { return 1700000000 }
	defer func() { NowUnix = old }()

	snap := NewFilesystemSnapshotter(dir)
	if err := snap.WriteSnapshot("sid", s); err != nil {
		t.Fatalf("WriteSnapshot error: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "sid", "state.json"))
	if err != nil {
		t.Fatalf("state.json missing: %v", err)
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if f.SnapshotID != "sid" || f.TakenAt != 1700000000 || f.RecordCount != 2 {
		t.Fatalf("unexpected metadata: %+v", f)
	}
	if len(f.Records) != 2 {
		t.Fatalf("unexpected keys: %v", f.Records)
	}
	if f.Records["product#p1"].Seq != 1 {
		t.Fatalf("bad product record: %+v", f.Records["product#p1"])
	}
	if _, err := os.Stat(filepath.Join(dir, "sid", "state.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestWriteSnapshot_Overwrite(t *testing.T) {
	dir := t.TempDir()
	s := state.NewInMemoryStore()
	_, _ = s.Put("user#1", []byte(`{"id":1}`), 1)

	snap := NewFilesystemSnapshotter(dir)
	if err := snap.WriteSnapshot("sid", s); err != nil {
		t.Fatalf("first write: %v", err)
	}
	_, _ = s.Put("user#2", []byte(`{"id":2}`), 1)
	if err := snap.WriteSnapshot("sid", s); err != nil {
		t.Fatalf("second write: %v", err)
	}

	b, _ := os.ReadFile(filepath.Join(dir, "sid", "state.json"))
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if f.RecordCount != 2 {
		t.Fatalf("expected rewritten snapshot with 2 records, got %+v", f)
	}
}
