package restore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"beanstand/internal/manifest"
	"beanstand/internal/snapshot"
	"beanstand/internal/state"
)

func TestRestoreAndReplay_MinimalFlow(t *testing.T) {
	base := t.TempDir()

	mf := manifest.NewFilesystemManifest(base)
	if err := mf.PublishLatest("sid-test", 1); err != nil {
		t.Fatalf("publish manifest: %v", err)
	}

	clPath := filepath.Join(base, "beanstand.jsonl")
	f, err := os.Create(clPath)
	if err != nil {
		t.Fatalf("create changelog: %v", err)
	}
	_, _ = f.WriteString(`{"id":"e1","key":"product#p1","value":{"id":"p1","stock":9},"seq":1,"ts":1}` + "\n")
	_, _ = f.WriteString(`{"id":"e2","key":"product#p2","value":{"id":"p2","stock":4},"seq":1,"ts":2}` + "\n")
	_, _ = f.WriteString(`{"id":"e3","key":"product#p1","value":{"id":"p1","stock":8},"seq":2,"ts":3}` + "\n")
	_ = f.Close()

	st := state.NewInMemoryStore()
	r := NewRestorer(st, manifest.NewFilesystemManifest(base), base, clPath)
	res, err := r.RestoreAndReplay()
	if err != nil {
		t.Fatalf("RestoreAndReplay error: %v", err)
	}

	// With lastChangelogOffset=1, the first line is skipped; the remaining 2 apply.
	if res.Applied != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	rec, ok := st.Get("product#p1")
	if !ok || rec.Seq != 2 {
		t.Fatalf("p1 not at seq 2: %+v ok=%v", rec, ok)
	}
}

func TestRestoreFromSnapshot_LoadsState(t *testing.T) {
	base := t.TempDir()
	sid := "sid-001"
	dir := filepath.Join(base, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dump := snapshot.File{
		SnapshotID:  sid,
		TakenAt:     1700000000,
		RecordCount: 2,
		Records: map[string]state.Record{
			"user#1":     {Value: []byte(`{"id":1}`), Seq: 2},
			"product#p1": {Value: []byte(`{"id":"p1"}`), Seq: 1},
		},
	}
	b, err := json.Marshal(&dump)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), b, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	st := state.NewInMemoryStore()
	r := NewRestorer(st, nil, base, "")
	if err := r.RestoreFromSnapshot(sid); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if rec, ok := st.Get("user#1"); !ok || rec.Seq != 2 {
		t.Fatalf("user record wrong: %+v ok=%v", rec, ok)
	}
}

func TestRestoreFromSnapshot_MissingIsNotFatal(t *testing.T) {
	st := state.NewInMemoryStore()
	r := NewRestorer(st, nil, t.TempDir(), "")
	if err := r.RestoreFromSnapshot("does-not-exist"); err != nil {
		t.Fatalf("missing snapshot should not error: %v", err)
	}
}
