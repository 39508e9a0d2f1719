package state

import (
	"testing"
)

func TestPebbleStore_PutSeqRulesAndGet(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	applied, err := st.Put("border#bo-001", []byte(`{"status":"paid"}`), 1)
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	if !applied {
		t.Fatalf("first put should apply")
	}

	// same seq => idempotent skip
	applied, err = st.Put("border#bo-001", []byte(`{"status":"shipped"}`), 1)
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	if applied {
		t.Fatalf("should skip same-seq put")
	}
	rec, ok := st.Get("border#bo-001")
	if !ok || rec.Seq != 1 || string(rec.Value) != `{"status":"paid"}` {
		t.Fatalf("record changed by skipped put: %+v ok=%v", rec, ok)
	}

	// higher seq wins
	applied, err = st.Put("border#bo-001", []byte(`{"status":"shipped"}`), 2)
	if err != nil {
		t.Fatalf("put err: %v", err)
	}
	if !applied {
		t.Fatalf("higher seq should apply")
	}
	rec, ok = st.Get("border#bo-001")
	if !ok || rec.Seq != 2 || string(rec.Value) != `{"status":"shipped"}` {
		t.Fatalf("get mismatch: %+v ok=%v", rec, ok)
	}
}

func TestPebbleStore_LoadAllAndScan(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	dump := map[string]Record{
		"product#p1": {Value: []byte(`{"id":"p1"}`), Seq: 1},
		"user#1":     {Value: []byte(`{"id":1}`), Seq: 2},
	}
	st.LoadAll(dump)

	if rec, ok := st.Get("product#p1"); !ok || rec.Seq != 1 {
		t.Fatalf("bad product record: %+v ok=%v", rec, ok)
	}
	if rec, ok := st.Get("user#1"); !ok || rec.Seq != 2 {
		t.Fatalf("bad user record: %+v ok=%v", rec, ok)
	}

	// prefix scan should visit only the product record
	count := 0
	if err := st.Scan("product#", func(key string, rec Record) error { count++; return nil }); err != nil {
		t.Fatalf("scan err: %v", err)
	}
	if count != 1 {
		t.Fatalf("scan count=%d want=1", count)
	}
}
