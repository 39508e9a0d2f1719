package state

import "testing"

func TestPut_SeqRules(t *testing.T) {
	s := NewInMemoryStore()

	applied, err := s.Put("product#p1", []byte(`{"id":"p1"}`), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatalf("first put should apply")
	}
	rec, ok := s.Get("product#p1")
	if !ok || rec.Seq != 1 || string(rec.Value) != `{"id":"p1"}` {
		t.Fatalf("unexpected record after first put: %+v ok=%v", rec, ok)
	}

	// Lower or equal seq should not apply (idempotency during replay)
	applied, err = s.Put("product#p1", []byte(`{"id":"stale"}`), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatalf("put with same seq should not apply")
	}
	rec, _ = s.Get("product#p1")
	if rec.Seq != 1 || string(rec.Value) != `{"id":"p1"}` {
		t.Fatalf("record should be unchanged: %+v", rec)
	}

	// Higher seq replaces the value
	applied, err = s.Put("product#p1", []byte(`{"id":"p1","stock":3}`), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatalf("higher seq should apply")
	}
	rec, _ = s.Get("product#p1")
	if rec.Seq != 2 || string(rec.Value) != `{"id":"p1","stock":3}` {
		t.Fatalf("unexpected record after second put: %+v", rec)
	}
}

func TestScan_PrefixFilter(t *testing.T) {
	s := NewInMemoryStore()
	puts := map[string]string{
		"product#p1": `1`,
		"product#p2": `2`,
		"user#7":     `3`,
	}
	for k, v := range puts {
		if _, err := s.Put(k, []byte(v), 1); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	seen := map[string]bool{}
	if err := s.Scan("product#", func(key string, rec Record) error {
		seen[key] = true
		return nil
	}); err != nil {
		t.Fatalf("scan err: %v", err)
	}
	if len(seen) != 2 || !seen["product#p1"] || !seen["product#p2"] {
		t.Fatalf("unexpected scan result: %v", seen)
	}
}

func TestLoadAll_ReplacesContents(t *testing.T) {
	s := NewInMemoryStore()
	_, _ = s.Put("stale#1", []byte(`x`), 5)

	s.LoadAll(map[string]Record{
		"user#1": {Value: []byte(`{"id":1}`), Seq: 3},
	})

	if _, ok := s.Get("stale#1"); ok {
		t.Fatalf("stale key should be gone after LoadAll")
	}
	rec, ok := s.Get("user#1")
	if !ok || rec.Seq != 3 {
		t.Fatalf("snapshot record missing or wrong: %+v ok=%v", rec, ok)
	}
}
