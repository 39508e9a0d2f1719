package changelog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestFileWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, "beanstand.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	e1 := NewEvent("product#p1", []byte(`{"id":"p1"}`), 1, 1)
	e2 := NewEvent("border#bo-001", []byte(`{"status":"paid"}`), 1, 2)
	if err := w.Append(e1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := w.Append(e2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "beanstand.jsonl"))
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	var got []Event
	for s.Scan() {
		var e Event
		if err := json.Unmarshal(s.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, e)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 lines, got %d", len(got))
	}
	if got[0].Key != e1.Key || got[0].Seq != 1 || got[0].ID != e1.ID {
		t.Fatalf("mismatch line 1: %+v vs %+v", got[0], e1)
	}
	if got[1].Key != e2.Key || string(got[1].Value) != `{"status":"paid"}` {
		t.Fatalf("mismatch line 2: %+v vs %+v", got[1], e2)
	}
}

func TestCountingWriter_Counts(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(dir, "beanstand.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	cw := NewCountingWriter(fw)
	for i := 1; i <= 3; i++ {
		if err := cw.Append(NewEvent("k", []byte(`{}`), int64(i), int64(i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if cw.Count() != 3 {
		t.Fatalf("count=%d want=3", cw.Count())
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_Append_Success(t *testing.T) {
	fk := &fakeKafkaWriter{}
	kw := NewKafkaWriterWith(fk)
	e := NewEvent("sub#sc-001", []byte(`{"renewal_count":1}`), 2, 9)
	if err := kw.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("want 1 msg, got %d", len(fk.msgs))
	}
	if string(fk.msgs[0].Key) != "sub#sc-001" {
		t.Fatalf("bad message key: %s", fk.msgs[0].Key)
	}
	var decoded Event
	if err := json.Unmarshal(fk.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Seq != 2 || decoded.ID != e.ID {
		t.Fatalf("payload mismatch: %+v", decoded)
	}
}

func TestKafkaWriter_Append_Failure(t *testing.T) {
	fk := &fakeKafkaWriter{fail: true}
	kw := NewKafkaWriterWith(fk)
	if err := kw.Append(NewEvent("k", []byte(`{}`), 1, 1)); err == nil {
		t.Fatalf("expected error from failing writer")
	}
}

func TestMultiWriter_FansOut(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(dir, "a.jsonl")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	fk := &fakeKafkaWriter{}
	mw := NewMultiWriter(fw, NewKafkaWriterWith(fk))

	if err := mw.Append(NewEvent("k", []byte(`{}`), 1, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fk.msgs) != 1 {
		t.Fatalf("kafka leg missed the event")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jsonl")); err != nil {
		t.Fatalf("file leg missed the event: %v", err)
	}
}
