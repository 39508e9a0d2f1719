package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Record is one versioned entry. Seq increases by one per successful write
// to a key; replaying the changelog re-applies writes idempotently because
// stale sequences are skipped.
type Record struct {
	Value json.RawMessage `json:"value"`
	Seq   int64           `json:"seq"`
}

// Store abstracts the record backend. Put applies only when seq is greater
// than the stored sequence for the key, so the same write can be replayed
// any number of times.
type Store interface {
	Put(key string, value []byte, seq int64) (applied bool, err error)
	Get(key string) (Record, bool)
	Scan(prefix string, fn func(key string, rec Record) error) error
	LoadAll(all map[string]Record)
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]Record)}
}

// LoadAll replaces the store contents with the provided snapshot.
func (s *InMemoryStore) LoadAll(all map[string]Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Record, len(all))
	for k, v := range all {
		s.data[k] = v
	}
}

func (s *InMemoryStore) Put(key string, value []byte, seq int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.data[key]
	if seq <= cur.Seq {
		return false, nil
	}
	s.data[key] = Record{Value: append(json.RawMessage(nil), value...), Seq: seq}
	return true, nil
}

func (s *InMemoryStore) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[key]
	return rec, ok
}

func (s *InMemoryStore) Scan(prefix string, fn func(key string, rec Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := fn(k, v); err != nil {
			return fmt.Errorf("scan callback failed: %w", err)
		}
	}
	return nil
}
