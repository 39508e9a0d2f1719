package state

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store using PebbleDB.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{
		// Record values are small JSON blobs; keep WAL for durability and
		// rely on defaults otherwise.
		DisableWAL: false,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func encodePebbleRecord(rec Record) ([]byte, error) { return json.Marshal(rec) }

func decodePebbleRecord(val []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (p *PebbleStore) Put(key string, value []byte, seq int64) (bool, error) {
	k := []byte(key)
	var cur Record
	v, closer, err := p.db.Get(k)
	if err == nil {
		cur, err = decodePebbleRecord(v)
		_ = closer.Close()
		if err != nil {
			return false, err
		}
	} else if err != pebble.ErrNotFound {
		return false, err
	}
	if seq <= cur.Seq {
		return false, nil
	}
	bytes, err := encodePebbleRecord(Record{Value: value, Seq: seq})
	if err != nil {
		return false, err
	}
	if err := p.db.Set(k, bytes, pebble.Sync); err != nil {
		return false, err
	}
	return true, nil
}

func (p *PebbleStore) Get(key string) (Record, bool) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		return Record{}, false
	}
	defer closer.Close()
	rec, e := decodePebbleRecord(v)
	if e != nil {
		return Record{}, false
	}
	return rec, true
}

func (p *PebbleStore) Scan(prefix string, fn func(key string, rec Record) error) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		k := string(append([]byte(nil), it.Key()...))
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v := append([]byte(nil), it.Value()...)
		rec, err := decodePebbleRecord(v)
		if err != nil {
			return err
		}
		if err := fn(k, rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads a full snapshot into Pebble by replacing all keys.
func (p *PebbleStore) LoadAll(all map[string]Record) {
	var toDelete [][]byte
	it, err := p.db.NewIter(nil)
	if err != nil {
		return
	}
	for it.First(); it.Valid(); it.Next() {
		k := append([]byte(nil), it.Key()...)
		toDelete = append(toDelete, k)
	}
	it.Close()
	if len(toDelete) > 0 {
		wb := p.db.NewBatch()
		for _, k := range toDelete {
			_ = wb.Delete(k, nil)
		}
		_ = wb.Commit(pebble.Sync)
		_ = wb.Close()
	}
	if len(all) > 0 {
		wb := p.db.NewBatch()
		for k, rec := range all {
			bytes, err := encodePebbleRecord(rec)
			if err != nil {
				continue
			}
			_ = wb.Set([]byte(k), bytes, nil)
		}
		_ = wb.Commit(pebble.Sync)
		_ = wb.Close()
	}
}
