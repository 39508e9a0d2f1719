package state

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func encodeRecord(rec Record) ([]byte, error) { return json.Marshal(rec) }

func decodeRecord(val []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (b *BadgerStore) Put(key string, value []byte, seq int64) (bool, error) {
	var applied bool
	err := b.db.Update(func(txn *badger.Txn) error {
		var cur Record
		item, err := txn.Get([]byte(key))
		if err == nil {
			v, e := item.ValueCopy(nil)
			if e != nil {
				return e
			}
			cur, e = decodeRecord(v)
			if e != nil {
				return e
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if seq <= cur.Seq {
			applied = false
			return nil
		}
		bytes, e := encodeRecord(Record{Value: value, Seq: seq})
		if e != nil {
			return e
		}
		if e = txn.Set([]byte(key), bytes); e != nil {
			return e
		}
		applied = true
		return nil
	})
	return applied, err
}

func (b *BadgerStore) Get(key string) (Record, bool) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(key))
		if e != nil {
			return e
		}
		v, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		var dErr error
		rec, dErr = decodeRecord(v)
		return dErr
	})
	if err != nil {
		return Record{}, false
	}
	return rec, true
}

func (b *BadgerStore) Scan(prefix string, fn func(key string, rec Record) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if err := fn(string(k), rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll loads a full snapshot into Badger by replacing all keys.
func (b *BadgerStore) LoadAll(all map[string]Record) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		// Collect keys first to avoid mutating while iterating.
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		var keysToDelete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			keysToDelete = append(keysToDelete, k)
		}
		it.Close()
		for _, k := range keysToDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for k, rec := range all {
			bytes, err := encodeRecord(rec)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(k), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}
