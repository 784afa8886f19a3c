package kvport

import (
	"fmt"
	"log"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerPort implements Port on top of BadgerDB.
type BadgerPort struct {
	db *badger.DB
}

func NewBadgerPort(dir string) (*BadgerPort, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir)).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerPort{db: db}, nil
}

func (b *BadgerPort) Close() error { return b.db.Close() }

func (b *BadgerPort) Get(key string) (string, bool) {
	var out string
	err := b.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(key))
		if e != nil {
			return e
		}
		v, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		out = string(v)
		return nil
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			log.Printf("kvport: badger get %q: %v", key, err)
		}
		return "", false
	}
	return out, true
}

func (b *BadgerPort) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

func (b *BadgerPort) Remove(key string) {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		log.Printf("kvport: badger delete %q: %v", key, err)
	}
}

func (b *BadgerPort) Keys() []string {
	var ks []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ks = append(ks, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		log.Printf("kvport: badger iter: %v", err)
	}
	return ks
}
