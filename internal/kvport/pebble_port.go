package kvport

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebblePort implements Port on top of PebbleDB.
type PebblePort struct {
	db *pebble.DB
}

func NewPebblePort(dir string) (*PebblePort, error) {
	opts := &pebble.Options{
		// Local data volumes are small; default sizing is plenty.
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 8,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebblePort{db: d}, nil
}

func (p *PebblePort) Close() error { return p.db.Close() }

// Get degrades backend failures to a miss; the localStorage contract has
// no failing reads.
func (p *PebblePort) Get(key string) (string, bool) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if err != pebble.ErrNotFound {
			log.Printf("kvport: pebble get %q: %v", key, err)
		}
		return "", false
	}
	defer closer.Close()
	return string(v), true
}

func (p *PebblePort) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %q: %w", key, err)
	}
	return nil
}

func (p *PebblePort) Remove(key string) {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		log.Printf("kvport: pebble delete %q: %v", key, err)
	}
}

func (p *PebblePort) Keys() []string {
	it, err := p.db.NewIter(nil)
	if err != nil {
		log.Printf("kvport: pebble iter: %v", err)
		return nil
	}
	defer it.Close()
	var ks []string
	for it.First(); it.Valid(); it.Next() {
		ks = append(ks, string(append([]byte(nil), it.Key()...)))
	}
	return ks
}
