// Package storage is the schema-aware persistence layer on top of the
// flat key-value port. Every operation is synchronous; the concurrency
// model is a single logical writer per namespace. Two concurrent writers
// of the same collection can lose an update (last write wins at the key
// level); this is an accepted limitation, handled by re-loading after
// user actions, not by locking.
package storage

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"cfp/internal/emitter"
	"cfp/internal/journal"
	"cfp/internal/keys"
	"cfp/internal/kvport"
	"cfp/internal/metrics"
)

// Store owns the KV port and exposes the entity stores and services.
// Callers must read-modify-write whole collections, never patch in place.
type Store struct {
	port kvport.Port
	bus  *emitter.Bus

	// optional sinks
	metrics *metrics.Registry
	journal journal.Writer
}

func New(port kvport.Port) *Store {
	return &Store{port: port, bus: emitter.New()}
}

// Bus exposes the change emitter for subscribers.
func (s *Store) Bus() *emitter.Bus { return s.bus }

// SetMetrics attaches a counter registry. Nil detaches.
func (s *Store) SetMetrics(r *metrics.Registry) { s.metrics = r }

// SetJournal attaches a best-effort change journal. Nil detaches.
func (s *Store) SetJournal(w journal.Writer) { s.journal = w }

// DecodeOutcome tags how a stored payload was read, so self-healing is
// observable instead of a silent catch.
type DecodeOutcome int

const (
	// DecodeValid: payload parsed as stored.
	DecodeValid DecodeOutcome = iota
	// DecodeRecovered: key missing or payload empty; default applied.
	DecodeRecovered
	// DecodeCorrupt: payload unparsable; default applied.
	DecodeCorrupt
)

// loadJSON decodes the value at key into out, substituting nothing on
// failure: callers pass out pre-set to the typed default.
func (s *Store) loadJSON(key string, out any) DecodeOutcome {
	raw, ok := s.port.Get(key)
	if !ok || raw == "" {
		return DecodeRecovered
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("storage: corrupt payload at %q: %v", key, err)
		return DecodeCorrupt
	}
	return DecodeValid
}

// saveJSON writes the value at key. The only possible failure is quota
// exhaustion, which propagates unchanged.
func (s *Store) saveJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		// All persisted shapes are plain structs/slices/maps; a marshal
		// failure is a programming error.
		panic("storage: marshal " + key + ": " + err.Error())
	}
	if err := s.port.Set(key, string(b)); err != nil {
		if s.metrics != nil {
			s.metrics.QuotaErrors.Inc()
		}
		return err
	}
	return nil
}

func (s *Store) appendJournal(e journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(e); err != nil {
		log.Printf("storage: journal append: %v", err)
	}
}

// ensureShopID resolves an explicit shop id, falling back to the
// session's current shop and then the default shop namespace.
func (s *Store) ensureShopID(shopID string) string {
	if shopID != "" {
		return shopID
	}
	if cur, ok := s.port.Get(keys.CurrentShop); ok && cur != "" {
		return cur
	}
	return keys.DefaultShopID
}

func isBlank(v string) bool { return strings.TrimSpace(v) == "" }

func newID(prefix string) string { return prefix + "_" + uuid.NewString() }

// nowUnix is split out for testability.
var nowUnix = func() int64 { return time.Now().UTC().Unix() }
