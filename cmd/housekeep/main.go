// Command housekeep runs the process-start maintenance bundle against a
// stored namespace: legacy auth-key migration, both one-shot data
// migrations, and an orphan sweep across the default shop plus every
// browsable shop. Optionally takes a snapshot afterwards and serves
// metrics while running.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"cfp/internal/backup"
	"cfp/internal/journal"
	"cfp/internal/kvport"
	"cfp/internal/metrics"
	"cfp/internal/storage"
)

type Config struct {
	Backend     string // memory|pebble|badger
	DataDir     string
	SnapshotDir string
	Snapshot    bool
	MetricsAddr string
	JournalDir  string
	JournalOn   bool
	// Kafka sink for the change journal
	KafkaBootstrap string
	TopicChanges   string
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("housekeep failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Backend, "backend", "pebble", "storage backend: memory|pebble|badger")
	flag.StringVar(&cfg.DataDir, "data-dir", "./data/cfp", "data directory")
	flag.StringVar(&cfg.SnapshotDir, "snapshot-dir", "./snapshots", "snapshot directory")
	flag.BoolVar(&cfg.Snapshot, "snapshot", false, "write a snapshot after housekeeping")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve /metrics on this address, e.g. :2112")
	flag.StringVar(&cfg.JournalDir, "journal-dir", "./journal", "change journal directory")
	flag.BoolVar(&cfg.JournalOn, "journal", false, "journal structural changes to a JSONL file")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.TopicChanges, "topic-changes", "cfp.changes", "kafka topic for the change journal")
	flag.Parse()
	return cfg
}

func openPort(cfg Config) (kvport.Port, func(), error) {
	switch cfg.Backend {
	case "badger":
		bp, err := kvport.NewBadgerPort(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("init badger: %w", err)
		}
		return bp, func() { _ = bp.Close() }, nil
	case "memory":
		return kvport.NewMemoryPort(), func() {}, nil
	default:
		pp, err := kvport.NewPebblePort(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("init pebble: %w", err)
		}
		return pp, func() { _ = pp.Close() }, nil
	}
}

func run(cfg Config) error {
	log.Printf("starting housekeep backend=%s dir=%s", cfg.Backend, cfg.DataDir)

	port, closePort, err := openPort(cfg)
	if err != nil {
		return err
	}
	defer closePort()

	reg := metrics.NewRegistry()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	store := storage.New(port)
	store.SetMetrics(reg)

	var writers []journal.Writer
	if cfg.JournalOn {
		fw, err := journal.NewFileWriter(cfg.JournalDir, "changes.jsonl")
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		writers = append(writers, fw)
	}
	if cfg.KafkaBootstrap != "" {
		writers = append(writers, journal.NewKafkaWriter(cfg.KafkaBootstrap, cfg.TopicChanges))
	}
	if len(writers) == 1 {
		store.SetJournal(writers[0])
	} else if len(writers) > 1 {
		store.SetJournal(journal.NewMultiWriter(writers...))
	}

	start := time.Now()
	if err := store.BootHousekeeping(); err != nil {
		return fmt.Errorf("boot housekeeping: %w", err)
	}

	total := 0
	for _, shop := range store.ListBrowsableShops() {
		rep := store.SweepOrphanDataForShop(shop.ID)
		if rep.Total() > 0 {
			log.Printf("swept shop=%s name=%q removed=%d", shop.ID, shop.Name, rep.Total())
		}
		total += rep.Total()
	}
	log.Printf("housekeeping done in %s, removed %d orphan keys", time.Since(start), total)

	if cfg.Snapshot {
		b := backup.NewFilesystemBackup(cfg.SnapshotDir)
		id := time.Now().UTC().Format("20060102T150405Z")
		m, err := b.WriteSnapshot(id, port)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		log.Printf("snapshot %s written (%d keys)", m.SnapshotID, m.KeyCount)
	}
	return nil
}
