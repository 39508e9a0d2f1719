package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"beanstand/internal/auth"
	"beanstand/internal/catalog"
	"beanstand/internal/changelog"
	"beanstand/internal/feed"
	"beanstand/internal/httpapi"
	"beanstand/internal/manifest"
	"beanstand/internal/metrics"
	"beanstand/internal/order"
	"beanstand/internal/restore"
	"beanstand/internal/seed"
	"beanstand/internal/snapshot"
	"beanstand/internal/state"
	"beanstand/internal/storage"
	"beanstand/internal/subscription"
)

// Config holds CLI flags for the API server.
type Config struct {
	Addr             string
	TokenSecret      string
	StateBackend     string // memory|pebble|badger
	PebbleDir        string
	BadgerDir        string
	SnapshotDir      string
	SnapshotInterval int
	ChangelogDir     string
	ChangelogFile    string
	ChangelogSink    string // file|kafka|both
	ManifestSink     string // file|kafka|both
	ManifestSource   string // file|kafka
	KafkaBootstrap   string
	TopicChangelog   string
	TopicSnapshots   string
	SeedDemo         bool
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "dev-secret-change-me", "HMAC secret for access tokens")
	flag.StringVar(&cfg.StateBackend, "state-backend", "pebble", "state backend: memory|pebble|badger")
	flag.StringVar(&cfg.PebbleDir, "pebble-dir", "./data/pebble", "pebble data directory")
	flag.StringVar(&cfg.BadgerDir, "badger-dir", "./data/badger", "badger data directory")
	flag.StringVar(&cfg.SnapshotDir, "snapshot-dir", "./snapshots", "snapshot directory")
	flag.IntVar(&cfg.SnapshotInterval, "snapshot-interval", 60, "snapshot interval seconds, 0 disables")
	flag.StringVar(&cfg.ChangelogDir, "changelog-dir", "./changelog", "changelog directory")
	flag.StringVar(&cfg.ChangelogFile, "changelog-file", "beanstand.jsonl", "changelog file name")
	flag.StringVar(&cfg.ChangelogSink, "changelog-sink", "file", "changelog sink: file|kafka|both")
	flag.StringVar(&cfg.ManifestSink, "manifest-sink", "file", "manifest sink: file|kafka|both")
	flag.StringVar(&cfg.ManifestSource, "manifest-source", "file", "manifest source for restore: file|kafka")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "", "kafka bootstrap servers, e.g. localhost:9092")
	flag.StringVar(&cfg.TopicChangelog, "topic-changelog", "beanstand.changelog", "kafka topic for changelog (compacted)")
	flag.StringVar(&cfg.TopicSnapshots, "topic-snapshots", "beanstand.snapshots", "kafka topic for manifest (compacted)")
	flag.BoolVar(&cfg.SeedDemo, "seed-demo", true, "seed demo data when the store is empty")
	flag.Parse()
	return cfg
}

func run(cfg Config) error {
	log.Printf("starting server addr=%s backend=%s snapshot-interval=%ds",
		cfg.Addr, cfg.StateBackend, cfg.SnapshotInterval)

	var st state.Store
	switch cfg.StateBackend {
	case "badger":
		bs, err := state.NewBadgerStore(cfg.BadgerDir)
		if err != nil {
			return fmt.Errorf("init badger: %w", err)
		}
		defer bs.Close()
		st = bs
	case "pebble":
		ps, err := state.NewPebbleStore(cfg.PebbleDir)
		if err != nil {
			return fmt.Errorf("init pebble: %w", err)
		}
		defer ps.Close()
		st = ps
	default:
		st = state.NewInMemoryStore()
	}

	// Changelog sinks. The counting wrapper tracks the offset the next
	// manifest will carry.
	var clog changelog.Writer
	changelogPath := cfg.ChangelogDir + "/" + cfg.ChangelogFile
	if cfg.ChangelogSink == "file" || cfg.ChangelogSink == "both" || cfg.ChangelogSink == "" {
		fw, err := changelog.NewFileWriter(cfg.ChangelogDir, cfg.ChangelogFile)
		if err != nil {
			return fmt.Errorf("init changelog file: %w", err)
		}
		clog = fw
	}
	if (cfg.ChangelogSink == "kafka" || cfg.ChangelogSink == "both") && cfg.KafkaBootstrap != "" {
		kw := changelog.NewKafkaWriter(cfg.KafkaBootstrap, cfg.TopicChangelog)
		if clog == nil {
			clog = kw
		} else {
			clog = changelog.NewMultiWriter(clog, kw)
		}
	}
	counting := changelog.NewCountingWriter(clog)

	// Manifest sinks and restore source.
	maniFS := manifest.NewFilesystemManifest(cfg.SnapshotDir)
	var mani manifest.Publisher = maniFS
	var maniReader manifest.Reader = restore.NewFilesystemReader(cfg.SnapshotDir)
	if (cfg.ManifestSink == "kafka" || cfg.ManifestSink == "both") && cfg.KafkaBootstrap != "" {
		maniK := manifest.NewKafkaManifest(cfg.KafkaBootstrap, cfg.TopicSnapshots, "beanstand-manifest-latest")
		if cfg.ManifestSink == "kafka" {
			mani = maniK
		} else {
			mani = manifest.MultiPublisher(maniFS, maniK)
		}
		if cfg.ManifestSource == "kafka" {
			maniReader = restore.NewKafkaReader([]string{cfg.KafkaBootstrap}, cfg.TopicSnapshots, "beanstand-manifest-latest")
		}
	}

	mreg := metrics.NewRegistry()

	// Rebuild state from the last snapshot plus changelog tail. A missing
	// manifest on first boot is fine.
	rst := restore.NewRestorer(st, maniReader, cfg.SnapshotDir, changelogPath)
	if res, err := rst.RestoreAndReplay(); err != nil {
		log.Printf("restore skipped: %v", err)
	} else {
		log.Printf("restore done applied=%d skipped=%d offset=%d", res.Applied, res.Skipped, res.LastAppliedOffset)
		mreg.ReplayApplied.Add(float64(res.Applied))
		mreg.ReplaySkipped.Add(float64(res.Skipped))
		counting.SetCount(res.LastAppliedOffset)
	}

	store := storage.New(st, counting).WithMetrics(mreg)
	if cfg.SeedDemo {
		empty, err := store.Empty()
		if err != nil {
			return fmt.Errorf("check store: %w", err)
		}
		if empty {
			log.Printf("empty store, loading demo data")
			if err := seed.Load(store); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
	}

	snap := snapshot.NewFilesystemSnapshotter(cfg.SnapshotDir)
	if cfg.SnapshotInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.SnapshotInterval) * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				sid := fmt.Sprintf("snap-%d", time.Now().UTC().Unix())
				offset := counting.Count()
				if err := snap.WriteSnapshot(sid, st); err != nil {
					log.Printf("snapshot %s: %v", sid, err)
					continue
				}
				if err := mani.PublishLatest(sid, offset); err != nil {
					log.Printf("manifest %s: %v", sid, err)
					continue
				}
				log.Printf("snapshot %s offset=%d", sid, offset)
			}
		}()
	}

	tokens := auth.NewTokenManager([]byte(cfg.TokenSecret))
	srv := httpapi.NewServer(store, tokens,
		order.NewService(store, mreg),
		catalog.NewService(store).WithMetrics(mreg),
		subscription.NewService(store, mreg),
		feed.NewService(store))

	mux := srv.Routes()
	mux.Handle("/metrics", mreg.Handler())

	log.Printf("listening on %s", cfg.Addr)
	return http.ListenAndServe(cfg.Addr, mux)
}
