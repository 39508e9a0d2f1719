// Package manifest tracks which snapshot is current and how much of the
// changelog it already covers. A restore loads the named snapshot and
// replays only events past the recorded offset.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const latestFile = "manifest.latest.json"

// NowUnix is swappable for deterministic tests.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

// Manifest is the latest-snapshot pointer.
type Manifest struct {
	SnapshotID           string `json:"snapshot_id"`
	LastChangelogOffset  int64  `json:"last_changelog_offset"`
	CreatedAtEpochSecond int64  `json:"created_at"`
}

type Publisher interface {
	PublishLatest(snapshotID string, lastChangelogOffset int64) error
}

type Reader interface {
	ReadLatest() (Manifest, error)
}

// MultiPublisherImpl fans a manifest out to several sinks in order; the
// first failure stops the chain.
type MultiPublisherImpl struct {
	pubs []Publisher
}

func MultiPublisher(pubs ...Publisher) Publisher {
	return &MultiPublisherImpl{pubs: pubs}
}

func (m *MultiPublisherImpl) PublishLatest(snapshotID string, lastChangelogOffset int64) error {
	for _, p := range m.pubs {
		if err := p.PublishLatest(snapshotID, lastChangelogOffset); err != nil {
			return err
		}
	}
	return nil
}

func newManifest(snapshotID string, lastChangelogOffset int64) Manifest {
	return Manifest{
		SnapshotID:           snapshotID,
		LastChangelogOffset:  lastChangelogOffset,
		CreatedAtEpochSecond: NowUnix(),
	}
}

// FilesystemManifest keeps manifest.latest.json next to the snapshots.
type FilesystemManifest struct {
	baseDir string
}

func NewFilesystemManifest(baseDir string) *FilesystemManifest {
	return &FilesystemManifest{baseDir: baseDir}
}

// PublishLatest replaces the pointer file through a temp file and rename,
// so readers never see a torn manifest.
func (f *FilesystemManifest) PublishLatest(snapshotID string, lastChangelogOffset int64) error {
	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(newManifest(snapshotID, lastChangelogOffset), "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp := filepath.Join(f.baseDir, latestFile+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return os.Rename(tmp, filepath.Join(f.baseDir, latestFile))
}

func (f *FilesystemManifest) ReadLatest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, latestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}

// KafkaManifest publishes the pointer as a keyed record on a compacted
// topic; compaction keeps only the newest manifest per key.
type KafkaManifest struct {
	writer kafkaMessageWriter
	key    []byte
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaManifest creates a Kafka manifest publisher. bootstrap can be
// comma-separated brokers.
func NewKafkaManifest(bootstrap string, topic string, key string) *KafkaManifest {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		if a = strings.TrimSpace(a); a != "" {
			brokers = append(brokers, a)
		}
	}
	return &KafkaManifest{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, key: []byte(key)}
}

func (k *KafkaManifest) PublishLatest(snapshotID string, lastChangelogOffset int64) error {
	b, err := json.Marshal(newManifest(snapshotID, lastChangelogOffset))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(context.Background(), kafka.Message{Key: k.key, Value: b})
}

// NewKafkaManifestWith is only for tests to inject a fake writer.
func NewKafkaManifestWith(w kafkaMessageWriter, key string) *KafkaManifest {
	return &KafkaManifest{writer: w, key: []byte(key)}
}
