package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"beanstand/internal/state"
	"beanstand/internal/storage"
	"beanstand/internal/subscription"
)

// RenewalCommand is one due-contract message, produced by an external
// scheduler that watches next_delivery_date.
type RenewalCommand struct {
	SubscriptionID string `json:"subscription_id"`
	DueDate        string `json:"due_date"`
}

// Config holds CLI flags for the renewal runner.
type Config struct {
	StateBackend   string // memory|pebble|badger
	PebbleDir      string
	BadgerDir      string
	InputSource    string // sample|kafka
	SampleFile     string
	KafkaBootstrap string
	GroupID        string
	TopicRenewals  string
	MaxMessages    int
}

func main() {
	cfg := readFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("renewals failed: %v", err)
	}
}

func readFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.StateBackend, "state-backend", "pebble", "state backend: memory|pebble|badger")
	flag.StringVar(&cfg.PebbleDir, "pebble-dir", "./data/pebble", "pebble data directory")
	flag.StringVar(&cfg.BadgerDir, "badger-dir", "./data/badger", "badger data directory")
	flag.StringVar(&cfg.InputSource, "input-source", "sample", "renewal commands source: sample|kafka")
	flag.StringVar(&cfg.SampleFile, "sample-file", "renewals.jsonl", "sample input file")
	flag.StringVar(&cfg.KafkaBootstrap, "kafka-bootstrap", "localhost:9092", "kafka bootstrap servers")
	flag.StringVar(&cfg.GroupID, "group-id", "beanstand-renewals", "consumer group id")
	flag.StringVar(&cfg.TopicRenewals, "topic-renewals", "beanstand.renewals.due", "kafka topic with due-contract commands")
	flag.IntVar(&cfg.MaxMessages, "max-messages", 0, "stop after this many kafka messages, 0 runs forever")
	flag.Parse()
	return cfg
}

func run(cfg Config) error {
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

	store := storage.New(st, nil)
	subs := subscription.NewService(store, nil)

	if cfg.InputSource == "kafka" {
		return runKafka(cfg, subs)
	}
	return runSample(cfg.SampleFile, subs)
}

func apply(subs *subscription.Service, cmd RenewalCommand) {
	sub, err := subs.Advance(cmd.SubscriptionID)
	if err != nil {
		log.Printf("renewal %s: %v", cmd.SubscriptionID, err)
		return
	}
	log.Printf("renewed %s count=%d next=%s", sub.ID, sub.RenewalCount, sub.NextDeliveryDate)
}

func runSample(path string, subs *subscription.Service) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sample: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd RenewalCommand
		if err := json.Unmarshal(line, &cmd); err != nil {
			log.Printf("skip bad line: %v", err)
			continue
		}
		apply(subs, cmd)
	}
	return sc.Err()
}

func runKafka(cfg Config, subs *subscription.Service) error {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  cfg.KafkaBootstrap,
		"group.id":           cfg.GroupID,
		"enable.auto.commit": false,
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{cfg.TopicRenewals}, nil); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("renewal runner started bootstrap=%s topic=%s", cfg.KafkaBootstrap, cfg.TopicRenewals)

	seen := 0
	for cfg.MaxMessages == 0 || seen < cfg.MaxMessages {
		msg, err := c.ReadMessage(10 * time.Second)
		if err != nil {
			continue
		}
		seen++
		var cmd RenewalCommand
		if err := json.Unmarshal(msg.Value, &cmd); err != nil {
			log.Printf("skip bad message: %v", err)
			continue
		}
		apply(subs, cmd)
		// Commit only after the renewal has been applied.
		if _, err := c.CommitMessage(msg); err != nil {
			log.Printf("commit: %v", err)
		}
	}
	return nil
}
