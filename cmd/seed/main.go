package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"beanstand/internal/model"
	"beanstand/internal/seed"
	"beanstand/internal/state"
	"beanstand/internal/storage"
)

func main() {
	var backend, pebbleDir, badgerDir string
	var orders int
	flag.StringVar(&backend, "state-backend", "pebble", "state backend: memory|pebble|badger")
	flag.StringVar(&pebbleDir, "pebble-dir", "./data/pebble", "pebble data directory")
	flag.StringVar(&badgerDir, "badger-dir", "./data/badger", "badger data directory")
	flag.IntVar(&orders, "orders", 0, "number of random delivery orders to generate")
	flag.Parse()

	if err := run(backend, pebbleDir, badgerDir, orders); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run(backend, pebbleDir, badgerDir string, orders int) error {
	var st state.Store
	switch backend {
	case "badger":
		bs, err := state.NewBadgerStore(badgerDir)
		if err != nil {
			return fmt.Errorf("init badger: %w", err)
		}
		defer bs.Close()
		st = bs
	case "pebble":
		ps, err := state.NewPebbleStore(pebbleDir)
		if err != nil {
			return fmt.Errorf("init pebble: %w", err)
		}
		defer ps.Close()
		st = ps
	default:
		st = state.NewInMemoryStore()
	}

	store := storage.New(st, nil)
	if err := seed.Load(store); err != nil {
		return fmt.Errorf("load demo data: %w", err)
	}
	log.Printf("demo data loaded")

	if orders > 0 {
		if err := generateOrders(store, orders); err != nil {
			return err
		}
	}
	return nil
}

// generateOrders places random delivery orders against existing demo
// customers for load and recovery exercises.
func generateOrders(store *storage.Store, count int) error {
	beans, err := store.ListBeanStock()
	if err != nil {
		return err
	}
	if len(beans) == 0 {
		return fmt.Errorf("no bean varieties seeded")
	}
	sizes := []model.DeliverySize{model.SizeS, model.SizeM, model.SizeL}
	base := time.Now().UTC()

	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i*10) * time.Second)
		o := model.DeliveryOrder{
			UserID:    2 + rand.Intn(2),
			Date:      ts.Format("2006-01-02"),
			Time:      fmt.Sprintf("%02d:%02d", 9+rand.Intn(9), rand.Intn(60)),
			Size:      sizes[rand.Intn(len(sizes))],
			Beans:     beans[rand.Intn(len(beans))].Name,
			Status:    model.DeliveryPending,
			CreatedAt: ts.Unix(),
		}
		if _, err := store.CreateDeliveryOrder(o); err != nil {
			return fmt.Errorf("create order %d: %w", i+1, err)
		}
	}
	log.Printf("generated %d delivery orders", count)
	return nil
}
