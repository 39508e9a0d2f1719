package state

import (
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryStore_ConcurrentPutsDifferentKeys(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	keys := []string{"product#p1", "product#p2", "border#bo-001", "user#4"}
	iters := 1000

	for _, k := range keys {
		k := k
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= iters; i++ {
				val := []byte(fmt.Sprintf(`{"n":%d}`, i))
				if _, err := s.Put(k, val, int64(i)); err != nil {
					t.Errorf("put err: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, k := range keys {
		rec, ok := s.Get(k)
		if !ok {
			t.Fatalf("missing key %s", k)
		}
		if rec.Seq != int64(iters) {
			t.Fatalf("bad record for %s: %+v", k, rec)
		}
	}
}
