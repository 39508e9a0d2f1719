package storage

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"beanstand/internal/changelog"
	"beanstand/internal/metrics"
	"beanstand/internal/model"
	"beanstand/internal/state"
)

func TestCreateUserAllocatesIDs(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)

	u1, err := s.CreateUser(model.User{Name: "A", Email: "a@example.com", Role: model.RoleCustomer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	u2, err := s.CreateUser(model.User{Name: "B", Email: "b@example.com", Role: model.RoleCustomer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u1.ID != 1 || u2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", u1.ID, u2.ID)
	}

	got, err := s.UserByEmail("b@example.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if got.ID != u2.ID {
		t.Fatalf("got id %d, want %d", got.ID, u2.ID)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)
	if _, err := s.CreateUser(model.User{Name: "A", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(model.User{Name: "A2", Email: "a@example.com"}); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
}

func TestOrderIDFormats(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)

	d1, err := s.CreateDeliveryOrder(model.DeliveryOrder{UserID: 1, Status: model.DeliveryPending})
	if err != nil {
		t.Fatalf("delivery: %v", err)
	}
	d2, _ := s.CreateDeliveryOrder(model.DeliveryOrder{UserID: 1, Status: model.DeliveryPending})
	if d1.ID != 1001 || d2.ID != 1002 {
		t.Fatalf("delivery ids = %d, %d, want 1001, 1002", d1.ID, d2.ID)
	}

	r1, err := s.CreateRetailOrder(model.RetailOrder{UserID: 1, Status: model.RetailPaid})
	if err != nil {
		t.Fatalf("retail: %v", err)
	}
	if r1.OrderID != "bo-001" {
		t.Fatalf("retail id = %q, want bo-001", r1.OrderID)
	}

	c1, err := s.CreateSubscription(model.Subscription{UserID: 1, Status: model.SubActive})
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	if c1.ID != "sc-001" {
		t.Fatalf("subscription id = %q, want sc-001", c1.ID)
	}
}

func TestRoundTrips(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)

	p := model.Product{ID: "p-001", Name: "Ethiopia Natural", Price: 1500, Stock: 10}
	if err := s.SaveProduct(p); err != nil {
		t.Fatalf("save product: %v", err)
	}
	got, err := s.Product("p-001")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got != p {
		t.Fatalf("got %+v, want %+v", got, p)
	}

	if _, err := s.Product("ghost"); err == nil {
		t.Fatal("expected not found")
	}

	b := model.BeanStock{Name: "house_blend", Stock: 3}
	if err := s.SaveBeanStock(b); err != nil {
		t.Fatalf("save beans: %v", err)
	}
	gotB, err := s.BeanStock("house_blend")
	if err != nil {
		t.Fatalf("get beans: %v", err)
	}
	if gotB != b {
		t.Fatalf("got %+v, want %+v", gotB, b)
	}
}

func TestByUserFiltering(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)
	for _, uid := range []int{1, 1, 2} {
		if _, err := s.CreateDeliveryOrder(model.DeliveryOrder{UserID: uid, Status: model.DeliveryPending}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mine, err := s.DeliveryOrdersByUser(1)
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d orders, want 2", len(mine))
	}
}

func TestEmpty(t *testing.T) {
	s := New(state.NewInMemoryStore(), nil)
	empty, err := s.Empty()
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if !empty {
		t.Fatal("fresh store should be empty")
	}
	if _, err := s.CreateUser(model.User{Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	empty, err = s.Empty()
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if empty {
		t.Fatal("store with a user should not be empty")
	}
}

// failingScanStore returns an error from Scan so read failures are
// distinguishable from an empty store.
type failingScanStore struct {
	state.Store
}

func (f failingScanStore) Scan(string, func(string, state.Record) error) error {
	return errors.New("backend down")
}

func TestEmptyReportsScanFailure(t *testing.T) {
	s := New(failingScanStore{Store: state.NewInMemoryStore()}, nil)
	empty, err := s.Empty()
	if err == nil {
		t.Fatal("expected scan error")
	}
	if empty {
		t.Fatal("failing backend must not read as empty")
	}
}

func TestWritesEmitChangelog(t *testing.T) {
	cw := changelog.NewCountingWriter(nil)
	s := New(state.NewInMemoryStore(), cw)
	s.NowUnix = func() int64 { return 1700000000 }

	if err := s.SaveProduct(model.Product{ID: "p-001", Name: "X", Price: 1, Stock: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if cw.Count() != 1 {
		t.Fatalf("changelog count = %d, want 1", cw.Count())
	}
}

func TestWritesCountAppendsInMetrics(t *testing.T) {
	mreg := metrics.NewRegistry()
	s := New(state.NewInMemoryStore(), changelog.NewCountingWriter(nil)).WithMetrics(mreg)

	if err := s.SaveProduct(model.Product{ID: "p-001", Name: "X", Price: 1, Stock: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveBeanStock(model.BeanStock{Name: "house_blend", Stock: 3}); err != nil {
		t.Fatalf("save beans: %v", err)
	}
	if got := testutil.ToFloat64(mreg.ChangelogAppended); got != 2 {
		t.Fatalf("changelog appended metric = %v, want 2", got)
	}
}
