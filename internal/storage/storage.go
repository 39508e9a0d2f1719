// Package storage persists the domain records on a state.Store backend.
// Every write goes through put, which bumps the per-key sequence and emits
// a changelog event, so any backend can be rebuilt from snapshot + replay.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"beanstand/internal/changelog"
	"beanstand/internal/errs"
	"beanstand/internal/metrics"
	"beanstand/internal/model"
	"beanstand/internal/state"
)

const (
	prefixUser          = "user#"
	prefixProduct       = "product#"
	prefixBeanStock     = "beans#"
	prefixDeliveryOrder = "dorder#"
	prefixRetailOrder   = "border#"
	prefixSubscription  = "sub#"
	keyCounters         = "counters#main"
)

func userKey(id int) string           { return fmt.Sprintf("%s%d", prefixUser, id) }
func productKey(id string) string     { return prefixProduct + id }
func beanStockKey(name string) string { return prefixBeanStock + name }
func deliveryKey(id int) string       { return fmt.Sprintf("%s%d", prefixDeliveryOrder, id) }
func retailKey(id string) string      { return prefixRetailOrder + id }
func subscriptionKey(id string) string { return prefixSubscription + id }

// counters allocates ids. Delivery order ids start at 1001; retail orders
// and subscriptions use zero-padded short ids like the originals.
type counters struct {
	NextUserID     int   `json:"next_user_id"`
	DeliveryOrders int64 `json:"delivery_orders"`
	RetailOrders   int64 `json:"retail_orders"`
	Subscriptions  int64 `json:"subscriptions"`
}

// Store is the domain-level record store. The mutex covers read-modify-write
// cycles such as id allocation; cross-record operations (checkout touching
// several products) are validated fully before the first write.
type Store struct {
	mu   sync.Mutex
	st   state.Store
	clog changelog.Writer
	met  *metrics.Registry

	// NowUnix is swappable for deterministic tests.
	NowUnix func() int64
}

func New(st state.Store, clog changelog.Writer) *Store {
	return &Store{st: st, clog: clog, NowUnix: func() int64 { return time.Now().UTC().Unix() }}
}

// WithMetrics attaches a metrics registry; nil is fine and disables counting.
func (s *Store) WithMetrics(met *metrics.Registry) *Store {
	s.met = met
	return s
}

// put writes v under key with the next sequence and emits a changelog
// event. A changelog failure is logged, not fatal: the store remains the
// source of truth and the next snapshot covers the gap.
func (s *Store) put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errs.Transport(err, "encode %s", key)
	}
	cur, _ := s.st.Get(key)
	seq := cur.Seq + 1
	if _, err := s.st.Put(key, b, seq); err != nil {
		return errs.Transport(err, "write %s", key)
	}
	if s.clog != nil {
		if err := s.clog.Append(changelog.NewEvent(key, b, seq, s.NowUnix())); err != nil {
			log.Printf("storage: changelog append %s: %v", key, err)
		} else if s.met != nil {
			s.met.ChangelogAppended.Inc()
		}
	}
	return nil
}

func (s *Store) get(key string, v any) (bool, error) {
	rec, ok := s.st.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(rec.Value, v); err != nil {
		return false, errs.Transport(err, "decode %s", key)
	}
	return true, nil
}

func (s *Store) counters() counters {
	var c counters
	ok, err := s.get(keyCounters, &c)
	if err != nil || !ok {
		return counters{NextUserID: 1}
	}
	if c.NextUserID == 0 {
		c.NextUserID = 1
	}
	return c
}

// Empty reports whether no users exist yet; the server seeds demo data then.
// A backend scan failure is an error, not emptiness, so a broken store is
// never seeded over.
func (s *Store) Empty() (bool, error) {
	count := 0
	if err := s.st.Scan(prefixUser, func(string, state.Record) error { count++; return nil }); err != nil {
		return false, errs.Transport(err, "scan users")
	}
	return count == 0, nil
}

// --- users ---

// CreateUser assigns an id and stores the user. Emails are login ids and
// must be unique.
func (s *Store) CreateUser(u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, err := s.userByEmailLocked(u.Email); err == nil && existing.ID != 0 {
		return model.User{}, errs.Validation("email %s is already registered", u.Email)
	}
	c := s.counters()
	u.ID = c.NextUserID
	c.NextUserID++
	if err := s.put(userKey(u.ID), u); err != nil {
		return model.User{}, err
	}
	if err := s.put(keyCounters, c); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SaveUser overwrites an existing user record.
func (s *Store) SaveUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(userKey(u.ID), u)
}

func (s *Store) User(id int) (model.User, error) {
	var u model.User
	ok, err := s.get(userKey(id), &u)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, errs.NotFound("user %d not found", id)
	}
	return u, nil
}

func (s *Store) userByEmailLocked(email string) (model.User, error) {
	var found model.User
	err := s.st.Scan(prefixUser, func(_ string, rec state.Record) error {
		var u model.User
		if err := json.Unmarshal(rec.Value, &u); err != nil {
			return err
		}
		if u.Email == email {
			found = u
		}
		return nil
	})
	if err != nil {
		return model.User{}, errs.Transport(err, "scan users")
	}
	if found.ID == 0 {
		return model.User{}, errs.NotFound("user %s not found", email)
	}
	return found, nil
}

func (s *Store) UserByEmail(email string) (model.User, error) {
	return s.userByEmailLocked(email)
}

func (s *Store) ListUsers() ([]model.User, error) {
	var out []model.User
	err := s.st.Scan(prefixUser, func(_ string, rec state.Record) error {
		var u model.User
		if err := json.Unmarshal(rec.Value, &u); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan users")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- products ---

func (s *Store) SaveProduct(p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(productKey(p.ID), p)
}

func (s *Store) Product(id string) (model.Product, error) {
	var p model.Product
	ok, err := s.get(productKey(id), &p)
	if err != nil {
		return model.Product{}, err
	}
	if !ok {
		return model.Product{}, errs.NotFound("product %s not found", id)
	}
	return p, nil
}

func (s *Store) ListProducts() ([]model.Product, error) {
	var out []model.Product
	err := s.st.Scan(prefixProduct, func(_ string, rec state.Record) error {
		var p model.Product
		if err := json.Unmarshal(rec.Value, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan products")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- delivery bean stock ---

func (s *Store) SaveBeanStock(b model.BeanStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(beanStockKey(b.Name), b)
}

func (s *Store) BeanStock(name string) (model.BeanStock, error) {
	var b model.BeanStock
	ok, err := s.get(beanStockKey(name), &b)
	if err != nil {
		return model.BeanStock{}, err
	}
	if !ok {
		return model.BeanStock{}, errs.NotFound("bean variety %s not found", name)
	}
	return b, nil
}

func (s *Store) ListBeanStock() ([]model.BeanStock, error) {
	var out []model.BeanStock
	err := s.st.Scan(prefixBeanStock, func(_ string, rec state.Record) error {
		var b model.BeanStock
		if err := json.Unmarshal(rec.Value, &b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan bean stock")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- delivery orders ---

// CreateDeliveryOrder allocates the next id (1001, 1002, ...) and stores
// the order.
func (s *Store) CreateDeliveryOrder(o model.DeliveryOrder) (model.DeliveryOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters()
	c.DeliveryOrders++
	o.ID = int(1000 + c.DeliveryOrders)
	if err := s.put(deliveryKey(o.ID), o); err != nil {
		return model.DeliveryOrder{}, err
	}
	if err := s.put(keyCounters, c); err != nil {
		return model.DeliveryOrder{}, err
	}
	return o, nil
}

func (s *Store) SaveDeliveryOrder(o model.DeliveryOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(deliveryKey(o.ID), o)
}

func (s *Store) DeliveryOrder(id int) (model.DeliveryOrder, error) {
	var o model.DeliveryOrder
	ok, err := s.get(deliveryKey(id), &o)
	if err != nil {
		return model.DeliveryOrder{}, err
	}
	if !ok {
		return model.DeliveryOrder{}, errs.NotFound("delivery order %d not found", id)
	}
	return o, nil
}

func (s *Store) ListDeliveryOrders() ([]model.DeliveryOrder, error) {
	var out []model.DeliveryOrder
	err := s.st.Scan(prefixDeliveryOrder, func(_ string, rec state.Record) error {
		var o model.DeliveryOrder
		if err := json.Unmarshal(rec.Value, &o); err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan delivery orders")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeliveryOrdersByUser(userID int) ([]model.DeliveryOrder, error) {
	all, err := s.ListDeliveryOrders()
	if err != nil {
		return nil, err
	}
	var out []model.DeliveryOrder
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- retail orders ---

// CreateRetailOrder allocates the next bo-NNN id and stores the order.
func (s *Store) CreateRetailOrder(o model.RetailOrder) (model.RetailOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters()
	c.RetailOrders++
	o.OrderID = fmt.Sprintf("bo-%03d", c.RetailOrders)
	if err := s.put(retailKey(o.OrderID), o); err != nil {
		return model.RetailOrder{}, err
	}
	if err := s.put(keyCounters, c); err != nil {
		return model.RetailOrder{}, err
	}
	return o, nil
}

func (s *Store) SaveRetailOrder(o model.RetailOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(retailKey(o.OrderID), o)
}

func (s *Store) RetailOrder(id string) (model.RetailOrder, error) {
	var o model.RetailOrder
	ok, err := s.get(retailKey(id), &o)
	if err != nil {
		return model.RetailOrder{}, err
	}
	if !ok {
		return model.RetailOrder{}, errs.NotFound("bean order %s not found", id)
	}
	return o, nil
}

func (s *Store) ListRetailOrders() ([]model.RetailOrder, error) {
	var out []model.RetailOrder
	err := s.st.Scan(prefixRetailOrder, func(_ string, rec state.Record) error {
		var o model.RetailOrder
		if err := json.Unmarshal(rec.Value, &o); err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan bean orders")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (s *Store) RetailOrdersByUser(userID int) ([]model.RetailOrder, error) {
	all, err := s.ListRetailOrders()
	if err != nil {
		return nil, err
	}
	var out []model.RetailOrder
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- subscriptions ---

// CreateSubscription allocates the next sc-NNN id and stores the contract.
func (s *Store) CreateSubscription(c model.Subscription) (model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cnt := s.counters()
	cnt.Subscriptions++
	c.ID = fmt.Sprintf("sc-%03d", cnt.Subscriptions)
	if err := s.put(subscriptionKey(c.ID), c); err != nil {
		return model.Subscription{}, err
	}
	if err := s.put(keyCounters, cnt); err != nil {
		return model.Subscription{}, err
	}
	return c, nil
}

func (s *Store) SaveSubscription(c model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(subscriptionKey(c.ID), c)
}

func (s *Store) Subscription(id string) (model.Subscription, error) {
	var c model.Subscription
	ok, err := s.get(subscriptionKey(id), &c)
	if err != nil {
		return model.Subscription{}, err
	}
	if !ok {
		return model.Subscription{}, errs.NotFound("subscription %s not found", id)
	}
	return c, nil
}

func (s *Store) ListSubscriptions() ([]model.Subscription, error) {
	var out []model.Subscription
	err := s.st.Scan(prefixSubscription, func(_ string, rec state.Record) error {
		var c model.Subscription
		if err := json.Unmarshal(rec.Value, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, errs.Transport(err, "scan subscriptions")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
