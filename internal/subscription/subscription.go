// Package subscription manages recurring retail-order contracts and the
// renewal cycle that advances them.
package subscription

import (
	"time"

	"github.com/google/uuid"

	"beanstand/internal/errs"
	"beanstand/internal/metrics"
	"beanstand/internal/model"
	"beanstand/internal/storage"
)

var NowUnix = func() int64 { return time.Now().UTC().Unix() }

// ItemSet collects contract lines while refusing duplicate product ids.
// A duplicate Add is silently dropped rather than failing the whole form.
type ItemSet struct {
	items []model.SubscriptionItem
	seen  map[string]bool
}

func NewItemSet() *ItemSet { return &ItemSet{seen: map[string]bool{}} }

// Add appends a line unless the product is already present. It reports
// whether the line was taken.
func (s *ItemSet) Add(productID string, quantity int64) bool {
	if s.seen[productID] || quantity < 1 {
		return false
	}
	s.seen[productID] = true
	s.items = append(s.items, model.SubscriptionItem{ProductID: productID, Quantity: quantity})
	return true
}

func (s *ItemSet) Items() []model.SubscriptionItem {
	out := make([]model.SubscriptionItem, len(s.items))
	copy(out, s.items)
	return out
}

type Service struct {
	store *storage.Store
	met   *metrics.Registry // optional
}

func NewService(store *storage.Store, met *metrics.Registry) *Service {
	return &Service{store: store, met: met}
}

// CreateRequest is the admin subscription form.
type CreateRequest struct {
	UserID           int                      `json:"user_id"`
	PlanName         string                   `json:"plan_name"`
	Interval         model.Interval           `json:"interval"`
	NextDeliveryDate string                   `json:"next_delivery_date"`
	Status           model.SubscriptionStatus `json:"status"`
	Items            []model.SubscriptionItem `json:"items"`
}

// Create validates and stores a new contract. The item list must be
// non-empty, free of duplicate product ids and reference existing products;
// the renewal counter always starts at zero.
func (s *Service) Create(actor model.User, req CreateRequest) (model.Subscription, error) {
	if !actor.IsAdmin() {
		return model.Subscription{}, errs.Authorization("creating subscriptions requires the admin role")
	}
	if len(req.Items) == 0 {
		return model.Subscription{}, errs.Validation("a subscription needs at least one item")
	}
	seen := map[string]bool{}
	for _, it := range req.Items {
		if seen[it.ProductID] {
			return model.Subscription{}, errs.Validation("duplicate product %s in item list", it.ProductID)
		}
		seen[it.ProductID] = true
		if it.Quantity < 1 {
			return model.Subscription{}, errs.Validation("quantity for %s must be at least 1", it.ProductID)
		}
		if _, err := s.store.Product(it.ProductID); err != nil {
			return model.Subscription{}, err
		}
	}
	if !model.ValidInterval(req.Interval) {
		return model.Subscription{}, errs.Validation("unknown interval %q", req.Interval)
	}
	status := req.Status
	if status == "" {
		status = model.SubActive
	}
	if !model.ValidSubscriptionStatus(status) {
		return model.Subscription{}, errs.Validation("unknown status %q", status)
	}
	if _, err := time.Parse("2006-01-02", req.NextDeliveryDate); err != nil {
		return model.Subscription{}, errs.Validation("next delivery date must be YYYY-MM-DD")
	}
	if _, err := s.store.User(req.UserID); err != nil {
		return model.Subscription{}, err
	}

	sub, err := s.store.CreateSubscription(model.Subscription{
		UserID:           req.UserID,
		PlanName:         req.PlanName,
		Interval:         req.Interval,
		NextDeliveryDate: req.NextDeliveryDate,
		Status:           status,
		Items:            req.Items,
		RenewalCount:     0,
		CreatedAt:        NowUnix(),
	})
	if err != nil {
		return model.Subscription{}, err
	}
	if s.met != nil {
		s.met.SubscriptionsCreated.Inc()
	}
	return sub, nil
}

// List returns every contract; admin only.
func (s *Service) List(actor model.User) ([]model.Subscription, error) {
	if !actor.IsAdmin() {
		return nil, errs.Authorization("listing subscriptions requires the admin role")
	}
	return s.store.ListSubscriptions()
}

func nextDate(current string, interval model.Interval) (string, error) {
	t, err := time.Parse("2006-01-02", current)
	if err != nil {
		return "", errs.Validation("bad next delivery date %q", current)
	}
	switch interval {
	case model.IntervalMonthly:
		t = t.AddDate(0, 1, 0)
	case model.IntervalBiWeekly:
		t = t.AddDate(0, 0, 14)
	default:
		return "", errs.Validation("unknown interval %q", interval)
	}
	return t.Format("2006-01-02"), nil
}

// Advance runs one renewal cycle for an active contract: it places a retail
// order from the contract lines priced at today's catalog, then bumps the
// renewal counter and the next delivery date in the same record write.
func (s *Service) Advance(id string) (model.Subscription, error) {
	sub, err := s.store.Subscription(id)
	if err != nil {
		return model.Subscription{}, err
	}
	if sub.Status != model.SubActive {
		return model.Subscription{}, errs.Conflict("subscription %s is %s, not active", id, sub.Status)
	}
	user, err := s.store.User(sub.UserID)
	if err != nil {
		return model.Subscription{}, err
	}

	now := NowUnix()
	var total int64
	items := make([]model.RetailItem, 0, len(sub.Items))
	for _, it := range sub.Items {
		p, err := s.store.Product(it.ProductID)
		if err != nil {
			return model.Subscription{}, err
		}
		total += p.Price * it.Quantity
		items = append(items, model.RetailItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
		})
	}
	if _, err := s.store.CreateRetailOrder(model.RetailOrder{
		UserID:     sub.UserID,
		Date:       sub.NextDeliveryDate,
		Items:      items,
		TotalPrice: total,
		Status:     model.RetailPaid,
		History: []model.HistoryEntry{{
			ID:        uuid.NewString(),
			ActorID:   user.ID,
			ActorName: user.Name,
			Action:    "subscription renewal " + sub.ID,
			Timestamp: now,
		}},
		CreatedAt: now,
	}); err != nil {
		return model.Subscription{}, err
	}

	next, err := nextDate(sub.NextDeliveryDate, sub.Interval)
	if err != nil {
		return model.Subscription{}, err
	}
	sub.RenewalCount++
	sub.NextDeliveryDate = next
	if err := s.store.SaveSubscription(sub); err != nil {
		return model.Subscription{}, err
	}
	if s.met != nil {
		s.met.RenewalsApplied.Inc()
	}
	return sub, nil
}

// SetStatus changes the contract state; admin only.
func (s *Service) SetStatus(actor model.User, id string, to model.SubscriptionStatus) (model.Subscription, error) {
	if !actor.IsAdmin() {
		return model.Subscription{}, errs.Authorization("changing subscriptions requires the admin role")
	}
	if !model.ValidSubscriptionStatus(to) {
		return model.Subscription{}, errs.Validation("unknown status %q", to)
	}
	sub, err := s.store.Subscription(id)
	if err != nil {
		return model.Subscription{}, err
	}
	sub.Status = to
	if err := s.store.SaveSubscription(sub); err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}
