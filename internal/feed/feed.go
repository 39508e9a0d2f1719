// Package feed builds the admin fulfillment feed: one flat, newest-first
// list covering both order kinds, with display labels mapped from the raw
// statuses.
package feed

import (
	"sort"
	"strconv"

	"beanstand/internal/errs"
	"beanstand/internal/model"
	"beanstand/internal/storage"
)

// Entry is one feed row. AllowedStatuses carries the raw status values an
// admin may move the order to from here.
type Entry struct {
	OrderType       string   `json:"order_type"` // delivery | retail
	OrderID         string   `json:"order_id"`
	CustomerName    string   `json:"customer_name"`
	Date            string   `json:"date"`
	Amount          int64    `json:"amount"`
	StatusLabel     string   `json:"status_label"`
	PaymentLabel    string   `json:"payment_label"`
	Drillable       bool     `json:"drillable"`
	AllowedStatuses []string `json:"allowed_statuses"`
	CreatedAt       int64    `json:"created_at"`
}

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service { return &Service{store: store} }

func deliveryStatusLabel(s model.DeliveryStatus) string {
	switch s {
	case model.DeliveryPending:
		return "new"
	case model.DeliveryDelivered:
		return "complete"
	case model.DeliveryCancelled:
		return "cancelled"
	}
	return string(s)
}

func retailStatusLabel(s model.RetailStatus) string {
	switch s {
	case model.RetailPaid:
		return "new"
	case model.RetailShipped:
		return "preparing"
	case model.RetailDelivered:
		return "complete"
	}
	return string(s)
}

// Build assembles the feed for an admin, newest first. Customer names are
// resolved per order; an unknown user id renders as an empty name rather
// than failing the whole feed.
func (s *Service) Build(actor model.User) ([]Entry, error) {
	if !actor.IsAdmin() {
		return nil, errs.Authorization("the fulfillment feed requires the admin role")
	}

	names := map[int]string{}
	name := func(id int) string {
		if n, ok := names[id]; ok {
			return n
		}
		u, err := s.store.User(id)
		if err != nil {
			names[id] = ""
			return ""
		}
		names[id] = u.Name
		return u.Name
	}

	var out []Entry

	delivery, err := s.store.ListDeliveryOrders()
	if err != nil {
		return nil, err
	}
	for _, o := range delivery {
		var allowed []string
		for _, st := range o.Status.AllowedNext() {
			allowed = append(allowed, string(st))
		}
		out = append(out, Entry{
			OrderType:    "delivery",
			OrderID:      strconv.Itoa(o.ID),
			CustomerName: name(o.UserID),
			Date:         o.Date,
			StatusLabel:  deliveryStatusLabel(o.Status),
			// Deliveries are settled out of band, never through checkout.
			PaymentLabel:    "unsettled",
			AllowedStatuses: allowed,
			CreatedAt:       o.CreatedAt,
		})
	}

	retail, err := s.store.ListRetailOrders()
	if err != nil {
		return nil, err
	}
	for _, o := range retail {
		var allowed []string
		for _, st := range o.Status.AllowedNext() {
			allowed = append(allowed, string(st))
		}
		payment := "unsettled"
		if o.Status == model.RetailPaid {
			payment = "settled"
		}
		out = append(out, Entry{
			OrderType:       "retail",
			OrderID:         o.OrderID,
			CustomerName:    name(o.UserID),
			Date:            o.Date,
			Amount:          o.TotalPrice,
			StatusLabel:     retailStatusLabel(o.Status),
			PaymentLabel:    payment,
			Drillable:       true,
			AllowedStatuses: allowed,
			CreatedAt:       o.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}
