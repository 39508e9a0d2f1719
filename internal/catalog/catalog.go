// Package catalog owns product definitions and the two inventory pools:
// retail product stock by SKU and delivery-bean stock by variety.
package catalog

import (
	"beanstand/internal/errs"
	"beanstand/internal/metrics"
	"beanstand/internal/model"
	"beanstand/internal/storage"
)

type Service struct {
	store *storage.Store
	met   *metrics.Registry // optional
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// WithMetrics attaches a metrics registry; nil is fine and disables counting.
func (s *Service) WithMetrics(met *metrics.Registry) *Service {
	s.met = met
	return s
}

func (s *Service) Products() ([]model.Product, error) {
	return s.store.ListProducts()
}

func (s *Service) Product(id string) (model.Product, error) {
	return s.store.Product(id)
}

// BeanStock lists the delivery-bean inventory, including sold-out varieties.
func (s *Service) BeanStock() ([]model.BeanStock, error) {
	return s.store.ListBeanStock()
}

// AvailableBeans returns variety -> stock for varieties with stock left;
// this is what customers see when choosing a delivery.
func (s *Service) AvailableBeans() (map[string]int64, error) {
	all, err := s.store.ListBeanStock()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, b := range all {
		if b.Stock > 0 {
			out[b.Name] = b.Stock
		}
	}
	return out, nil
}

// ProductUpdate carries the admin edit form. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int64
}

// EditProduct applies a partial update to a product. Price and stock must
// be non-negative; any failure leaves the stored record exactly as it was.
func (s *Service) EditProduct(actor model.User, id string, upd ProductUpdate) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, errs.Authorization("editing products requires the admin role")
	}
	p, err := s.store.Product(id)
	if err != nil {
		return model.Product{}, err
	}
	if upd.Price != nil && *upd.Price < 0 {
		return model.Product{}, errs.Validation("price must be a non-negative integer")
	}
	if upd.Stock != nil && *upd.Stock < 0 {
		return model.Product{}, errs.Validation("stock must be a non-negative integer")
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	if err := s.store.SaveProduct(p); err != nil {
		return model.Product{}, err
	}
	if s.met != nil {
		s.met.ProductEdits.Inc()
	}
	return p, nil
}
