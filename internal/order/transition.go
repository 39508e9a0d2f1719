package order

import (
	"github.com/google/uuid"

	"beanstand/internal/errs"
	"beanstand/internal/model"
)

// SetDeliveryStatus moves a delivery order along its lifecycle. Authorization
// is checked before any order lookup so customers cannot probe for valid ids.
func (s *Service) SetDeliveryStatus(actor model.User, orderID int, to model.DeliveryStatus) (model.DeliveryOrder, error) {
	if !actor.IsAdmin() {
		return model.DeliveryOrder{}, errs.Authorization("status changes require the admin role")
	}
	if !model.ValidDeliveryStatus(to) {
		return model.DeliveryOrder{}, errs.Validation("unknown status %q", to)
	}
	o, err := s.store.DeliveryOrder(orderID)
	if err != nil {
		return model.DeliveryOrder{}, err
	}
	if !o.Status.CanTransition(to) {
		if s.met != nil {
			s.met.TransitionsRejected.Inc()
		}
		return model.DeliveryOrder{}, errs.Conflict("cannot move delivery order from %s to %s", o.Status, to)
	}
	o.Status = to
	if err := s.store.SaveDeliveryOrder(o); err != nil {
		return model.DeliveryOrder{}, err
	}
	if s.met != nil {
		s.met.StatusTransitions.Inc()
	}
	return o, nil
}

// SetRetailStatus advances a retail order by exactly one step and records
// who did it in the order history.
func (s *Service) SetRetailStatus(actor model.User, orderID string, to model.RetailStatus) (model.RetailOrder, error) {
	if !actor.IsAdmin() {
		return model.RetailOrder{}, errs.Authorization("status changes require the admin role")
	}
	if !model.ValidRetailStatus(to) {
		return model.RetailOrder{}, errs.Validation("unknown status %q", to)
	}
	o, err := s.store.RetailOrder(orderID)
	if err != nil {
		return model.RetailOrder{}, err
	}
	if !o.Status.CanTransition(to) {
		if s.met != nil {
			s.met.TransitionsRejected.Inc()
		}
		return model.RetailOrder{}, errs.Conflict("cannot move retail order from %s to %s", o.Status, to)
	}
	o.Status = to
	o.History = append(o.History, model.HistoryEntry{
		ID:        uuid.NewString(),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    "status changed to " + string(to),
		Timestamp: NowUnix(),
	})
	if err := s.store.SaveRetailOrder(o); err != nil {
		return model.RetailOrder{}, err
	}
	if s.met != nil {
		s.met.StatusTransitions.Inc()
	}
	return o, nil
}
