package model

// DeliveryStatus is the state of an on-demand delivery order.
// pending is the only non-terminal state.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// ValidDeliveryStatus reports whether s is a member of the delivery vocabulary.
func ValidDeliveryStatus(s DeliveryStatus) bool {
	switch s {
	case DeliveryPending, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

// CanTransition reports whether s -> to is a legal edge. The only edges are
// pending -> delivered and pending -> cancelled; delivered and cancelled are
// terminal.
func (s DeliveryStatus) CanTransition(to DeliveryStatus) bool {
	if s != DeliveryPending {
		return false
	}
	return to == DeliveryDelivered || to == DeliveryCancelled
}

// AllowedNext returns the legal target statuses from s.
func (s DeliveryStatus) AllowedNext() []DeliveryStatus {
	if s != DeliveryPending {
		return nil
	}
	return []DeliveryStatus{DeliveryDelivered, DeliveryCancelled}
}

// RetailStatus is the state of a retail (bean) order. Orders enter at paid
// and only move forward one step at a time; there is no cancellation edge.
type RetailStatus string

const (
	RetailPaid      RetailStatus = "paid"
	RetailShipped   RetailStatus = "shipped"
	RetailDelivered RetailStatus = "delivered"
)

// ValidRetailStatus reports whether s is a member of the retail vocabulary.
func ValidRetailStatus(s RetailStatus) bool {
	switch s {
	case RetailPaid, RetailShipped, RetailDelivered:
		return true
	}
	return false
}

// Next returns the single forward step from s, if any.
func (s RetailStatus) Next() (RetailStatus, bool) {
	switch s {
	case RetailPaid:
		return RetailShipped, true
	case RetailShipped:
		return RetailDelivered, true
	}
	return "", false
}

// CanTransition reports whether s -> to is legal. Skip-ahead transitions
// (paid -> delivered) are rejected: only the single forward step is allowed.
func (s RetailStatus) CanTransition(to RetailStatus) bool {
	next, ok := s.Next()
	return ok && to == next
}

// AllowedNext returns the legal target statuses from s.
func (s RetailStatus) AllowedNext() []RetailStatus {
	if next, ok := s.Next(); ok {
		return []RetailStatus{next}
	}
	return nil
}
