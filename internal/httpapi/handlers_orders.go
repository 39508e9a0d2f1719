package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"beanstand/internal/model"
	"beanstand/internal/order"
)

func (s *Server) handleOrdersMe(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	delivery, retail, err := s.orders.OrdersForUser(u.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"delivery_orders": delivery,
		"bean_orders":     retail,
	})
}

func (s *Server) handlePlaceDelivery(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req order.DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	placed, err := s.orders.PlaceDelivery(u, req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

// handlePlaceRetail checks out. The server-side cart for the user is
// cleared only on success, so a failed checkout keeps the cart intact.
func (s *Server) handlePlaceRetail(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req order.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c := s.carts.For(u.ID)
	if len(req.Items) == 0 {
		for _, line := range c.Lines() {
			req.Items = append(req.Items, order.CheckoutItem{
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
			})
		}
	}
	placed, err := s.orders.Checkout(u, req)
	if err != nil {
		fail(w, err)
		return
	}
	c.Clear()
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) handleAllOrders(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	delivery, retail, err := s.orders.AllOrders(u)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"delivery_orders": delivery,
		"bean_orders":     retail,
	})
}

// handleDeliveryStatus serves PATCH /admin/orders/{id}/status.
func (s *Server) handleDeliveryStatus(w http.ResponseWriter, r *http.Request, u model.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/orders/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Status model.DeliveryStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	o, err := s.orders.SetDeliveryStatus(u, id, req.Status)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleBeanOrders serves GET /admin/bean_orders/{id} and
// PATCH /admin/bean_orders/{id}/status.
func (s *Server) handleBeanOrders(w http.ResponseWriter, r *http.Request, u model.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/bean_orders/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		o, err := s.orders.RetailOrderDetail(u, parts[0])
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	case len(parts) == 2 && parts[1] == "status":
		if r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req struct {
			Status model.RetailStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		o, err := s.orders.SetRetailStatus(u, parts[0], req.Status)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.feed.Build(u)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
