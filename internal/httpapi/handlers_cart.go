package httpapi

import (
	"encoding/json"
	"net/http"

	"beanstand/internal/model"
)

// handleCart manages the per-user server-side cart: GET lists lines,
// POST mutates by op, DELETE clears.
func (s *Server) handleCart(w http.ResponseWriter, r *http.Request, u model.User) {
	c := s.carts.For(u.ID)
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, c.Lines())
	case http.MethodPost:
		var req struct {
			Op        string `json:"op"` // add | increase | decrease | remove
			ProductID string `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		switch req.Op {
		case "add":
			p, err := s.catalog.Product(req.ProductID)
			if err != nil {
				fail(w, err)
				return
			}
			c.Add(p)
		case "increase":
			c.Increase(req.ProductID)
		case "decrease":
			c.Decrease(req.ProductID)
		case "remove":
			c.Remove(req.ProductID)
		default:
			writeError(w, http.StatusBadRequest, "unknown op")
			return
		}
		writeJSON(w, http.StatusOK, c.Lines())
	case http.MethodDelete:
		c.Clear()
		writeJSON(w, http.StatusOK, c.Lines())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
