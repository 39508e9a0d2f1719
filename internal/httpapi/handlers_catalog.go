package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"beanstand/internal/catalog"
	"beanstand/internal/model"
)

// coerceInt accepts a JSON number or a quoted integer string; admin form
// clients send both shapes.
func coerceInt(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return strconv.ParseInt(s, 10, 64)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	products, err := s.catalog.Products()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// handleSettings returns shop info plus the in-stock delivery-bean pool.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	beans, err := s.catalog.AvailableBeans()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coffee_shop": map[string]string{
			"name":    "Beanstand Mobile Coffee",
			"address": "Office Building 3F",
			"contact": "080-1234-5678",
		},
		"operational_hours": map[string]string{"start": "09:00", "end": "18:00"},
		"bean_inventory":    beans,
	})
}

func (s *Server) handleAllInventory(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !u.IsAdmin() {
		writeError(w, http.StatusForbidden, "you do not have permission to access this resource")
		return
	}
	products, err := s.catalog.Products()
	if err != nil {
		fail(w, err)
		return
	}
	beans, err := s.catalog.BeanStock()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"roasted_beans":  products,
		"delivery_beans": beans,
	})
}

// handleEditProduct applies a partial product update. Clients send price
// and stock as strings or numbers; both are coerced through json.Number
// and rejected when not a non-negative integer.
func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/admin/products/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req struct {
		Name        *string         `json:"name"`
		Description *string         `json:"description"`
		Price       json.RawMessage `json:"price"`
		Stock       json.RawMessage `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	upd := catalog.ProductUpdate{Name: req.Name, Description: req.Description}
	if req.Price != nil {
		n, err := coerceInt(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "price must be an integer")
			return
		}
		upd.Price = &n
	}
	if req.Stock != nil {
		n, err := coerceInt(req.Stock)
		if err != nil {
			writeError(w, http.StatusBadRequest, "stock must be an integer")
			return
		}
		upd.Stock = &n
	}

	p, err := s.catalog.EditProduct(u, id, upd)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
