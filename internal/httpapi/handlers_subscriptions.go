package httpapi

import (
	"encoding/json"
	"net/http"

	"beanstand/internal/model"
	"beanstand/internal/subscription"
)

// handleSubscriptions serves GET and POST /admin/subscriptions.
func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request, u model.User) {
	switch r.Method {
	case http.MethodGet:
		subs, err := s.subs.List(u)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	case http.MethodPost:
		var req subscription.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		created, err := s.subs.Create(u, req)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
