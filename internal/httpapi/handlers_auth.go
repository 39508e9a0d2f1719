package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"beanstand/internal/auth"
	"beanstand/internal/model"
)

// handleToken implements an OAuth2 password-style login: form fields
// username/password, JSON body accepted too. Returns a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var email, password string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		email, password = req.Email, req.Password
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		email, password = r.PostFormValue("username"), r.PostFormValue("password")
	}

	u, err := s.store.UserByEmail(strings.TrimSpace(email))
	if err != nil || auth.CheckPassword(u.HashedPassword, password) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	token, err := s.tokens.Generate(u)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	created, err := s.store.CreateUser(model.User{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashed,
		Role:           model.RoleCustomer,
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUsersMe serves the logged-in account: GET returns it, PATCH applies
// a partial update. Email is the login id and cannot change.
func (s *Server) handleUsersMe(w http.ResponseWriter, r *http.Request, u model.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, u)
	case http.MethodPatch:
		var req struct {
			Name           *string `json:"name"`
			Department     *string `json:"department"`
			PreferredBeans *string `json:"preferred_beans"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Department != nil {
			u.Department = *req.Department
		}
		if req.PreferredBeans != nil {
			u.PreferredBeans = *req.PreferredBeans
		}
		if err := s.store.SaveUser(u); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, u model.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !u.IsAdmin() {
		writeError(w, http.StatusForbidden, "you do not have permission to access this resource")
		return
	}
	users, err := s.store.ListUsers()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
