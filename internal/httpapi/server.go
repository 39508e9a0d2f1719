// Package httpapi exposes the storefront and admin API over HTTP. Handlers
// decode and authenticate, then delegate to the domain services; all policy
// lives below this layer.
package httpapi

import (
	"net/http"
	"strings"

	"beanstand/internal/auth"
	"beanstand/internal/cart"
	"beanstand/internal/catalog"
	"beanstand/internal/feed"
	"beanstand/internal/model"
	"beanstand/internal/order"
	"beanstand/internal/storage"
	"beanstand/internal/subscription"
)

type Server struct {
	store   *storage.Store
	tokens  *auth.TokenManager
	orders  *order.Service
	catalog *catalog.Service
	subs    *subscription.Service
	feed    *feed.Service
	carts   *cart.Registry
}

func NewServer(store *storage.Store, tokens *auth.TokenManager, orders *order.Service,
	cat *catalog.Service, subs *subscription.Service, fd *feed.Service) *Server {
	return &Server{
		store:   store,
		tokens:  tokens,
		orders:  orders,
		catalog: cat,
		subs:    subs,
		feed:    fd,
		carts:   cart.NewRegistry(),
	}
}

// Routes builds the full route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/users", s.handleCreateUser)
	mux.HandleFunc("/users/me", s.requireUser(s.handleUsersMe))
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/products", s.handleProducts)
	mux.HandleFunc("/orders/me", s.requireUser(s.handleOrdersMe))
	mux.HandleFunc("/orders", s.requireUser(s.handlePlaceDelivery))
	mux.HandleFunc("/bean_orders", s.requireUser(s.handlePlaceRetail))
	mux.HandleFunc("/cart", s.requireUser(s.handleCart))

	mux.HandleFunc("/admin/all_orders", s.requireUser(s.handleAllOrders))
	mux.HandleFunc("/admin/all_inventory", s.requireUser(s.handleAllInventory))
	mux.HandleFunc("/admin/orders/", s.requireUser(s.handleDeliveryStatus))
	mux.HandleFunc("/admin/bean_orders/", s.requireUser(s.handleBeanOrders))
	mux.HandleFunc("/admin/products/", s.requireUser(s.handleEditProduct))
	mux.HandleFunc("/admin/subscriptions", s.requireUser(s.handleSubscriptions))
	mux.HandleFunc("/admin/users", s.requireUser(s.handleAdminUsers))
	mux.HandleFunc("/admin/feed", s.requireUser(s.handleFeed))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

// requireUser authenticates the bearer token and resolves the account
// before the handler runs. 401 covers everything token-shaped going wrong.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, model.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		u, err := s.store.UserByEmail(claims.Subject)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		next(w, r, u)
	}
}
