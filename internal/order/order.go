// Package order implements order placement for both order kinds. Placement
// is all-or-nothing: every validation and stock check runs before the first
// write, so a rejected order leaves no partial state behind.
package order

import (
	"time"

	"github.com/google/uuid"

	"beanstand/internal/errs"
	"beanstand/internal/metrics"
	"beanstand/internal/model"
	"beanstand/internal/storage"
)

// NowUnix returns current time in epoch seconds. Split for testability.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }

func today() string { return time.Unix(NowUnix(), 0).UTC().Format("2006-01-02") }

type Service struct {
	store *storage.Store
	met   *metrics.Registry // optional
}

func NewService(store *storage.Store, met *metrics.Registry) *Service {
	return &Service{store: store, met: met}
}

// DeliveryRequest is the customer's delivery order form.
type DeliveryRequest struct {
	Time  string             `json:"time"`
	Size  model.DeliverySize `json:"size"`
	Beans string             `json:"beans"`
	Notes string             `json:"notes"`
}

// PlaceDelivery validates the request against the delivery-bean pool,
// decrements the variety's stock by one and stores the order as pending.
func (s *Service) PlaceDelivery(user model.User, req DeliveryRequest) (model.DeliveryOrder, error) {
	if req.Time == "" {
		return model.DeliveryOrder{}, errs.Validation("requested time is required")
	}
	if !model.ValidDeliverySize(req.Size) {
		return model.DeliveryOrder{}, errs.Validation("unknown size %q", req.Size)
	}
	stock, err := s.store.BeanStock(req.Beans)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return model.DeliveryOrder{}, errs.Validation("%s is not an available bean variety", req.Beans)
		}
		return model.DeliveryOrder{}, err
	}
	if stock.Stock <= 0 {
		return model.DeliveryOrder{}, errs.Validation("%s is out of stock", req.Beans)
	}

	stock.Stock--
	if err := s.store.SaveBeanStock(stock); err != nil {
		return model.DeliveryOrder{}, err
	}
	o := model.DeliveryOrder{
		UserID:    user.ID,
		Date:      today(),
		Time:      req.Time,
		Size:      req.Size,
		Beans:     req.Beans,
		Status:    model.DeliveryPending,
		Notes:     req.Notes,
		CreatedAt: NowUnix(),
	}
	placed, err := s.store.CreateDeliveryOrder(o)
	if err != nil {
		return model.DeliveryOrder{}, err
	}
	if s.met != nil {
		s.met.DeliveryOrdersPlaced.Inc()
	}
	return placed, nil
}

// CheckoutItem is one cart line at submission time. Prices are not taken
// from here: the catalog is consulted at checkout so the snapshot reflects
// current prices.
type CheckoutItem struct {
	ProductID   string `json:"id"`
	Quantity    int64  `json:"quantity"`
	GrindOption string `json:"grind_option,omitempty"`
}

// CheckoutRequest is the retail checkout form.
type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items"`
	ShippingAddress string         `json:"shipping_address"`
	ShippingMethod  string         `json:"shipping_method,omitempty"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	CouponCode      string         `json:"coupon_code,omitempty"`
}

// Checkout turns cart contents into a paid retail order. Unit prices are
// snapshotted from the catalog at this moment; product stock is validated
// for every line before any decrement happens.
func (s *Service) Checkout(user model.User, req CheckoutRequest) (model.RetailOrder, error) {
	start := time.Now()
	if len(req.Items) == 0 {
		return model.RetailOrder{}, errs.Validation("cart is empty")
	}

	// Validate everything first. Quantities are accumulated per product so
	// duplicate lines for the same id are checked against the combined need,
	// not each against a fresh read.
	type pick struct {
		product model.Product
		item    CheckoutItem
	}
	picks := make([]pick, 0, len(req.Items))
	products := make(map[string]model.Product)
	need := make(map[string]int64)
	var order []string
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return model.RetailOrder{}, errs.Validation("quantity for %s must be at least 1", it.ProductID)
		}
		p, ok := products[it.ProductID]
		if !ok {
			var err error
			p, err = s.store.Product(it.ProductID)
			if err != nil {
				return model.RetailOrder{}, err
			}
			products[it.ProductID] = p
			order = append(order, it.ProductID)
		}
		need[it.ProductID] += it.Quantity
		if need[it.ProductID] > p.Stock {
			return model.RetailOrder{}, errs.Validation("not enough stock for %s", p.Name)
		}
		picks = append(picks, pick{product: p, item: it})
	}

	var total int64
	items := make([]model.RetailItem, 0, len(picks))
	for _, pk := range picks {
		total += pk.product.Price * pk.item.Quantity
		items = append(items, model.RetailItem{
			ProductID:   pk.product.ID,
			ProductName: pk.product.Name,
			Quantity:    pk.item.Quantity,
			UnitPrice:   pk.product.Price,
			GrindOption: pk.item.GrindOption,
		})
	}

	for _, id := range order {
		p := products[id]
		p.Stock -= need[id]
		if err := s.store.SaveProduct(p); err != nil {
			return model.RetailOrder{}, err
		}
	}

	now := NowUnix()
	o := model.RetailOrder{
		UserID:          user.ID,
		Date:            today(),
		Items:           items,
		TotalPrice:      total,
		Status:          model.RetailPaid,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		CouponCode:      req.CouponCode,
		History: []model.HistoryEntry{{
			ID:        uuid.NewString(),
			ActorID:   user.ID,
			ActorName: user.Name,
			Action:    "order placed",
			Timestamp: now,
		}},
		CreatedAt: now,
	}
	placed, err := s.store.CreateRetailOrder(o)
	if err != nil {
		return model.RetailOrder{}, err
	}
	if s.met != nil {
		s.met.RetailOrdersPlaced.Inc()
		s.met.CheckoutLatencySec.Observe(time.Since(start).Seconds())
	}
	return placed, nil
}

// OrdersForUser returns both order kinds for one customer.
func (s *Service) OrdersForUser(userID int) ([]model.DeliveryOrder, []model.RetailOrder, error) {
	delivery, err := s.store.DeliveryOrdersByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	retail, err := s.store.RetailOrdersByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	return delivery, retail, nil
}

// AllOrders returns every order of both kinds; admin only.
func (s *Service) AllOrders(actor model.User) ([]model.DeliveryOrder, []model.RetailOrder, error) {
	if !actor.IsAdmin() {
		return nil, nil, errs.Authorization("listing all orders requires the admin role")
	}
	delivery, err := s.store.ListDeliveryOrders()
	if err != nil {
		return nil, nil, err
	}
	retail, err := s.store.ListRetailOrders()
	if err != nil {
		return nil, nil, err
	}
	return delivery, retail, nil
}

// RetailOrderDetail returns one retail order with items and history; admin
// only, since it exposes internal notes.
func (s *Service) RetailOrderDetail(actor model.User, id string) (model.RetailOrder, error) {
	if !actor.IsAdmin() {
		return model.RetailOrder{}, errs.Authorization("order detail requires the admin role")
	}
	return s.store.RetailOrder(id)
}
