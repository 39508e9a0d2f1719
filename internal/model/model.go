package model

// Role controls what a user may mutate. Admins drive fulfillment and
// inventory; customers only place orders.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account record. The password hash never leaves the server.
type User struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Department     string `json:"department,omitempty"`
	PreferredBeans string `json:"preferred_beans,omitempty"`
	HashedPassword string `json:"-"`
	Role           Role   `json:"role"`
}

// IsAdmin reports whether the user holds the admin capability.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Product is a retail bean SKU. Price is integer yen, stock a unit count;
// both must stay non-negative.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	ImageURL    string `json:"image_url"`
}

// BeanStock is the delivery-side inventory counter for one bean variety.
type BeanStock struct {
	Name  string `json:"name"`
	Stock int64  `json:"stock"`
}

// DeliverySize is the cup size of an on-demand delivery.
type DeliverySize string

const (
	SizeS DeliverySize = "S"
	SizeM DeliverySize = "M"
	SizeL DeliverySize = "L"
)

// ValidDeliverySize reports whether s is a known cup size.
func ValidDeliverySize(s DeliverySize) bool {
	return s == SizeS || s == SizeM || s == SizeL
}

// DeliveryOrder is a single on-demand coffee delivery request.
type DeliveryOrder struct {
	ID        int            `json:"id"`
	UserID    int            `json:"user_id"`
	Date      string         `json:"date"` // YYYY-MM-DD
	Time      string         `json:"time"` // requested time of day
	Size      DeliverySize   `json:"size"`
	Beans     string         `json:"beans"` // delivery-bean variety name
	Status    DeliveryStatus `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	CreatedAt int64          `json:"created_at"` // epoch seconds
}

// RetailItem is one line of a retail (roasted-bean) order. UnitPrice is
// snapshotted from the catalog at order creation and never updated.
type RetailItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	GrindOption  string `json:"grind_option,omitempty"`
	RoastingDate string `json:"roasting_date,omitempty"`
	LotNumber    string `json:"lot_number,omitempty"`
}

// HistoryEntry is one row of an order's append-only action log.
type HistoryEntry struct {
	ID        string `json:"id"`
	ActorID   int    `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"` // epoch seconds
}

// RetailOrder is a checkout of packaged-bean products. TotalPrice is the sum
// of UnitPrice*Quantity computed at creation and immutable afterwards.
type RetailOrder struct {
	OrderID         string         `json:"order_id"` // bo-001 style
	UserID          int            `json:"user_id"`
	Date            string         `json:"date"` // YYYY-MM-DD
	Items           []RetailItem   `json:"items"`
	TotalPrice      int64          `json:"total_price"`
	Status          RetailStatus   `json:"status"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	ShippingMethod  string         `json:"shipping_method,omitempty"`
	ShippingAddress string         `json:"shipping_address"`
	ShippingCarrier string         `json:"shipping_carrier,omitempty"`
	TrackingNumber  string         `json:"tracking_number,omitempty"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	InternalNotes   string         `json:"internal_notes,omitempty"`
	History         []HistoryEntry `json:"history"`
	CreatedAt       int64          `json:"created_at"` // epoch seconds
}

// Interval is a subscription delivery cadence.
type Interval string

const (
	IntervalMonthly  Interval = "monthly"
	IntervalBiWeekly Interval = "bi-weekly"
)

// ValidInterval reports whether i is a supported cadence.
func ValidInterval(i Interval) bool {
	return i == IntervalMonthly || i == IntervalBiWeekly
}

// SubscriptionStatus is the life-cycle state of a recurring contract.
type SubscriptionStatus string

const (
	SubActive        SubscriptionStatus = "active"
	SubPaused        SubscriptionStatus = "paused"
	SubCancelled     SubscriptionStatus = "cancelled"
	SubPaymentFailed SubscriptionStatus = "payment_failed"
)

// ValidSubscriptionStatus reports whether s is a known contract state.
func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	switch s {
	case SubActive, SubPaused, SubCancelled, SubPaymentFailed:
		return true
	}
	return false
}

// SubscriptionItem references a product without a price snapshot; recurring
// deliveries are priced at delivery time.
type SubscriptionItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// Subscription is a recurring retail-order template. RenewalCount and
// NextDeliveryDate advance together on every completed cycle.
type Subscription struct {
	ID               string             `json:"id"` // sc-001 style
	UserID           int                `json:"user_id"`
	PlanName         string             `json:"plan_name"`
	Interval         Interval           `json:"interval"`
	NextDeliveryDate string             `json:"next_delivery_date"` // YYYY-MM-DD
	Status           SubscriptionStatus `json:"status"`
	Items            []SubscriptionItem `json:"items"`
	RenewalCount     int64              `json:"renewal_count"`
	CreatedAt        int64              `json:"created_at"`
}
