package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Statuts de paiement
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// OrderTransitions : transitions autorisées par statut.
// DELIVERED et CANCELLED sont terminaux (aucune sortie possible).
var OrderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValidOrderStatus vérifie qu'un statut fait partie de l'énumération
func IsValidOrderStatus(status string) bool {
	_, ok := OrderTransitions[status]
	return ok
}

// CanTransition vérifie qu'une transition from → to est autorisée
func CanTransition(from, to string) bool {
	for _, allowed := range OrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus : statut sans transition sortante
// (DELIVERED, CANCELLED)
func IsTerminalOrderStatus(status string) bool {
	return IsValidOrderStatus(status) && len(OrderTransitions[status]) == 0
}

type Order struct {
	ID                gocql.UUID  `json:"id" db:"order_id"`
	OrderNumber       string      `json:"order_number" db:"order_number"`
	UserID            string      `json:"user_id" db:"user_id"`
	Status            string      `json:"status" db:"status"`
	PaymentStatus     string      `json:"payment_status" db:"payment_status"`
	TotalCents        int64       `json:"total_cents" db:"total_cents"`
	ShippingAddress   string      `json:"shipping_address" db:"shipping_address"`
	BillingAddress    string      `json:"billing_address" db:"billing_address"`
	PaymentMethod     string      `json:"payment_method" db:"payment_method"`
	Notes             string      `json:"notes,omitempty" db:"notes"`
	CheckoutSessionID string      `json:"checkout_session_id,omitempty" db:"checkout_session_id"`
	PaymentVersion    int64       `json:"-" db:"payment_version"`
	Items             []OrderItem `json:"items,omitempty"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem : instantané immuable du prix pris à la création de la commande,
// découplé de toute modification ultérieure du produit
type OrderItem struct {
	OrderID         gocql.UUID `json:"order_id" db:"order_id"`
	ProductID       gocql.UUID `json:"product_id" db:"product_id"`
	SKU             string     `json:"sku" db:"sku"`
	Name            string     `json:"name" db:"name"`
	Quantity        int        `json:"quantity" db:"quantity"`
	UnitPriceCents  int64      `json:"unit_price_cents" db:"unit_price_cents"`
	TotalPriceCents int64      `json:"total_price_cents" db:"total_price_cents"`
}

// OrderStats : agrégats pour GET /api/orders/stats
type OrderStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	RevenueCents int64          `json:"revenue_cents"`
}
