package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions defines the allowed status moves. Delivered and
// cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransitionTo reports whether the order may move to the target status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Order represents a customer order. It is created exactly once inside the
// checkout transaction and afterwards only transitions status or payment
// flags. (UserID, IdempotencyKey) is unique.
type Order struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	UserID           uuid.UUID   `json:"userId" db:"user_id"`
	Status           OrderStatus `json:"status" db:"status"`
	TotalAmount      int64       `json:"totalAmount" db:"total_amount"`
	ShippingCost     int64       `json:"shippingCost" db:"shipping_cost"`
	DiscountAmount   int64       `json:"discountAmount" db:"discount_amount"`
	FinalAmount      int64       `json:"finalAmount" db:"final_amount"`
	IsPaid           bool        `json:"isPaid" db:"is_paid"`
	IdempotencyKey   string      `json:"-" db:"idempotency_key"`
	ShippingMethodID uuid.UUID   `json:"shippingMethodId" db:"shipping_method_id"`
	UserAddressID    uuid.UUID   `json:"userAddressId" db:"user_address_id"`
	Version          int64       `json:"-" db:"version"`
	CreatedAt        time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line item with prices snapshotted at checkout time.
// Amount and Profit are never recomputed from live catalog prices.
type OrderItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OrderID       uuid.UUID `json:"-" db:"order_id"`
	VariantID     uuid.UUID `json:"variantId" db:"variant_id"`
	Quantity      int       `json:"quantity" db:"quantity"`
	SellingPrice  int64     `json:"sellingPrice" db:"selling_price"`
	PurchasePrice int64     `json:"-" db:"purchase_price"`
	Amount        int64     `json:"amount" db:"amount"`
	Profit        int64     `json:"-" db:"profit"`
}

// CheckoutRequest is the request payload for checkout-from-cart. The
// idempotency key arrives in a request header and the user identity from
// the auth collaborator; both are injected explicitly by the handler.
type CheckoutRequest struct {
	ShippingMethodID uuid.UUID `json:"shippingMethodId"`
	UserAddressID    uuid.UUID `json:"userAddressId"`
	DiscountCode     *string   `json:"discountCode,omitempty"`
	CallbackURL      string    `json:"callbackUrl"`
}

// CheckoutInput carries the full, explicit input of one checkout attempt.
type CheckoutInput struct {
	UserID           uuid.UUID
	IdempotencyKey   string
	ShippingMethodID uuid.UUID
	UserAddressID    uuid.UUID
	DiscountCode     *string
	CallbackURL      string
	ClientIP         string
}

// CheckoutResponse is returned to the caller to start the payment leg.
type CheckoutResponse struct {
	OrderID    uuid.UUID `json:"orderId"`
	Authority  string    `json:"authority"`
	PaymentURL string    `json:"paymentUrl"`
}

// OrderResponse is the order detail payload.
type OrderResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// ShippingMethod is the boundary read from the shipping collaborator.
type ShippingMethod struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Cost     int64     `json:"cost" db:"cost"`
	IsActive bool      `json:"isActive" db:"is_active"`
}

// UserAddress is the boundary read used for ownership validation.
type UserAddress struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"userId" db:"user_id"`
}
