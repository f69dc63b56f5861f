package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart, joined with the live variant data
// the checkout needs (price snapshot source, unlimited flag).
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	VariantID uuid.UUID `json:"variantId" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Variant   Variant   `json:"variant"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
