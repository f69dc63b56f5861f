package model

import (
	"time"

	"github.com/google/uuid"
)

// Variant represents a purchasable SKU-level unit. The catalog owns the
// descriptive fields; the stock counter is mutated only through the
// inventory ledger and is guarded by the version token.
type Variant struct {
	ID            uuid.UUID `json:"id" db:"id"`
	SKU           string    `json:"sku" db:"sku"`
	PurchasePrice int64     `json:"purchasePrice" db:"purchase_price"`
	SellingPrice  int64     `json:"sellingPrice" db:"selling_price"`
	Stock         int       `json:"stock" db:"stock"`
	IsUnlimited   bool      `json:"isUnlimited" db:"is_unlimited"`
	Version       int64     `json:"-" db:"version"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
