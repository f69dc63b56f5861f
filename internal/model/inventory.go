package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryTransactionType is the closed set of ledger entry kinds.
type InventoryTransactionType string

const (
	TxTypeStockIn    InventoryTransactionType = "stock_in"
	TxTypeStockOut   InventoryTransactionType = "stock_out"
	TxTypeSale       InventoryTransactionType = "sale"
	TxTypeReturn     InventoryTransactionType = "return"
	TxTypeAdjustment InventoryTransactionType = "adjustment"
)

// Valid reports whether t is a known transaction type.
func (t InventoryTransactionType) Valid() bool {
	switch t {
	case TxTypeStockIn, TxTypeStockOut, TxTypeSale, TxTypeReturn, TxTypeAdjustment:
		return true
	}
	return false
}

// InventoryTransaction is one immutable entry in the append-only stock
// ledger. StockBefore and StockAfter are written atomically with the
// variant's stock counter, so the log is always reconstructible.
type InventoryTransaction struct {
	ID              uuid.UUID                `json:"id" db:"id"`
	VariantID       uuid.UUID                `json:"variantId" db:"variant_id"`
	Type            InventoryTransactionType `json:"type" db:"type"`
	QuantityChange  int                      `json:"quantityChange" db:"quantity_change"`
	StockBefore     int                      `json:"stockBefore" db:"stock_before"`
	StockAfter      int                      `json:"stockAfter" db:"stock_after"`
	OrderItemID     *uuid.UUID               `json:"orderItemId,omitempty" db:"order_item_id"`
	UserID          *uuid.UUID               `json:"userId,omitempty" db:"user_id"`
	Notes           string                   `json:"notes" db:"notes"`
	ReferenceNumber *string                  `json:"referenceNumber,omitempty" db:"reference_number"`
	CreatedAt       time.Time                `json:"createdAt" db:"created_at"`
}

// LedgerEntry describes a stock mutation to be recorded.
type LedgerEntry struct {
	VariantID       uuid.UUID
	Type            InventoryTransactionType
	QuantityChange  int
	OrderItemID     *uuid.UUID
	UserID          *uuid.UUID
	Notes           string
	ReferenceNumber *string
}

// AdjustStockRequest is the admin request payload for a manual adjustment.
type AdjustStockRequest struct {
	VariantID       uuid.UUID                `json:"variantId"`
	Type            InventoryTransactionType `json:"type"`
	QuantityChange  int                      `json:"quantityChange"`
	Notes           string                   `json:"notes"`
	ReferenceNumber *string                  `json:"referenceNumber,omitempty"`
}
