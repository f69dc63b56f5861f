package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountRestrictionKind is the closed set of restriction kinds.
type DiscountRestrictionKind string

const (
	RestrictionUser     DiscountRestrictionKind = "user"
	RestrictionCategory DiscountRestrictionKind = "category"
)

// DiscountRestriction limits who or what a code applies to. A user
// restriction also carries the per-user usage cap.
type DiscountRestriction struct {
	ID         uuid.UUID               `json:"id" db:"id"`
	DiscountID uuid.UUID               `json:"discountId" db:"discount_id"`
	Kind       DiscountRestrictionKind `json:"kind" db:"kind"`
	TargetID   uuid.UUID               `json:"targetId" db:"target_id"`
	UsageCap   int                     `json:"usageCap" db:"usage_cap"`
}

// DiscountCode is a percentage discount with an optional cap, minimum
// order amount, global usage limit and restriction list.
type DiscountCode struct {
	ID                uuid.UUID             `json:"id" db:"id"`
	Code              string                `json:"code" db:"code"`
	Percentage        int                   `json:"percentage" db:"percentage"`
	MaxDiscountAmount *int64                `json:"maxDiscountAmount,omitempty" db:"max_discount_amount"`
	MinOrderAmount    int64                 `json:"minOrderAmount" db:"min_order_amount"`
	UsageLimit        *int                  `json:"usageLimit,omitempty" db:"usage_limit"`
	UsedCount         int                   `json:"usedCount" db:"used_count"`
	IsActive          bool                  `json:"isActive" db:"is_active"`
	ExpiresAt         *time.Time            `json:"expiresAt,omitempty" db:"expires_at"`
	Restrictions      []DiscountRestriction `json:"restrictions,omitempty"`
}

// Amount computes the discount for the given order total: floor of the
// percentage share, capped by MaxDiscountAmount when set.
func (d *DiscountCode) Amount(orderTotal int64) int64 {
	amount := orderTotal * int64(d.Percentage) / 100
	if d.MaxDiscountAmount != nil && amount > *d.MaxDiscountAmount {
		amount = *d.MaxDiscountAmount
	}
	return amount
}

// DiscountUsage links a code to a user and order. Each row implies exactly
// one increment of the code's UsedCount; Confirmed flips on payment success.
type DiscountUsage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	DiscountID uuid.UUID `json:"discountId" db:"discount_id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	OrderID    uuid.UUID `json:"orderId" db:"order_id"`
	Confirmed  bool      `json:"confirmed" db:"confirmed"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
