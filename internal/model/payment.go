package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the closed set of payment states. Pending transitions
// once to a terminal state; Success is terminal and idempotent.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// Terminal reports whether the status admits no further transitions from
// this transaction. Failed and Expired attempts may be superseded by a
// fresh attempt with a new authority, never mutated in place.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// PaymentTransaction records one payment attempt against an order, keyed
// by the gateway-issued authority.
type PaymentTransaction struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OrderID        uuid.UUID     `json:"orderId" db:"order_id"`
	Authority      string        `json:"authority" db:"authority"`
	Amount         int64         `json:"amount" db:"amount"`
	Status         PaymentStatus `json:"status" db:"status"`
	RefID          *string       `json:"refId,omitempty" db:"ref_id"`
	GatewayName    string        `json:"gatewayName" db:"gateway_name"`
	GatewayMessage string        `json:"gatewayMessage,omitempty" db:"gateway_message"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// VerifyResult is returned from payment verification, and replayed
// verbatim for an already-successful authority.
type VerifyResult struct {
	IsVerified bool      `json:"isVerified"`
	RefID      string    `json:"refId,omitempty"`
	OrderID    uuid.UUID `json:"orderId"`
	Message    string    `json:"message"`
}

// WebhookRequest is the gateway's asynchronous callback payload.
type WebhookRequest struct {
	Authority string  `json:"authority"`
	Status    string  `json:"status"`
	RefID     *string `json:"refId,omitempty"`
}
