package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeDiscountRejected  = "DISCOUNT_REJECTED"
	ErrCodeGateway           = "GATEWAY_ERROR"
	ErrCodeExpired           = "EXPIRED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure that is safe to show to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// Lookup failures.
	ErrVariantNotFound        = NewDomainError(ErrCodeNotFound, "Variant not found")
	ErrOrderNotFound          = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrDiscountNotFound       = NewDomainError(ErrCodeDiscountRejected, "Discount code not found")
	ErrPaymentNotFound        = NewDomainError(ErrCodeNotFound, "Payment transaction not found")
	ErrShippingMethodNotFound = NewDomainError(ErrCodeValidation, "Shipping method not found")

	// Checkout validation.
	ErrCartEmpty        = NewDomainError(ErrCodeValidation, "Cart is empty")
	ErrAddressNotOwned  = NewDomainError(ErrCodeValidation, "Address does not belong to the user")
	ErrInvalidQuantity  = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrCheckoutLimited  = NewDomainError(ErrCodeRateLimited, "Too many checkout attempts, try again shortly")
	ErrMissingIdemKey   = NewDomainError(ErrCodeValidation, "Idempotency key is required")
	ErrInvalidOrderMove = NewDomainError(ErrCodeValidation, "Order status transition not allowed")

	// Stock and concurrency.
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock for one or more items")
	ErrVersionConflict    = NewDomainError(ErrCodeConflict, "Row was modified concurrently, refresh and retry")
	ErrConcurrencyRetries = NewDomainError(ErrCodeConflict, "Repeated concurrency conflict, giving up")

	// Discount eligibility, in validation order.
	ErrDiscountInactive   = NewDomainError(ErrCodeDiscountRejected, "Discount code is not active")
	ErrDiscountExpired    = NewDomainError(ErrCodeDiscountRejected, "Discount code has expired")
	ErrDiscountUsageLimit = NewDomainError(ErrCodeDiscountRejected, "Discount code usage limit reached")
	ErrDiscountMinOrder   = NewDomainError(ErrCodeDiscountRejected, "Order total is below the discount minimum")
	ErrDiscountWrongUser  = NewDomainError(ErrCodeDiscountRejected, "Discount code is restricted to another user")
	ErrDiscountCategory   = NewDomainError(ErrCodeDiscountRejected, "Discount code is not valid for these items")
	ErrDiscountUserCap    = NewDomainError(ErrCodeDiscountRejected, "Discount code already used by this user")

	// Payments.
	ErrGatewayUnavailable = NewDomainError(ErrCodeGateway, "Payment gateway is unavailable, please retry")
	ErrPaymentExpired     = NewDomainError(ErrCodeExpired, "Payment attempt has expired")
	ErrPaymentFailed      = NewDomainError(ErrCodeGateway, "Payment verification failed")
	ErrOrderAlreadyPaid   = NewDomainError(ErrCodeConflict, "Order is already paid")
)
