package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidParameter    = "INVALID_PARAMETER"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeProductNameConflict = "PRODUCT_NAME_CONFLICT"
	ErrCodePendingOrders       = "PRODUCT_PENDING_ORDERS"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeNotReady            = "NOT_READY"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is(err, ErrProductNotFound)
// holds for every not-found error regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error kinds of the product store.
var (
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "product not found")
	ErrProductNameConflict = NewDomainError(ErrCodeProductNameConflict, "product name already exists")
	ErrPendingOrders       = NewDomainError(ErrCodePendingOrders, "product has pending orders")
)

// NewNotFoundError reports that no product has the given id.
func NewNotFoundError(id int64) *DomainError {
	return NewDomainError(ErrCodeProductNotFound, fmt.Sprintf("Product with id '%d' not found", id))
}

// NewNameConflictError reports a case-insensitive name collision.
func NewNameConflictError(name string) *DomainError {
	return NewDomainError(ErrCodeProductNameConflict, fmt.Sprintf("Product with name '%s' already exists", name))
}

// NewPendingOrdersError reports that a product cannot be deleted.
func NewPendingOrdersError(id int64) *DomainError {
	return NewDomainError(ErrCodePendingOrders, fmt.Sprintf("Product with id '%d' has pending orders and cannot be deleted", id))
}
