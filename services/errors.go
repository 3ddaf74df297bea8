package services

// Error codes returned in ServiceError.Code
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeDiscountRejected   = "DISCOUNT_REJECTED"
	CodeDeliveryDisabled   = "DELIVERY_UNAVAILABLE"
	CodePaymentDisabled    = "PAYMENT_UNAVAILABLE"
)

// ServiceError is a business rule failure that should reach the client as-is
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}
