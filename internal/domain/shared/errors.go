package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrDeviceNotRegistered = NewDomainError("DEVICE_NOT_REGISTERED", "Device identifier is not registered")
	ErrInvalidDuration     = NewDomainError("INVALID_DURATION", "Duration must be a positive number of seconds")
	ErrInvalidDate         = NewDomainError("INVALID_DATE", "Date must be in YYYY-MM-DD format")
)
