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
	// ErrSchema is returned when a required table or column is absent. It aborts the run.
	ErrSchema = NewDomainError("SCHEMA_ERROR", "Required table or column is missing")
	// ErrParse is returned when a present value cannot be coerced to its column type.
	ErrParse = NewDomainError("PARSE_ERROR", "Value could not be parsed")
	// ErrNoDataAvailable is returned when the loader found nothing to work on.
	ErrNoDataAvailable = NewDomainError("NO_DATA_AVAILABLE", "No data available")
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrNotFound        = NewDomainError("NOT_FOUND", "Resource not found")
)
