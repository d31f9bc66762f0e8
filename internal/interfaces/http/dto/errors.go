package dto

import "net/http"

// Error codes
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeNotFound     = "ERR_NOT_FOUND"

	// ErrCodeNoData is returned while no dataset snapshot is available
	ErrCodeNoData = "ERR_NO_DATA_AVAILABLE"
	// ErrCodeSchema is returned when the input lacks a required table or column
	ErrCodeSchema = "ERR_DATASET_SCHEMA"
	// ErrCodeParse is returned when an input value could not be coerced
	ErrCodeParse = "ERR_DATASET_PARSE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,

	ErrCodeNoData: http.StatusServiceUnavailable,
	ErrCodeSchema: http.StatusInternalServerError,
	ErrCodeParse:  http.StatusInternalServerError,
}

// GetHTTPStatus returns the status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"NOT_FOUND":         ErrCodeNotFound,
	"NO_DATA_AVAILABLE": ErrCodeNoData,
	"SCHEMA_ERROR":      ErrCodeSchema,
	"PARSE_ERROR":       ErrCodeParse,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
