package source

import (
	"errors"
	"fmt"
)

// Error codes carried by RowError
const (
	ErrCodeCSVParsing    = "ERR_CSV_PARSING"
	ErrCodeMissingHeader = "ERR_CSV_MISSING_HEADER"
	ErrCodeMalformedRow  = "ERR_CSV_MALFORMED_ROW"
)

// Parser errors
var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// RowError locates a failure inside one CSV file
type RowError struct {
	Table   string `json:"table"`
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, column '%s': %s", e.Table, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NewRowError creates a RowError wrapping err
func NewRowError(table string, row int, code string, err error) *RowError {
	return &RowError{
		Table:   table,
		Row:     row,
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}
