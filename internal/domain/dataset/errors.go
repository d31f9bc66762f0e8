package dataset

import (
	"errors"
	"fmt"

	"github.com/olist/dashboard/internal/domain/shared"
)

// ErrDeliveryClassification is returned when an order falls through every
// delivery status rule. It indicates a gap in the rules, not bad input.
var ErrDeliveryClassification = errors.New("delivery status could not be classified")

// SchemaError reports a required table or column that is absent.
// It unwraps to shared.ErrSchema.
type SchemaError struct {
	Table  string
	Column string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema error: table '%s' is missing", e.Table)
	}
	return fmt.Sprintf("schema error: table '%s' has no column '%s'", e.Table, e.Column)
}

// Unwrap returns the domain sentinel
func (e *SchemaError) Unwrap() error {
	return shared.ErrSchema
}

// ParseError reports a present value that failed type coercion.
// Row is 1-indexed over data rows (the header is not counted).
// It unwraps to shared.ErrParse; the underlying cause is kept in Err.
type ParseError struct {
	Table  string
	Column string
	Row    int
	Value  string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error: table '%s', row %d, column '%s': invalid value %q", e.Table, e.Row, e.Column, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the domain sentinel
func (e *ParseError) Unwrap() error {
	return shared.ErrParse
}

// Cause returns the underlying coercion error
func (e *ParseError) Cause() error {
	return e.Err
}
