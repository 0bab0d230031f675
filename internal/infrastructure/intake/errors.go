package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/bulkship/internal/domain/shipment"
)

// Common intake errors
var (
	// ErrEmptyInput is returned when the batch has no non-blank content
	ErrEmptyInput = errors.New("batch input is empty")

	// ErrInvalidEncoding is returned when the input is not valid UTF-8
	ErrInvalidEncoding = errors.New("batch input is not valid UTF-8")

	// ErrInputTooLarge is returned when the input exceeds the configured maximum size
	ErrInputTooLarge = errors.New("batch input exceeds maximum allowed size")

	// ErrNoAddress is returned when a free-text block holds no recipient address
	ErrNoAddress = errors.New("no recipient address found in text")
)

// ParseError rejects one record. Missing lists required fields that no
// strategy could fill; Invalid lists fields that were present but unusable.
type ParseError struct {
	Line     int
	Strategy shipment.ParseStrategy
	Missing  []string
	Invalid  []shipment.LineError
}

// Error implements the error interface
func (e *ParseError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(e.Missing, ", "))
	}
	for _, le := range e.Invalid {
		if le.Field == "" {
			parts = append(parts, le.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", le.Field, le.Message))
	}
	if len(parts) == 0 {
		parts = append(parts, "record could not be parsed")
	}
	return fmt.Sprintf("line %d: %s", e.Line, strings.Join(parts, "; "))
}

// Unwrap lets callers classify the rejection as a validation failure.
func (e *ParseError) Unwrap() error {
	return shipment.ErrInvalidShipment
}

// LineErrors renders one LineError per missing or invalid field.
func (e *ParseError) LineErrors() []shipment.LineError {
	out := make([]shipment.LineError, 0, len(e.Missing)+len(e.Invalid))
	for _, f := range e.Missing {
		out = append(out, shipment.NewLineError(e.Line, f, shipment.ErrCodeRequiredField, fmt.Sprintf("field '%s' is required", f)))
	}
	out = append(out, e.Invalid...)
	if len(out) == 0 {
		out = append(out, shipment.NewLineError(e.Line, "", shipment.ErrCodeUnparseable, "record could not be parsed"))
	}
	return out
}

// ErrorCollection manages the line errors of one batch
type ErrorCollection struct {
	errors     []shipment.LineError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 500 // Default limit
	}
	return &ErrorCollection{
		errors:    make([]shipment.LineError, 0, 16),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err shipment.LineError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddAll adds several errors to the collection
func (ec *ErrorCollection) AddAll(errs []shipment.LineError) {
	for _, e := range errs {
		ec.Add(e)
	}
}

// AddError adds any error for a line, expanding ParseError into its fields
func (ec *ErrorCollection) AddError(line int, err error) {
	var pe *ParseError
	if errors.As(err, &pe) {
		ec.AddAll(pe.LineErrors())
		return
	}
	ec.Add(shipment.NewLineError(line, "", shipment.ErrCodeUnparseable, err.Error()))
}

// AddRequiredError adds a required field error
func (ec *ErrorCollection) AddRequiredError(line int, field string) {
	ec.Add(shipment.NewLineError(line, field, shipment.ErrCodeRequiredField, fmt.Sprintf("field '%s' is required", field)))
}

// AddFormatError adds a format validation error
func (ec *ErrorCollection) AddFormatError(line int, field, expectedFormat, value string) {
	ec.Add(shipment.NewLineErrorWithValue(line, field, shipment.ErrCodeInvalidFormat,
		fmt.Sprintf("invalid format, expected %s", expectedFormat), value))
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []shipment.LineError {
	return ec.errors
}

// Count returns the number of collected errors (up to maxErrors)
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// Lines returns the distinct line numbers that have errors, in order of first appearance
func (ec *ErrorCollection) Lines() []int {
	seen := make(map[int]bool, len(ec.errors))
	lines := make([]int, 0, len(ec.errors))
	for _, e := range ec.errors {
		if !seen[e.Line] {
			seen[e.Line] = true
			lines = append(lines, e.Line)
		}
	}
	return lines
}

// ErrorSummary returns a summary of errors by code
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) found", ec.totalCount))
	if ec.IsTruncated() {
		sb.WriteString(fmt.Sprintf(" (showing first %d)", ec.maxErrors))
	}
	sb.WriteString(":\n")

	for _, err := range ec.errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}

	return sb.String()
}
