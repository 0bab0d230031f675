package shipment

import "fmt"

// Line error codes
const (
	// Parsing errors
	ErrCodeUnparseable   = "ERR_LINE_UNPARSEABLE"
	ErrCodeRequiredField = "ERR_LINE_REQUIRED_FIELD"

	// Validation errors
	ErrCodeInvalidFormat     = "ERR_LINE_INVALID_FORMAT"
	ErrCodeInvalidRange      = "ERR_LINE_INVALID_RANGE"
	ErrCodeInvalidDimensions = "ERR_LINE_INVALID_DIMENSIONS"
	ErrCodeInvalidWeight     = "ERR_LINE_INVALID_WEIGHT"
	ErrCodeUnknownCountry    = "ERR_LINE_UNKNOWN_COUNTRY"
)

// LineError represents a problem with one field of one input record
type LineError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e LineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d, field '%s': %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// NewLineError creates a new LineError
func NewLineError(line int, field, code, message string) LineError {
	return LineError{
		Line:    line,
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// NewLineErrorWithValue creates a new LineError carrying the offending value
func NewLineErrorWithValue(line int, field, code, message, value string) LineError {
	e := NewLineError(line, field, code, message)
	e.Value = value
	return e
}
