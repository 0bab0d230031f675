package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Shipment Errors
// ---------------------------------------------------------------------------

var (
	// Record errors
	ErrInvalidShipment = errors.New("shipment: record failed validation")

	// Normalization errors
	ErrInvalidDimensions = errors.New("shipment: invalid dimensions")
	ErrInvalidWeight     = errors.New("shipment: invalid weight")

	// Batch-level errors
	ErrEmptyBatch     = errors.New("shipment: batch contains no records")
	ErrLengthMismatch = errors.New("shipment: quote ids and rate ids must have the same length")

	// Gateway errors
	ErrGatewayTimeout   = errors.New("shipment: carrier gateway call timed out")
	ErrGatewayRejected  = errors.New("shipment: carrier gateway rejected the request")
	ErrRateNotFound     = errors.New("shipment: rate not found on quote")
	ErrNoRates          = errors.New("shipment: quote returned no rates")
	ErrAlreadyPurchased = errors.New("shipment: quote already purchased")
)

// ErrorKind distinguishes the error taxonomy reported on outcomes.
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindNormalization ErrorKind = "normalization"
	ErrorKindGateway       ErrorKind = "gateway"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindDuplicate     ErrorKind = "duplicate"
	ErrorKindInput         ErrorKind = "input"
)

// ClassifyError maps an error to the kind reported on an outcome.
// A timeout means the upstream outcome is unknown, which callers must be able
// to tell apart from an outright rejection.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrGatewayTimeout):
		return ErrorKindTimeout
	case errors.Is(err, ErrAlreadyPurchased):
		return ErrorKindDuplicate
	case errors.Is(err, ErrInvalidDimensions), errors.Is(err, ErrInvalidWeight):
		return ErrorKindNormalization
	case errors.Is(err, ErrInvalidShipment):
		return ErrorKindValidation
	case errors.Is(err, ErrLengthMismatch), errors.Is(err, ErrEmptyBatch):
		return ErrorKindInput
	default:
		return ErrorKindGateway
	}
}

// FieldDetail is one field-level message inside a provider error.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// GatewayError carries provider-supplied detail for a rejected gateway call.
type GatewayError struct {
	StatusCode int           `json:"status_code,omitempty"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Details    []FieldDetail `json:"details,omitempty"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return e.Flatten()
}

// Unwrap lets errors.Is match ErrGatewayRejected.
func (e *GatewayError) Unwrap() error {
	return ErrGatewayRejected
}

// Flatten renders the error and its nested details on one line:
// "CODE: message (field: msg; field: msg)".
func (e *GatewayError) Flatten() string {
	var sb strings.Builder
	if e.Code != "" {
		sb.WriteString(e.Code)
		sb.WriteString(": ")
	}
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	sb.WriteString(msg)

	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			switch {
			case d.Field != "" && d.Message != "":
				parts = append(parts, fmt.Sprintf("%s: %s", d.Field, d.Message))
			case d.Message != "":
				parts = append(parts, d.Message)
			case d.Field != "":
				parts = append(parts, d.Field)
			}
		}
		if len(parts) > 0 {
			sb.WriteString(" (")
			sb.WriteString(strings.Join(parts, "; "))
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// FlattenError returns a single-line message for any error, expanding
// provider detail when the chain contains a GatewayError.
func FlattenError(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Flatten()
	}
	return err.Error()
}
