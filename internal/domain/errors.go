package domain

import "fmt"

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeInternal     = "internal_error"
)

// FieldError is a field-level validation failure surfaced by the editing
// boundary before any network call is made
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateForSave checks the constraints enforced at the editing boundary:
// a non-empty title, at least one row, and non-negative item numbers.
// It returns the first violation as a FieldError.
func (d *OfferDocument) ValidateForSave() error {
	if d.Title == "" {
		return &FieldError{Field: "title", Message: "title is required"}
	}
	if len(d.Rows) == 0 {
		return &FieldError{Field: "rows", Message: "at least one row is required"}
	}
	for i, row := range d.Rows {
		item, ok := row.(ItemRow)
		if !ok {
			continue
		}
		if item.Quantity < 0 {
			return &FieldError{
				Field:   fmt.Sprintf("rows[%d].quantity", i),
				Message: "quantity must not be negative",
			}
		}
		if item.Price < 0 {
			return &FieldError{
				Field:   fmt.Sprintf("rows[%d].price", i),
				Message: "price must not be negative",
			}
		}
	}
	return nil
}
