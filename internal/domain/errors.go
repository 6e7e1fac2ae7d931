package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Validation codes. Handlers localize them; Error() stays English.
const (
	CodeMissingDonorFields   = "missing_donor_fields"
	CodeMissingFundFields    = "missing_fund_fields"
	CodeMissingID            = "missing_id"
	CodeInvalidID            = "invalid_id"
	CodeInvalidAmount        = "invalid_amount"
	CodeNonPositiveAmount    = "non_positive_amount"
	CodeInvalidPaymentMethod = "invalid_payment_method"
	CodeImageOnly            = "image_only"
	CodeFileTooLarge         = "file_too_large"
	CodeMissingFile          = "missing_file"
	CodeInvalidPayload       = "invalid_payload"
)

var validationText = map[string]string{
	CodeMissingDonorFields:   "name, email and amount are required",
	CodeMissingFundFields:    "category and amount are required",
	CodeMissingID:            "id is required",
	CodeInvalidID:            "id must be an integer",
	CodeInvalidAmount:        "amount must be a number",
	CodeNonPositiveAmount:    "amount must be greater than 0",
	CodeInvalidPaymentMethod: "unsupported payment method",
	CodeImageOnly:            "only image files are allowed",
	CodeFileTooLarge:         "file is too large",
	CodeMissingFile:          "no file uploaded",
	CodeInvalidPayload:       "invalid payload",
}

// ValidationError reports caller-correctable input. It is never retried.
type ValidationError struct {
	Code  string
	Field string
	// Detail is optional extra context, e.g. the size limit.
	Detail string
}

func (e *ValidationError) Error() string {
	msg, ok := validationText[e.Code]
	if !ok {
		msg = e.Code
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(code, field string) *ValidationError {
	return &ValidationError{Code: code, Field: field}
}

// StorageError wraps failures of the collection store or the blob store.
// Callers may retry these.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
