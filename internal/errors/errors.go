package errors

import (
	"fmt"
	"net/http"
)

// Kind categorizes every failure the analysis pipeline can surface.
type Kind string

const (
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindPayloadTooLarge      Kind = "payload_too_large"
	KindExtractionFailed     Kind = "extraction_failed"
	KindNoIngredients        Kind = "no_ingredients_found"
	KindScoringFailed        Kind = "scoring_failed"
	KindNotFound             Kind = "not_found"
	KindValidation           Kind = "validation"
	KindInternal             Kind = "internal"
)

// AppError is a structured application error carrying its taxonomy kind, an
// HTTP status for the transport layer, and the wrapped cause.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewUnsupportedMediaType reports an image whose declared type is not one of
// jpeg, png or webp.
func NewUnsupportedMediaType(mediaType string) *AppError {
	return &AppError{
		Kind:       KindUnsupportedMediaType,
		Message:    fmt.Sprintf("unsupported image type %q (want JPEG, PNG or WebP)", mediaType),
		StatusCode: http.StatusUnsupportedMediaType,
	}
}

// NewPayloadTooLarge reports an image exceeding the intake size limit.
func NewPayloadTooLarge(size, limit int64) *AppError {
	return &AppError{
		Kind:       KindPayloadTooLarge,
		Message:    fmt.Sprintf("image is %d bytes, limit is %d", size, limit),
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

// NewExtractionFailed wraps an OCR capability failure.
func NewExtractionFailed(cause error) *AppError {
	return &AppError{
		Kind:       KindExtractionFailed,
		Message:    "failed to extract text from image",
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNoIngredientsFound reports that normalization produced an empty token
// list. Kept separate from extraction failures so callers can suggest a
// clearer photo instead of a retry.
func NewNoIngredientsFound() *AppError {
	return &AppError{
		Kind:       KindNoIngredients,
		Message:    "no ingredients found in the extracted text",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewScoringFailed wraps a scoring capability failure.
func NewScoringFailed(cause error) *AppError {
	return &AppError{
		Kind:       KindScoringFailed,
		Message:    "ingredient scoring failed",
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewProductNotFound reports a barcode with no product record.
func NewProductNotFound(barcode string) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("no product found for barcode %q", barcode),
		StatusCode: http.StatusNotFound,
	}
}

// NewValidationError creates a generic request validation error.
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// KindOf returns the taxonomy kind of an error, or KindInternal for errors
// produced outside the pipeline.
func KindOf(err error) Kind {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind checks whether the error belongs to a taxonomy kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusOf extracts the HTTP status code from an error.
func StatusOf(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
