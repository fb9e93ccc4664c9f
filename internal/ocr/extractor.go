// Package ocr provides the text extraction capability consumed by the
// analysis pipeline. Backends are interchangeable: a local tesseract engine
// and an AWS Rekognition client both satisfy TextExtractor.
package ocr

import (
	"context"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// ProgressFunc receives fractional extraction progress in [0,1]. Callbacks
// arrive on the goroutine running the extraction, strictly before ExtractText
// returns.
type ProgressFunc func(fraction float64)

// TextExtractor turns a label image into raw unstructured text.
type TextExtractor interface {
	ExtractText(ctx context.Context, asset models.ImageAsset, onProgress ProgressFunc) (string, error)

	// Close releases backend resources. Safe to call once after all
	// extractions have finished.
	Close() error
}
