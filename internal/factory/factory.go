// Package factory builds concrete capability backends from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/apexscan/ingredient-scanner-go/internal/config"
	"github.com/apexscan/ingredient-scanner-go/internal/ocr"
	"github.com/apexscan/ingredient-scanner-go/internal/scoring"
	"github.com/apexscan/ingredient-scanner-go/internal/source"
)

// SourceType selects the image source backend.
type SourceType string

const (
	// HTTPSource fetches label images over plain HTTP
	HTTPSource SourceType = "http"
	// AzureSource fetches label images from Azure Blob Storage
	AzureSource SourceType = "azure"
)

// NewExtractor creates the configured OCR backend.
func NewExtractor(ctx context.Context, cfg *config.Config) (ocr.TextExtractor, error) {
	switch cfg.OCRBackend {
	case config.OCRBackendTesseract:
		return ocr.NewTesseractExtractor(cfg.OCRWorkers, cfg.OCRLanguage)
	case config.OCRBackendRekognition:
		return ocr.NewRekognitionExtractor(ctx)
	default:
		return nil, fmt.Errorf("unsupported OCR backend: %s", cfg.OCRBackend)
	}
}

// NewScorer creates the configured scoring backend.
func NewScorer(cfg *config.Config) (scoring.Scorer, error) {
	switch cfg.ScorerBackend {
	case config.ScorerBackendLocal:
		return scoring.NewEngine(), nil
	case config.ScorerBackendRemote:
		return scoring.NewRemoteClient(cfg.ScorerURL, cfg.ScorerTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported scorer backend: %s", cfg.ScorerBackend)
	}
}

// NewImageSource creates an image source. Azure is only available when
// storage credentials are configured.
func NewImageSource(sourceType SourceType, cfg *config.Config) (source.ImageSource, error) {
	switch sourceType {
	case HTTPSource:
		return source.NewHTTPImageSource(), nil
	case AzureSource:
		if cfg.AzureStorageAccount == "" || cfg.AzureStorageKey == "" {
			return nil, fmt.Errorf("azure source requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return source.NewAzureBlobSource(cfg.AzureStorageAccount, cfg.AzureStorageKey)
	default:
		return nil, fmt.Errorf("unsupported image source: %s", sourceType)
	}
}
