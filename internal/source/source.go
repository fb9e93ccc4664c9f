// Package source fetches label images from remote locations (plain HTTP or
// Azure Blob Storage) and hands them to the pipeline as in-memory assets.
// Fetchers never decode pixels; validation and OCR happen downstream.
package source

import (
	"context"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// ImageSource retrieves a label image by reference.
type ImageSource interface {
	FetchImage(ctx context.Context, imageURL string) (models.ImageAsset, error)
}
