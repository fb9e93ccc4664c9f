package ocr

import (
	"context"
	"fmt"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// TesseractExtractor runs OCR locally through tesseract. The underlying C
// library reports no incremental progress, so the extractor publishes coarse
// milestones: 0 when the job is picked up, 0.25 once the image is loaded,
// and 1 when recognition finishes.
type TesseractExtractor struct {
	pool *clientPool
}

// NewTesseractExtractor builds an extractor with a bounded pool of tesseract
// clients. workers <= 0 sizes the pool to the CPU count.
func NewTesseractExtractor(workers int, language string) (*TesseractExtractor, error) {
	if language == "" {
		language = "eng"
	}
	pool, err := newClientPool(workers, language)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tesseract: %w", err)
	}
	return &TesseractExtractor{pool: pool}, nil
}

func (e *TesseractExtractor) ExtractText(ctx context.Context, asset models.ImageAsset, onProgress ProgressFunc) (string, error) {
	client, err := e.pool.acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("waiting for an OCR worker: %w", err)
	}
	defer e.pool.release(client)

	emit(onProgress, 0)

	if err := client.SetImageFromBytes(asset.Data); err != nil {
		return "", fmt.Errorf("failed to load image into tesseract: %w", err)
	}
	emit(onProgress, 0.25)

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	emit(onProgress, 1)

	return text, nil
}

func (e *TesseractExtractor) Close() error {
	return e.pool.Close()
}

func emit(onProgress ProgressFunc, fraction float64) {
	if onProgress != nil {
		onProgress(fraction)
	}
}
