package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/validation"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

const fetchAttempts = 3

// HTTPImageSource downloads label images over HTTP.
type HTTPImageSource struct {
	client *http.Client
}

func NewHTTPImageSource() *HTTPImageSource {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPImageSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchImage downloads the image with up to three attempts. Network errors
// and 5xx responses are retried with a linear backoff; 4xx responses are
// final on the first occurrence.
func (s *HTTPImageSource) FetchImage(ctx context.Context, imageURL string) (models.ImageAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return models.ImageAsset{}, apperrors.NewValidationError("invalid image URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, */*")
	req.Header.Set("User-Agent", "ApexScan-Ingredient-Scanner/1.0")

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			asset, final, respErr := s.readResponse(resp)
			if respErr == nil {
				return asset, nil
			}
			lastErr = respErr
			if final {
				break
			}
		}

		if attempt < fetchAttempts-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * time.Second):
			case <-ctx.Done():
				return models.ImageAsset{}, apperrors.NewInternalError("image fetch cancelled", ctx.Err())
			}
		}
	}

	return models.ImageAsset{}, apperrors.NewInternalError(
		fmt.Sprintf("failed to fetch image after %d attempts", fetchAttempts), lastErr)
}

// readResponse consumes one HTTP response. The bool result marks the error
// as final (no further retries).
func (s *HTTPImageSource) readResponse(resp *http.Response) (models.ImageAsset, bool, error) {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return models.ImageAsset{}, true, fmt.Errorf("client error: status code %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return models.ImageAsset{}, false, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	// Read one byte past the limit so oversized payloads are detected
	// without buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, validation.MaxImageBytes+1))
	if err != nil {
		return models.ImageAsset{}, false, fmt.Errorf("reading image body: %w", err)
	}
	if int64(len(data)) > validation.MaxImageBytes {
		return models.ImageAsset{}, true,
			apperrors.NewPayloadTooLarge(int64(len(data)), validation.MaxImageBytes)
	}

	mediaType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}

	return models.ImageAsset{
		Data:      data,
		MediaType: strings.TrimSpace(mediaType),
		Size:      int64(len(data)),
	}, true, nil
}
