// Package lookup resolves product barcodes against the OpenFoodFacts
// database and returns cleaned product metadata for the text-driven analysis
// path.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

const userAgent = "ApexScan Ingredient Scanner - Go - Version 1.0"

// Client queries the OpenFoodFacts v0 product API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// offResponse mirrors the subset of the OpenFoodFacts payload we read.
type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName     string   `json:"product_name"`
		Brands          string   `json:"brands"`
		ImageURL        string   `json:"image_url"`
		IngredientsTags []string `json:"ingredients_tags"`
		IngredientsText string   `json:"ingredients_text"`
	} `json:"product"`
}

// LookupProduct fetches product metadata for a barcode. A missing product is
// reported as a distinguishable not-found error, never as an empty record.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*models.ProductMetadata, error) {
	url := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, barcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build product lookup request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewInternalError("product lookup request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewProductNotFound(barcode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("product lookup returned status %d", resp.StatusCode), nil)
	}

	var payload offResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewInternalError("invalid product lookup response", err)
	}
	if payload.Status != 1 {
		return nil, apperrors.NewProductNotFound(barcode)
	}

	name := payload.Product.ProductName
	if name == "" {
		name = "Unknown Product"
	}

	return &models.ProductMetadata{
		Name:            name,
		Brand:           payload.Product.Brands,
		ImageURL:        payload.Product.ImageURL,
		Ingredients:     cleanIngredientTags(payload.Product.IngredientsTags),
		IngredientsText: payload.Product.IngredientsText,
	}, nil
}

// cleanIngredientTags strips the language prefix from tags like "en:sugar"
// and turns hyphenated slugs back into words.
func cleanIngredientTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		value := tag
		if idx := strings.Index(tag, ":"); idx >= 0 {
			value = tag[idx+1:]
		}
		cleaned = append(cleaned, strings.ReplaceAll(value, "-", " "))
	}
	return cleaned
}
