package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// RemoteClient talks to a scan service implementing the same JSON contract
// as the local engine: POST {base}/scan with {ingredients, mode}.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteClient(baseURL string, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClient) ScoreIngredients(ctx context.Context, tokens []string, mode models.GoalMode) (*models.ScoringResult, error) {
	body, err := json.Marshal(models.ScanRequest{Ingredients: tokens, Mode: string(mode)})
	if err != nil {
		return nil, apperrors.NewScoringFailed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewScoringFailed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewScoringFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the wrapped cause; scan services
		// return short JSON error payloads.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewScoringFailed(
			fmt.Errorf("scan service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var result models.ScoringResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewScoringFailed(fmt.Errorf("invalid scan service response: %w", err))
	}
	return &result, nil
}
