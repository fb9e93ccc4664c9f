// Package scoring provides the ingredient scoring capability: a local
// heuristic engine and an HTTP client for a remote scan service speaking the
// same contract. The pipeline treats either as a single atomic call.
package scoring

import (
	"context"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// Scorer scores an ordered ingredient list under a goal mode. The token
// order matters: earlier ingredients dominate the result.
type Scorer interface {
	ScoreIngredients(ctx context.Context, tokens []string, mode models.GoalMode) (*models.ScoringResult, error)
}
