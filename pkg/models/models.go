package models

import "fmt"

// GoalMode is the caller's nutritional objective. It parameterizes scoring
// penalties and recommendation wording and is immutable for one analysis run.
type GoalMode string

const (
	GoalBulk GoalMode = "BULK"
	GoalCut  GoalMode = "CUT"
)

// ParseGoalMode validates a caller-supplied mode string. An empty string
// defaults to BULK, matching the scan API's historical behavior.
func ParseGoalMode(s string) (GoalMode, error) {
	switch GoalMode(s) {
	case GoalBulk, GoalCut:
		return GoalMode(s), nil
	case "":
		return GoalBulk, nil
	default:
		return "", fmt.Errorf("unknown goal mode %q (want BULK or CUT)", s)
	}
}

// ImageAsset is an opaque label image awaiting extraction. It is owned by the
// pipeline run that consumes it and discarded once the run reaches a terminal
// state.
type ImageAsset struct {
	Data      []byte
	MediaType string
	Size      int64
}

// ScoringResult is the scan service's verdict for one ordered ingredient
// list. It is immutable once received; the pipeline only forwards it.
type ScoringResult struct {
	FinalScore      float64  `json:"final_score"`
	Verdict         string   `json:"verdict"`
	GoodIngredients []string `json:"good_ingredients"`
	BadIngredients  []string `json:"bad_ingredients"`
	Warnings        []string `json:"warnings"`
	AnalysisLog     []string `json:"analysis_log"`
}

// ScanRequest is the wire request for direct ingredient scoring.
type ScanRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	Mode        string   `json:"mode,omitempty"`
}

// ProductMetadata is the cleaned product record returned by a barcode lookup.
type ProductMetadata struct {
	Name            string   `json:"product_name"`
	Brand           string   `json:"brand,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Ingredients     []string `json:"ingredients,omitempty"`
	IngredientsText string   `json:"ingredients_text,omitempty"`
}

// ErrorResponse is the standard error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
