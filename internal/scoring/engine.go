package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/arbovm/levenshtein"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

type ingredientClass string

const (
	classProtein   ingredientClass = "Protein"
	classCarb      ingredientClass = "Carb"
	classSweetener ingredientClass = "Sweetener"
	classFat       ingredientClass = "Fat"
	classAdditive  ingredientClass = "Additive"
	classOther     ingredientClass = "Other"
)

// keywordRule classifies an ingredient by substring. bio is bioavailability
// 0-100, bloat is a 0-10 digestive risk.
type keywordRule struct {
	tag   string
	class ingredientClass
	bio   float64
	bloat int
}

// Rules are checked in order, most specific first ("whey" must win over the
// generic "protein" fallback).
var keywordRules = []keywordRule{
	// High quality proteins.
	{tag: "whey", class: classProtein, bio: 100, bloat: 2},
	{tag: "casein", class: classProtein, bio: 90, bloat: 2},
	{tag: "egg white", class: classProtein, bio: 100, bloat: 1},
	{tag: "beef", class: classProtein, bio: 90, bloat: 0},

	// Medium and plant proteins.
	{tag: "soy", class: classProtein, bio: 70, bloat: 3},
	{tag: "pea", class: classProtein, bio: 75, bloat: 4},
	{tag: "hemp", class: classProtein, bio: 60, bloat: 2},
	{tag: "collagen", class: classProtein, bio: 30, bloat: 0},
	{tag: "gluten", class: classProtein, bio: 25, bloat: 8},

	// Carbs and sugars.
	{tag: "sugar", class: classCarb, bio: 0, bloat: 2},
	{tag: "syrup", class: classCarb, bio: 0, bloat: 3},
	{tag: "dextrose", class: classCarb, bio: 0, bloat: 1},
	{tag: "maltodextrin", class: classCarb, bio: 0, bloat: 4},
	{tag: "oat", class: classCarb, bio: 0, bloat: 1},
	{tag: "flour", class: classCarb, bio: 0, bloat: 2},

	// High-bloat sweeteners and cheap fats.
	{tag: "maltitol", class: classSweetener, bio: 0, bloat: 9},
	{tag: "sorbitol", class: classSweetener, bio: 0, bloat: 8},
	{tag: "xylitol", class: classSweetener, bio: 0, bloat: 7},
	{tag: "palm oil", class: classFat, bio: 0, bloat: 2},
	{tag: "vegetable oil", class: classFat, bio: 0, bloat: 4},

	// Generic fallbacks.
	{tag: "protein", class: classProtein, bio: 60, bloat: 2},
	{tag: "gum", class: classAdditive, bio: 0, bloat: 5},
}

const (
	// Positional weight decay: the top three ingredients dominate the score.
	decayFactor = 0.85

	// Per-ingredient protein point cap so a single entry cannot max out the
	// product on its own.
	maxProteinPoints = 40

	bloatPenalty       = 15.0
	cutCarbImpact      = 20.0
	bulkCarbBonus      = 5.0
	primaryCarbPenalty = 30.0
)

// Engine is the local heuristic scorer. Stateless and safe for concurrent
// use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// classify finds the first rule whose tag appears in the ingredient name.
// OCR output is noisy, so when no substring matches, single-word tags are
// retried with an edit distance of one ("wheey" still reads as whey).
func classify(name string) keywordRule {
	for _, rule := range keywordRules {
		if strings.Contains(name, rule.tag) {
			return rule
		}
	}

	words := strings.Fields(name)
	for _, rule := range keywordRules {
		if len(rule.tag) < 4 || strings.Contains(rule.tag, " ") {
			continue
		}
		for _, word := range words {
			if levenshtein.Distance(word, rule.tag) == 1 {
				return rule
			}
		}
	}

	return keywordRule{class: classOther}
}

// ScoreIngredients applies the heuristic rules over the ordered list. The
// whole computation is in-memory; ctx is accepted to satisfy the capability
// contract shared with the remote client.
func (e *Engine) ScoreIngredients(_ context.Context, tokens []string, mode models.GoalMode) (*models.ScoringResult, error) {
	result := &models.ScoringResult{
		GoodIngredients: []string{},
		BadIngredients:  []string{},
		Warnings:        []string{},
	}
	result.AnalysisLog = append(result.AnalysisLog,
		fmt.Sprintf("Analyzing %d ingredients in %s mode.", len(tokens), mode))

	score := 0.0
	weight := 1.0

	for _, token := range tokens {
		// Product database tags arrive as "en:sugar" with hyphens.
		ingredient := strings.ReplaceAll(strings.ReplaceAll(token, "en:", ""), "-", " ")
		name := strings.ToLower(strings.TrimSpace(ingredient))

		rule := classify(name)

		if rule.class == classProtein {
			points := math.Min(rule.bio*weight, maxProteinPoints)
			score += points
			result.GoodIngredients = append(result.GoodIngredients,
				fmt.Sprintf("%s (+%.1f)", ingredient, points))
			result.AnalysisLog = append(result.AnalysisLog,
				fmt.Sprintf("%s: protein, +%.1f points", ingredient, points))
		}

		if rule.bloat >= 5 {
			score -= bloatPenalty
			result.BadIngredients = append(result.BadIngredients,
				fmt.Sprintf("%s (Bloat Risk)", ingredient))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("High Bloat: %s", ingredient))
			result.AnalysisLog = append(result.AnalysisLog,
				fmt.Sprintf("%s: bloat risk %d, -%.1f points", ingredient, rule.bloat, bloatPenalty))
		}

		switch mode {
		case models.GoalCut:
			// Cutting punishes sugars and carbs near the top of the list.
			if rule.class == classCarb || rule.class == classSweetener {
				impact := cutCarbImpact * weight
				if impact > 5 {
					score -= impact
					result.BadIngredients = append(result.BadIngredients,
						fmt.Sprintf("%s (Carb)", ingredient))
					result.AnalysisLog = append(result.AnalysisLog,
						fmt.Sprintf("%s: carb in CUT mode, -%.1f points", ingredient, impact))
				}
			}
		case models.GoalBulk:
			// Bulking likes clean carbs such as oats or rice flour.
			if rule.class == classCarb && rule.bloat < 3 {
				bonus := bulkCarbBonus * weight
				score += bonus
				result.GoodIngredients = append(result.GoodIngredients,
					fmt.Sprintf("%s (Fuel)", ingredient))
				result.AnalysisLog = append(result.AnalysisLog,
					fmt.Sprintf("%s: clean carb fuel, +%.1f points", ingredient, bonus))
			}
		}

		// A product that leads with sugar is an automatic fail for a cut.
		if weight == 1.0 && mode == models.GoalCut &&
			(rule.class == classSweetener || rule.class == classCarb) {
			score -= primaryCarbPenalty
			result.Warnings = append(result.Warnings, "Primary ingredient is Sugar/Carb")
		}

		// Anything not yet categorized that is filler goes to concerns.
		if !containsEntry(result.GoodIngredients, ingredient) &&
			!containsEntry(result.BadIngredients, ingredient) {
			switch rule.class {
			case classFat, classSweetener, classAdditive, classCarb:
				result.BadIngredients = append(result.BadIngredients,
					fmt.Sprintf("%s (Low Quality/Empty)", ingredient))
				score -= 1.0
			}
		}

		weight *= decayFactor
	}

	// A product with no active ingredients should not score high just for
	// being inoffensive.
	if len(result.GoodIngredients) == 0 && score > 0 {
		score *= 0.3
	}

	score = math.Max(0, math.Min(100, score))
	result.FinalScore = math.Round(score*10) / 10
	result.Verdict = verdictFor(result.FinalScore)

	return result, nil
}

func verdictFor(score float64) string {
	switch {
	case score >= 80:
		return "Apex Fuel"
	case score >= 60:
		return "Solid Choice"
	case score >= 40:
		return "Mediocre"
	default:
		return "Trash"
	}
}

func containsEntry(entries []string, ingredient string) bool {
	for _, entry := range entries {
		if strings.Contains(entry, ingredient) {
			return true
		}
	}
	return false
}
