// Package analytics derives presentation-level views from a scoring result:
// verdict banding, chart-ready numeric breakdowns, good/concern ratio
// comparison and goal-specific recommendations. Everything here is pure and
// synchronous; the scoring result is read-only input.
package analytics

import (
	"regexp"
	"strings"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// VerdictBand is the coarse qualitative classification of a final score.
type VerdictBand string

const (
	BandExcellent     VerdictBand = "excellent"
	BandInformational VerdictBand = "informational"
	BandCaution       VerdictBand = "caution"
	BandPoor          VerdictBand = "poor"
)

// ClassifyVerdict maps a final score onto its band. Lower bounds are
// inclusive: 80 is excellent, 50 informational, 30 caution.
func ClassifyVerdict(score float64) VerdictBand {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 50:
		return BandInformational
	case score >= 30:
		return BandCaution
	default:
		return BandPoor
	}
}

// ScoreBreakdown holds the weighted display figures behind the breakdown
// chart. Derived metrics only; nothing downstream decides on them.
type ScoreBreakdown struct {
	ProteinQuality  float64 `json:"protein_quality"`
	Bioavailability float64 `json:"bioavailability"`
	BloatRisk       float64 `json:"bloat_risk"`
	Overall         float64 `json:"overall"`
}

// BreakdownFor spreads a final score across the chart dimensions. Bloat risk
// is inverted: a higher score means less risk.
func BreakdownFor(score float64) ScoreBreakdown {
	bloat := 100 - score*0.3
	if bloat < 0 {
		bloat = 0
	}
	return ScoreBreakdown{
		ProteinQuality:  score * 0.4,
		Bioavailability: score * 0.3,
		BloatRisk:       bloat,
		Overall:         score,
	}
}

// RatioComparison summarizes how the quality list stacks up against the
// concern list.
type RatioComparison string

const (
	MoreQuality RatioComparison = "more-quality"
	MoreConcern RatioComparison = "more-concern"
	Balanced    RatioComparison = "balanced"
)

// CompareRatio compares the quality and concern ingredient counts.
func CompareRatio(goodCount, badCount int) RatioComparison {
	switch {
	case goodCount > badCount:
		return MoreQuality
	case goodCount < badCount:
		return MoreConcern
	default:
		return Balanced
	}
}

// Tone classifies a recommendation's sentiment for the presentation layer.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneWarning  Tone = "warning"
	ToneNegative Tone = "negative"
)

// Recommendation is one fixed advisory line.
type Recommendation struct {
	Tone Tone   `json:"tone"`
	Text string `json:"text"`
}

// Recommendations returns the goal-banded advisory lines. The 70/40 bands
// here deliberately differ from the verdict bands; the product copy was
// written against these thresholds and unifying them would change observed
// behavior.
func Recommendations(score float64, mode models.GoalMode) []Recommendation {
	if mode == models.GoalBulk {
		switch {
		case score >= 70:
			return []Recommendation{
				{TonePositive, "Excellent choice for muscle building"},
				{TonePositive, "High protein quality supports recovery"},
			}
		case score >= 40:
			return []Recommendation{
				{ToneWarning, "Decent option but consider higher quality proteins"},
				{ToneWarning, "Check for cleaner alternatives"},
			}
		default:
			return []Recommendation{
				{ToneNegative, "Not recommended for bulking"},
				{ToneNegative, "Look for products with whey protein isolate or pea protein"},
			}
		}
	}

	switch {
	case score >= 70:
		return []Recommendation{
			{TonePositive, "Great for cutting phase"},
			{TonePositive, "Low bloat risk helps maintain definition"},
		}
	case score >= 40:
		return []Recommendation{
			{ToneWarning, "May cause some bloating"},
			{ToneWarning, "Consider alternatives with fewer carbs"},
		}
	default:
		return []Recommendation{
			{ToneNegative, "Too many low-quality ingredients for cutting"},
			{ToneNegative, "High bloat risk - avoid during cut"},
		}
	}
}

// Polarity is the derived sentiment of one annotated ingredient.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNeutral  Polarity = "neutral"
	PolarityNegative Polarity = "negative"
)

// AnnotatedIngredient is the parsed view of one scoring-result entry.
type AnnotatedIngredient struct {
	Name     string   `json:"name"`
	Detail   string   `json:"detail,omitempty"`
	Polarity Polarity `json:"polarity"`
}

// annotationPattern matches "name (detail)" with a single trailing
// parenthesized group.
var annotationPattern = regexp.MustCompile(`^(.+?)\s*\((.+?)\)$`)

// ParseAnnotated splits a raw entry like "whey protein (+40.0)" into name
// and detail. Polarity is positive only when the detail leads with '+';
// otherwise it follows list membership, not the detail text.
func ParseAnnotated(raw string, fromGoodList bool) AnnotatedIngredient {
	name := raw
	detail := ""
	if m := annotationPattern.FindStringSubmatch(raw); m != nil {
		name = strings.TrimSpace(m[1])
		detail = strings.TrimSpace(m[2])
	}

	polarity := PolarityNegative
	if fromGoodList {
		polarity = PolarityNeutral
	}
	if detail != "" && strings.HasPrefix(detail, "+") {
		polarity = PolarityPositive
	}

	return AnnotatedIngredient{
		Name:     strings.ToLower(name),
		Detail:   detail,
		Polarity: polarity,
	}
}

// Insights is the full presentation payload derived from one scoring result.
type Insights struct {
	Verdict         VerdictBand           `json:"verdict_band"`
	Breakdown       ScoreBreakdown        `json:"breakdown"`
	Ratio           RatioComparison       `json:"ratio"`
	Recommendations []Recommendation      `json:"recommendations"`
	Quality         []AnnotatedIngredient `json:"quality"`
	Concerns        []AnnotatedIngredient `json:"concerns"`
}

// Derive assembles the complete analytics view for a scoring result.
func Derive(result *models.ScoringResult, mode models.GoalMode) Insights {
	quality := make([]AnnotatedIngredient, 0, len(result.GoodIngredients))
	for _, raw := range result.GoodIngredients {
		quality = append(quality, ParseAnnotated(raw, true))
	}
	concerns := make([]AnnotatedIngredient, 0, len(result.BadIngredients))
	for _, raw := range result.BadIngredients {
		concerns = append(concerns, ParseAnnotated(raw, false))
	}

	return Insights{
		Verdict:         ClassifyVerdict(result.FinalScore),
		Breakdown:       BreakdownFor(result.FinalScore),
		Ratio:           CompareRatio(len(quality), len(concerns)),
		Recommendations: Recommendations(result.FinalScore, mode),
		Quality:         quality,
		Concerns:        concerns,
	}
}
