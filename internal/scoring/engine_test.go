package scoring

import (
	"context"
	"testing"

	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		wantTag   string
		wantClass ingredientClass
	}{
		{name: "whey protein isolate", wantTag: "whey", wantClass: classProtein},
		{name: "organic cane sugar", wantTag: "sugar", wantClass: classCarb},
		{name: "maltitol", wantTag: "maltitol", wantClass: classSweetener},
		{name: "xanthan gum", wantTag: "gum", wantClass: classAdditive},
		{name: "rolled oats", wantTag: "oat", wantClass: classCarb},
		{name: "palm oil", wantTag: "palm oil", wantClass: classFat},
		// Single-character OCR typo falls back to fuzzy matching.
		{name: "wheey", wantTag: "whey", wantClass: classProtein},
		{name: "casei", wantTag: "casein", wantClass: classProtein},
		// Nothing matches.
		{name: "water", wantTag: "", wantClass: classOther},
		{name: "natural flavors", wantTag: "", wantClass: classOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := classify(tt.name)
			if rule.tag != tt.wantTag || rule.class != tt.wantClass {
				t.Errorf("classify(%q) = {tag:%q class:%s}, want {tag:%q class:%s}",
					tt.name, rule.tag, rule.class, tt.wantTag, tt.wantClass)
			}
		})
	}
}

func TestScoreIngredientsProteinLedProduct(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(),
		[]string{"whey protein isolate", "casein", "egg whites"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	// Each protein caps at 40 points; the sum clamps to 100.
	if result.FinalScore != 100 {
		t.Errorf("FinalScore = %v, want 100", result.FinalScore)
	}
	if result.Verdict != "Apex Fuel" {
		t.Errorf("Verdict = %q, want \"Apex Fuel\"", result.Verdict)
	}
	if len(result.GoodIngredients) != 3 {
		t.Fatalf("GoodIngredients = %v, want 3 entries", result.GoodIngredients)
	}
	if result.GoodIngredients[0] != "whey protein isolate (+40.0)" {
		t.Errorf("GoodIngredients[0] = %q, want annotated +40.0", result.GoodIngredients[0])
	}
	if len(result.BadIngredients) != 0 {
		t.Errorf("BadIngredients = %v, want none", result.BadIngredients)
	}
}

func TestScoreIngredientsSugarLedCut(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(), []string{"sugar"}, models.GoalCut)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	// -20 carb impact and -30 primary-ingredient penalty clamp to 0.
	if result.FinalScore != 0 {
		t.Errorf("FinalScore = %v, want 0", result.FinalScore)
	}
	if result.Verdict != "Trash" {
		t.Errorf("Verdict = %q, want \"Trash\"", result.Verdict)
	}
	if len(result.BadIngredients) != 1 || result.BadIngredients[0] != "sugar (Carb)" {
		t.Errorf("BadIngredients = %v, want [\"sugar (Carb)\"]", result.BadIngredients)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "Primary ingredient is Sugar/Carb" {
		t.Errorf("Warnings = %v, want the primary ingredient warning", result.Warnings)
	}
}

func TestScoreIngredientsPositionalDecay(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(),
		[]string{"whey", "sugar"}, models.GoalCut)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	// whey: +40. sugar at weight 0.85: -17 carb impact, no primary penalty.
	if result.FinalScore != 23 {
		t.Errorf("FinalScore = %v, want 23", result.FinalScore)
	}
	if len(result.BadIngredients) != 1 || result.BadIngredients[0] != "sugar (Carb)" {
		t.Errorf("BadIngredients = %v, want [\"sugar (Carb)\"]", result.BadIngredients)
	}
}

func TestScoreIngredientsBulkLikesCleanCarbs(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(), []string{"oats"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	if result.FinalScore != 5 {
		t.Errorf("FinalScore = %v, want 5", result.FinalScore)
	}
	if len(result.GoodIngredients) != 1 || result.GoodIngredients[0] != "oats (Fuel)" {
		t.Errorf("GoodIngredients = %v, want [\"oats (Fuel)\"]", result.GoodIngredients)
	}
}

func TestScoreIngredientsBloatRisk(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(), []string{"maltitol"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	if result.FinalScore != 0 {
		t.Errorf("FinalScore = %v, want 0", result.FinalScore)
	}
	if len(result.BadIngredients) != 1 || result.BadIngredients[0] != "maltitol (Bloat Risk)" {
		t.Errorf("BadIngredients = %v, want [\"maltitol (Bloat Risk)\"]", result.BadIngredients)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "High Bloat: maltitol" {
		t.Errorf("Warnings = %v, want the high bloat warning", result.Warnings)
	}
}

func TestScoreIngredientsCleansDatabaseTags(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(),
		[]string{"en:whey-protein"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	if len(result.GoodIngredients) != 1 || result.GoodIngredients[0] != "whey protein (+40.0)" {
		t.Errorf("GoodIngredients = %v, want cleaned tag entry", result.GoodIngredients)
	}
}

func TestScoreIngredientsFillerGoesToConcerns(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(),
		[]string{"xanthan gum"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}

	// Additive with bloat 5: bloat penalty already flags it, so the
	// catch-all must not duplicate the entry.
	if len(result.BadIngredients) != 1 || result.BadIngredients[0] != "xanthan gum (Bloat Risk)" {
		t.Errorf("BadIngredients = %v, want a single bloat entry", result.BadIngredients)
	}

	result, err = engine.ScoreIngredients(context.Background(),
		[]string{"vegetable oil"}, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}
	if len(result.BadIngredients) != 1 || result.BadIngredients[0] != "vegetable oil (Low Quality/Empty)" {
		t.Errorf("BadIngredients = %v, want low quality entry", result.BadIngredients)
	}
}

func TestScoreIngredientsEmptyListScoresZero(t *testing.T) {
	engine := NewEngine()

	result, err := engine.ScoreIngredients(context.Background(), nil, models.GoalBulk)
	if err != nil {
		t.Fatalf("ScoreIngredients() error = %v", err)
	}
	if result.FinalScore != 0 || result.Verdict != "Trash" {
		t.Errorf("empty list scored %v (%q), want 0 (Trash)", result.FinalScore, result.Verdict)
	}
}
