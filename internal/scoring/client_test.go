package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

func TestRemoteClientScoreIngredients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/scan", r.URL.Path)

		var req models.ScanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"whey", "sugar"}, req.Ingredients)
		assert.Equal(t, "CUT", req.Mode)

		json.NewEncoder(w).Encode(models.ScoringResult{
			FinalScore:      23,
			Verdict:         "Trash",
			GoodIngredients: []string{"whey (+40.0)"},
			BadIngredients:  []string{"sugar (Carb)"},
			Warnings:        []string{},
			AnalysisLog:     []string{"Analyzing 2 ingredients in CUT mode."},
		})
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, 5*time.Second)
	result, err := client.ScoreIngredients(context.Background(), []string{"whey", "sugar"}, models.GoalCut)

	require.NoError(t, err)
	assert.Equal(t, 23.0, result.FinalScore)
	assert.Equal(t, "Trash", result.Verdict)
	assert.Equal(t, []string{"whey (+40.0)"}, result.GoodIngredients)
}

func TestRemoteClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model unavailable"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, 5*time.Second)
	_, err := client.ScoreIngredients(context.Background(), []string{"whey"}, models.GoalBulk)

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindScoringFailed))
	assert.Contains(t, err.Error(), "500")
}

func TestRemoteClientUnreachable(t *testing.T) {
	client := NewRemoteClient("http://127.0.0.1:1", time.Second)
	_, err := client.ScoreIngredients(context.Background(), []string{"whey"}, models.GoalBulk)

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindScoringFailed))
}

func TestRemoteClientInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, 5*time.Second)
	_, err := client.ScoreIngredients(context.Background(), []string{"whey"}, models.GoalBulk)

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindScoringFailed))
}
