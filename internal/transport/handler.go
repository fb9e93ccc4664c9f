// Package transport exposes the analysis pipeline over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apexscan/ingredient-scanner-go/internal/analytics"
	"github.com/apexscan/ingredient-scanner-go/internal/config"
	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/logger"
	"github.com/apexscan/ingredient-scanner-go/internal/lookup"
	"github.com/apexscan/ingredient-scanner-go/internal/pipeline"
	"github.com/apexscan/ingredient-scanner-go/internal/scoring"
	"github.com/apexscan/ingredient-scanner-go/internal/source"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// AnalyzeRequest starts a full pipeline run from a remote image.
type AnalyzeRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
	Mode     string `json:"mode,omitempty"`
}

// StageTraceEntry is one recorded progress notification.
type StageTraceEntry struct {
	Stage      string  `json:"stage"`
	Progress   float64 `json:"progress"`
	StatusText string  `json:"status_text"`
}

// AnalysisReport is the full response for pipeline-driven endpoints: the raw
// scoring result plus the derived presentation analytics.
type AnalysisReport struct {
	RunID      string                  `json:"run_id"`
	Mode       models.GoalMode         `json:"mode"`
	Result     *models.ScoringResult   `json:"result"`
	Insights   analytics.Insights      `json:"insights"`
	Product    *models.ProductMetadata `json:"product,omitempty"`
	StageTrace []StageTraceEntry       `json:"stage_trace"`
}

func validateImageURL(imageURL string) error {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

// Handler carries the wired capabilities behind the HTTP surface.
type Handler struct {
	pipe   *pipeline.Pipeline
	scorer scoring.Scorer
	lookup *lookup.Client
	images source.ImageSource
	cfg    *config.Config
}

func NewHandler(pipe *pipeline.Pipeline, scorer scoring.Scorer, lookupClient *lookup.Client, images source.ImageSource, cfg *config.Config) http.Handler {
	h := &Handler{
		pipe:   pipe,
		scorer: scorer,
		lookup: lookupClient,
		images: images,
		cfg:    cfg,
	}

	r := gin.Default()
	r.Use(requestSizeLimiter(cfg.MaxImageBytes + 1024*1024))

	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	v1.POST("/scan", h.scanIngredients)
	v1.GET("/product/:barcode", h.productLookup)
	v1.POST("/analyze", h.analyzeImage)
	v1.POST("/analyze/barcode/:code", h.analyzeBarcode)

	return r
}

// scanIngredients scores an already-tokenized ingredient list without
// running the pipeline.
func (h *Handler) scanIngredients(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	mode, err := models.ParseGoalMode(req.Mode)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid goal mode", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.scorer.ScoreIngredients(ctx, req.Ingredients, mode)
	if err != nil {
		respondAppError(c, "scoring failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// productLookup resolves a barcode without starting an analysis run.
func (h *Handler) productLookup(c *gin.Context) {
	barcode := c.Param("barcode")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.LookupTimeout)
	defer cancel()

	product, err := h.lookup.LookupProduct(ctx, barcode)
	if err != nil {
		respondAppError(c, "product lookup failed", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// analyzeImage runs the full image pipeline. The image arrives either as a
// multipart upload (field "image") or as a JSON body naming an image URL.
func (h *Handler) analyzeImage(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info("Processing analysis request")

	asset, mode, err := h.resolveImageInput(ctx, c)
	if err != nil {
		respondAppError(c, "invalid analysis request", err)
		return
	}

	report, runErr := h.awaitImageRun(ctx, asset, mode)
	if runErr != nil {
		respondAppError(c, "analysis failed", runErr)
		return
	}

	logger.WithFields(logrus.Fields{
		"run_id":             report.RunID,
		"mode":               report.Mode,
		"final_score":        report.Result.FinalScore,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Analysis completed successfully")

	c.JSON(http.StatusOK, report)
}

// analyzeBarcode resolves a barcode to its ingredients text and runs the
// text-driven pipeline over it.
func (h *Handler) analyzeBarcode(c *gin.Context) {
	code := c.Param("code")
	mode, err := models.ParseGoalMode(c.Query("mode"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid goal mode", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	product, err := h.lookup.LookupProduct(ctx, code)
	if err != nil {
		respondAppError(c, "product lookup failed", err)
		return
	}

	rawText := product.IngredientsText
	if rawText == "" {
		// Tag list fallback: some products carry structured tags but no free
		// text blob.
		for i, ing := range product.Ingredients {
			if i > 0 {
				rawText += ", "
			}
			rawText += ing
		}
	}

	report, runErr := h.awaitTextRun(ctx, rawText, mode)
	if runErr != nil {
		respondAppError(c, "analysis failed", runErr)
		return
	}
	report.Product = product

	c.JSON(http.StatusOK, report)
}

// resolveImageInput extracts the image asset and goal mode from either a
// multipart upload or a JSON image_url body.
func (h *Handler) resolveImageInput(ctx context.Context, c *gin.Context) (models.ImageAsset, models.GoalMode, error) {
	if file, err := c.FormFile("image"); err == nil {
		mode, modeErr := models.ParseGoalMode(c.PostForm("mode"))
		if modeErr != nil {
			return models.ImageAsset{}, "", apperrors.NewValidationError("invalid goal mode", modeErr)
		}

		f, openErr := file.Open()
		if openErr != nil {
			return models.ImageAsset{}, "", apperrors.NewValidationError("unreadable image upload", openErr)
		}
		defer f.Close()

		data, readErr := io.ReadAll(f)
		if readErr != nil {
			return models.ImageAsset{}, "", apperrors.NewValidationError("unreadable image upload", readErr)
		}

		return models.ImageAsset{
			Data:      data,
			MediaType: file.Header.Get("Content-Type"),
			Size:      int64(len(data)),
		}, mode, nil
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.ImageAsset{}, "", apperrors.NewValidationError("provide a multipart image or an image_url", err)
	}
	if err := validateImageURL(req.ImageURL); err != nil {
		return models.ImageAsset{}, "", err
	}
	mode, err := models.ParseGoalMode(req.Mode)
	if err != nil {
		return models.ImageAsset{}, "", apperrors.NewValidationError("invalid goal mode", err)
	}

	asset, err := h.images.FetchImage(ctx, req.ImageURL)
	if err != nil {
		return models.ImageAsset{}, "", err
	}
	return asset, mode, nil
}

// awaitImageRun bridges the asynchronous pipeline onto the synchronous HTTP
// request: it starts the run, records the stage trace, and blocks until a
// terminal callback or the request context expires. An expired request
// cancels the run so no callback outlives the handler.
func (h *Handler) awaitImageRun(ctx context.Context, asset models.ImageAsset, mode models.GoalMode) (*AnalysisReport, error) {
	waiter := newRunWaiter()
	run, err := h.pipe.StartImageRun(ctx, asset, mode, waiter.callbacks())
	if err != nil {
		return nil, err
	}
	return waiter.wait(ctx, run, mode)
}

func (h *Handler) awaitTextRun(ctx context.Context, rawText string, mode models.GoalMode) (*AnalysisReport, error) {
	waiter := newRunWaiter()
	run := h.pipe.StartTextRun(ctx, rawText, mode, waiter.callbacks())
	return waiter.wait(ctx, run, mode)
}

// runWaiter collects one run's notifications and terminal outcome.
type runWaiter struct {
	trace   []StageTraceEntry
	outcome chan pipeline.Outcome
	failed  chan error
}

func newRunWaiter() *runWaiter {
	return &runWaiter{
		outcome: make(chan pipeline.Outcome, 1),
		failed:  make(chan error, 1),
	}
}

func (w *runWaiter) callbacks() pipeline.Callbacks {
	return pipeline.Callbacks{
		// Progress notifications arrive strictly before the terminal
		// callback, so the trace needs no locking.
		OnProgress: func(n pipeline.Notification) {
			w.trace = append(w.trace, StageTraceEntry{
				Stage:      string(n.Stage),
				Progress:   n.Progress,
				StatusText: n.StatusText,
			})
		},
		OnComplete: func(o pipeline.Outcome) {
			w.outcome <- o
		},
		OnError: func(err error) {
			w.failed <- err
		},
	}
}

func (w *runWaiter) wait(ctx context.Context, run *pipeline.Run, mode models.GoalMode) (*AnalysisReport, error) {
	select {
	case o := <-w.outcome:
		return &AnalysisReport{
			RunID:      o.RunID,
			Mode:       o.Mode,
			Result:     o.Result,
			Insights:   analytics.Derive(o.Result, o.Mode),
			StageTrace: w.trace,
		}, nil
	case err := <-w.failed:
		return nil, err
	case <-ctx.Done():
		run.Cancel()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewInternalError("analysis timed out", ctx.Err())
		}
		return nil, apperrors.NewInternalError("analysis cancelled", ctx.Err())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondAppError(c *gin.Context, message string, err error) {
	respondError(c, apperrors.StatusOf(err), message, err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
