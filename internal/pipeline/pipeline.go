// Package pipeline drives one analysis run from an arbitrary input (label
// image or pre-extracted text) to a terminal outcome: extraction, token
// normalization, remote scoring and progress reporting. Each run is an
// isolated state machine; runs share no mutable state.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/normalize"
	"github.com/apexscan/ingredient-scanner-go/internal/observer"
	"github.com/apexscan/ingredient-scanner-go/internal/ocr"
	"github.com/apexscan/ingredient-scanner-go/internal/scoring"
	"github.com/apexscan/ingredient-scanner-go/internal/validation"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// Stage is the user-visible phase of a run. It drives status surfaces only
// and carries no business data.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageExtracting Stage = "extracting"
	StageAnalyzing  Stage = "analyzing"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Notification is one progress/stage update. Progress is 0-100 and
// non-decreasing within a run.
type Notification struct {
	Stage      Stage   `json:"stage"`
	Progress   float64 `json:"progress"`
	StatusText string  `json:"status_text"`
}

// Outcome is a successful run's terminal payload.
type Outcome struct {
	RunID  string
	Mode   models.GoalMode
	Result *models.ScoringResult
}

// Callbacks receive a run's notifications and its terminal outcome. For a
// run that is not cancelled, exactly one of OnComplete and OnError fires,
// at most once, strictly after the last progress notification. A cancelled
// run fires neither.
type Callbacks struct {
	OnProgress func(Notification)
	OnComplete func(Outcome)
	OnError    func(error)
}

// extraction progress occupies the first half of the bar; the second half
// belongs to scoring.
const (
	extractionProgressShare = 50.0
	analyzingProgress       = 60.0
	scoredProgress          = 90.0
	completeProgress        = 100.0
)

// Pipeline constructs runs around the injected extraction and scoring
// capabilities. Safe for concurrent use; each StartXRun spawns an
// independent run.
type Pipeline struct {
	extractor   ocr.TextExtractor
	scorer      scoring.Scorer
	publisher   observer.Subject
	settleDelay time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSettleDelay overrides the pause between the scored notification and
// completion. Tests set this near zero.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.settleDelay = d
	}
}

// WithPublisher attaches a run-event publisher for logging and metrics
// observers.
func WithPublisher(publisher observer.Subject) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

func New(extractor ocr.TextExtractor, scorer scoring.Scorer, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		scorer:      scorer,
		settleDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StartImageRun begins an image-driven run. Input validation happens before
// any expensive work and its failure is returned synchronously; everything
// after that reaches the caller through the run's callbacks.
func (p *Pipeline) StartImageRun(ctx context.Context, asset models.ImageAsset, mode models.GoalMode, cb Callbacks) (*Run, error) {
	if err := validation.ValidateImage(asset); err != nil {
		return nil, err
	}

	run := p.newRun(mode, cb)
	run.publish(observer.RunStarted, "", nil)

	go func() {
		run.notify(Notification{
			Stage:      StageExtracting,
			Progress:   0,
			StatusText: "Extracting text from image...",
		})

		rawText, err := p.extractor.ExtractText(ctx, asset, func(fraction float64) {
			run.notify(Notification{
				Stage:      StageExtracting,
				Progress:   fraction * extractionProgressShare,
				StatusText: "Extracting text from image...",
			})
		})
		if err != nil {
			run.fail(apperrors.NewExtractionFailed(err))
			return
		}

		p.analyze(ctx, run, rawText, extractionProgressShare)
	}()

	return run, nil
}

// StartTextRun begins a text-driven run (the barcode path). Extraction is
// skipped and progress starts pinned at the extraction share so both entry
// paths converge to an identical state before scoring.
func (p *Pipeline) StartTextRun(ctx context.Context, rawText string, mode models.GoalMode, cb Callbacks) *Run {
	run := p.newRun(mode, cb)
	run.publish(observer.RunStarted, "", nil)

	go func() {
		p.analyze(ctx, run, rawText, extractionProgressShare)
	}()

	return run
}

// analyze is the shared second half of every run: normalize, score, settle,
// complete.
func (p *Pipeline) analyze(ctx context.Context, run *Run, rawText string, pinnedProgress float64) {
	run.notify(Notification{
		Stage:      StageExtracting,
		Progress:   pinnedProgress,
		StatusText: "Preparing ingredients...",
	})

	tokens := normalize.Normalize(rawText)
	if len(tokens) == 0 {
		run.fail(apperrors.NewNoIngredientsFound())
		return
	}

	run.notify(Notification{
		Stage:      StageAnalyzing,
		Progress:   analyzingProgress,
		StatusText: fmt.Sprintf("Analyzing %d ingredients...", len(tokens)),
	})

	result, err := p.scorer.ScoreIngredients(ctx, tokens, run.mode)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindScoringFailed) {
			run.fail(err)
		} else {
			run.fail(apperrors.NewScoringFailed(err))
		}
		return
	}

	run.notify(Notification{
		Stage:      StageAnalyzing,
		Progress:   scoredProgress,
		StatusText: "Preparing results...",
	})

	// Short settle so the progress surface does not jump from 90 to done in
	// one frame. Purely cosmetic.
	if p.settleDelay > 0 {
		time.Sleep(p.settleDelay)
	}

	run.complete(result)
}

func (p *Pipeline) newRun(mode models.GoalMode, cb Callbacks) *Run {
	return &Run{
		id:       uuid.NewString(),
		mode:     mode,
		cb:       cb,
		stage:    StageIdle,
		pipeline: p,
	}
}
