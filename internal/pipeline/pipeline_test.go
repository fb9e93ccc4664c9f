package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/ocr"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

type fakeExtractor struct {
	text    string
	err     error
	ticks   []float64
	release chan struct{}
}

func (f *fakeExtractor) ExtractText(ctx context.Context, asset models.ImageAsset, onProgress ocr.ProgressFunc) (string, error) {
	for _, tick := range f.ticks {
		if onProgress != nil {
			onProgress(tick)
		}
	}
	if f.release != nil {
		<-f.release
	}
	return f.text, f.err
}

func (f *fakeExtractor) Close() error { return nil }

type fakeScorer struct {
	result  *models.ScoringResult
	err     error
	release chan struct{}
}

func (f *fakeScorer) ScoreIngredients(ctx context.Context, tokens []string, mode models.GoalMode) (*models.ScoringResult, error) {
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

// recorder collects callback traffic for assertions.
type recorder struct {
	mu            sync.Mutex
	notifications []Notification
	outcome       *Outcome
	err           error
	done          chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(n Notification) {
			r.mu.Lock()
			r.notifications = append(r.notifications, n)
			r.mu.Unlock()
		},
		OnComplete: func(o Outcome) {
			r.mu.Lock()
			r.outcome = &o
			r.mu.Unlock()
			close(r.done)
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not reach a terminal state")
	}
}

func (r *recorder) progressValues() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := make([]float64, 0, len(r.notifications))
	for _, n := range r.notifications {
		values = append(values, n.Progress)
	}
	return values
}

func validAsset() models.ImageAsset {
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	return models.ImageAsset{Data: data, MediaType: "image/png", Size: int64(len(data))}
}

func okResult() *models.ScoringResult {
	return &models.ScoringResult{FinalScore: 85, Verdict: "Apex Fuel"}
}

func TestImageRunProgressSequence(t *testing.T) {
	extractor := &fakeExtractor{text: "whey, sugar", ticks: []float64{0, 0.5, 1.0}}
	p := New(extractor, &fakeScorer{result: okResult()}, WithSettleDelay(time.Millisecond))

	rec := newRecorder()
	run, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, rec.callbacks())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID())

	rec.wait(t)

	assert.Equal(t, []float64{0, 25, 50, 60, 90, 100}, rec.progressValues())
	require.NotNil(t, rec.outcome)
	assert.Equal(t, 85.0, rec.outcome.Result.FinalScore)
	assert.Equal(t, models.GoalBulk, rec.outcome.Mode)
	assert.Nil(t, rec.err)

	last := rec.notifications[len(rec.notifications)-1]
	assert.Equal(t, StageComplete, last.Stage)
}

func TestImageRunProgressNeverDecreases(t *testing.T) {
	// A backend that reports out of order must not move the bar backwards.
	extractor := &fakeExtractor{text: "whey", ticks: []float64{0.8, 0.3, 1.0}}
	p := New(extractor, &fakeScorer{result: okResult()}, WithSettleDelay(0))

	rec := newRecorder()
	_, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	values := rec.progressValues()
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
}

func TestTextRunPinsExtractionShare(t *testing.T) {
	p := New(&fakeExtractor{}, &fakeScorer{result: okResult()}, WithSettleDelay(0))

	rec := newRecorder()
	p.StartTextRun(context.Background(), "whey, oats", models.GoalBulk, rec.callbacks())
	rec.wait(t)

	assert.Equal(t, []float64{50, 60, 90, 100}, rec.progressValues())
	require.NotNil(t, rec.outcome)
}

func TestImageRunRejectsInvalidAsset(t *testing.T) {
	p := New(&fakeExtractor{}, &fakeScorer{}, WithSettleDelay(0))

	rec := newRecorder()
	asset := models.ImageAsset{Data: []byte("x"), MediaType: "image/gif", Size: 1}
	run, err := p.StartImageRun(context.Background(), asset, models.GoalBulk, rec.callbacks())

	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnsupportedMediaType))
	assert.Empty(t, rec.progressValues())
}

func TestImageRunExtractionFailure(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("engine crashed")}
	p := New(extractor, &fakeScorer{}, WithSettleDelay(0))

	rec := newRecorder()
	_, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	require.Error(t, rec.err)
	assert.True(t, apperrors.IsKind(rec.err, apperrors.KindExtractionFailed))
	assert.Nil(t, rec.outcome)
}

func TestImageRunNoIngredients(t *testing.T) {
	// Extraction succeeds but normalization leaves nothing behind.
	extractor := &fakeExtractor{text: "12% %% ()"}
	p := New(extractor, &fakeScorer{}, WithSettleDelay(0))

	rec := newRecorder()
	_, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	require.Error(t, rec.err)
	assert.True(t, apperrors.IsKind(rec.err, apperrors.KindNoIngredients))
}

func TestRunScoringFailure(t *testing.T) {
	scorer := &fakeScorer{err: apperrors.NewScoringFailed(errors.New("backend down"))}
	p := New(&fakeExtractor{text: "whey"}, scorer, WithSettleDelay(0))

	rec := newRecorder()
	_, err := p.StartImageRun(context.Background(), validAsset(), models.GoalCut, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	require.Error(t, rec.err)
	assert.True(t, apperrors.IsKind(rec.err, apperrors.KindScoringFailed))
}

func TestCancelSuppressesAllCallbacks(t *testing.T) {
	release := make(chan struct{})
	scorer := &fakeScorer{result: okResult(), release: release}
	p := New(&fakeExtractor{text: "whey"}, scorer, WithSettleDelay(0))

	var mu sync.Mutex
	var completions, failures int
	settled := make(chan struct{})

	run, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, Callbacks{
		OnComplete: func(Outcome) {
			mu.Lock()
			completions++
			mu.Unlock()
		},
		OnError: func(error) {
			mu.Lock()
			failures++
			mu.Unlock()
		},
		OnProgress: func(n Notification) {
			if n.Stage == StageAnalyzing {
				select {
				case <-settled:
				default:
					close(settled)
				}
			}
		},
	})
	require.NoError(t, err)

	// Wait until the run is blocked inside the scorer, then cancel and let
	// the in-flight call finish. Its result must be discarded.
	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("run never reached the analyzing stage")
	}
	run.Cancel()
	close(release)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, completions)
	assert.Zero(t, failures)
}

func TestCancelAfterCompletionIsNoOp(t *testing.T) {
	p := New(&fakeExtractor{text: "whey"}, &fakeScorer{result: okResult()}, WithSettleDelay(0))

	rec := newRecorder()
	run, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	run.Cancel()

	require.NotNil(t, rec.outcome)
	assert.Nil(t, rec.err)
}

func TestTerminalCallbackFiresAtMostOnce(t *testing.T) {
	p := New(&fakeExtractor{text: "whey"}, &fakeScorer{result: okResult()}, WithSettleDelay(0))

	var mu sync.Mutex
	completions := 0
	done := make(chan struct{})
	run, err := p.StartImageRun(context.Background(), validAsset(), models.GoalBulk, Callbacks{
		OnComplete: func(Outcome) {
			mu.Lock()
			completions++
			mu.Unlock()
			close(done)
		},
	})
	require.NoError(t, err)

	<-done
	run.complete(okResult())
	run.fail(errors.New("late"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, completions)
}
