package pipeline

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/apexscan/ingredient-scanner-go/internal/errors"
	"github.com/apexscan/ingredient-scanner-go/internal/observer"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

// Run is one in-flight analysis. Its state machine moves forward only:
// idle -> extracting -> analyzing -> complete | failed, with cancellation
// allowed from any non-terminal state. All transitions are serialized under
// the run's mutex; callbacks fire outside the lock.
type Run struct {
	id       string
	mode     models.GoalMode
	cb       Callbacks
	pipeline *Pipeline

	mu           sync.Mutex
	stage        Stage
	lastProgress float64
	notified     bool
	cancelled    bool
	terminal     bool
}

// ID returns the run's correlation id.
func (r *Run) ID() string {
	return r.id
}

// Cancel abandons the run. After Cancel returns, no further callback will
// fire: in-flight extraction or scoring calls run to completion but their
// results are discarded. Cancelling a run that already reached a terminal
// state is a no-op.
func (r *Run) Cancel() {
	r.mu.Lock()
	if r.terminal || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	stage := r.stage
	r.mu.Unlock()

	r.publish(observer.RunCancelled, string(stage), nil)
}

// notify emits a progress notification unless the run is done or cancelled.
// Progress is clamped to be non-decreasing, and a repeat of the current
// stage at no-higher progress is suppressed so capability callbacks that
// re-report their starting point do not produce duplicate updates.
func (r *Run) notify(n Notification) {
	r.mu.Lock()
	if r.terminal || r.cancelled {
		r.mu.Unlock()
		return
	}
	if r.notified && n.Stage == r.stage && n.Progress <= r.lastProgress {
		r.mu.Unlock()
		return
	}
	if n.Progress < r.lastProgress {
		n.Progress = r.lastProgress
	}
	r.stage = n.Stage
	r.lastProgress = n.Progress
	r.notified = true
	r.mu.Unlock()

	if r.cb.OnProgress != nil {
		r.cb.OnProgress(n)
	}
	r.publishProgress(n)
}

// complete moves the run to its successful terminal state. The final
// progress notification and the outcome callback fire in that order, once.
func (r *Run) complete(result *models.ScoringResult) {
	r.mu.Lock()
	if r.terminal || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.terminal = true
	r.stage = StageComplete
	r.lastProgress = completeProgress
	r.mu.Unlock()

	final := Notification{
		Stage:      StageComplete,
		Progress:   completeProgress,
		StatusText: "Analysis complete",
	}
	if r.cb.OnProgress != nil {
		r.cb.OnProgress(final)
	}
	if r.cb.OnComplete != nil {
		r.cb.OnComplete(Outcome{RunID: r.id, Mode: r.mode, Result: result})
	}
	r.publish(observer.RunCompleted, string(StageComplete), result)
}

// fail moves the run to its failed terminal state.
func (r *Run) fail(err error) {
	r.mu.Lock()
	if r.terminal || r.cancelled {
		r.mu.Unlock()
		return
	}
	r.terminal = true
	r.stage = StageFailed
	r.mu.Unlock()

	if r.cb.OnError != nil {
		r.cb.OnError(err)
	}

	event := observer.RunEvent{
		EventType: observer.RunFailed,
		RunID:     r.id,
		Mode:      string(r.mode),
		Stage:     string(StageFailed),
		ErrorKind: string(apperrors.KindOf(err)),
		Message:   err.Error(),
	}
	r.emitEvent(event)
}

func (r *Run) publish(eventType observer.EventType, stage string, result *models.ScoringResult) {
	event := observer.RunEvent{
		EventType: eventType,
		RunID:     r.id,
		Mode:      string(r.mode),
		Stage:     stage,
	}
	if result != nil {
		event.FinalScore = result.FinalScore
		event.Progress = completeProgress
	}
	r.emitEvent(event)
}

func (r *Run) publishProgress(n Notification) {
	r.emitEvent(observer.RunEvent{
		EventType: observer.RunProgressed,
		RunID:     r.id,
		Mode:      string(r.mode),
		Stage:     string(n.Stage),
		Progress:  n.Progress,
		Message:   n.StatusText,
	})
}

func (r *Run) emitEvent(event observer.RunEvent) {
	if r.pipeline == nil || r.pipeline.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	r.pipeline.publisher.NotifyObservers(context.Background(), event)
}
