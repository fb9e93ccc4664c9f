// Package observer fans pipeline run events out to interested listeners.
// Observers are side channels for logging and metrics; the pipeline's own
// caller callbacks never route through here.
package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType represents the type of run event.
type EventType string

const (
	// RunStarted when a pipeline run is accepted
	RunStarted EventType = "run_started"
	// RunProgressed on every stage/progress notification
	RunProgressed EventType = "run_progressed"
	// RunCompleted when a run publishes its scoring result
	RunCompleted EventType = "run_completed"
	// RunFailed when a run reaches the failed state
	RunFailed EventType = "run_failed"
	// RunCancelled when the caller abandons a run before it settles
	RunCancelled EventType = "run_cancelled"
)

// RunEvent describes one pipeline run transition.
type RunEvent struct {
	EventType  EventType `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Stage      string    `json:"stage,omitempty"`
	Progress   float64   `json:"progress"`
	FinalScore float64   `json:"final_score,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Observer receives run events.
type Observer interface {
	OnEvent(ctx context.Context, event RunEvent)
	GetObserverName() string
}

// Subject publishes run events to subscribed observers.
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event RunEvent)
}

// LoggingObserver logs run events.
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event RunEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"run_id":     event.RunID,
		"mode":       event.Mode,
		"stage":      event.Stage,
		"progress":   event.Progress,
	}
	if event.ErrorKind != "" {
		fields["error_kind"] = event.ErrorKind
	}
	if event.Message != "" {
		fields["message"] = event.Message
	}

	switch event.EventType {
	case RunStarted:
		o.logger.WithFields(fields).Info("Analysis run started")
	case RunProgressed:
		o.logger.WithFields(fields).Debug("Analysis run progressed")
	case RunCompleted:
		fields["final_score"] = event.FinalScore
		o.logger.WithFields(fields).Info("Analysis run completed")
	case RunFailed:
		o.logger.WithFields(fields).Error("Analysis run failed")
	case RunCancelled:
		o.logger.WithFields(fields).Info("Analysis run cancelled")
	default:
		o.logger.WithFields(fields).Info("Analysis run event")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver keeps in-memory counters over run outcomes.
type MetricsObserver struct {
	mu            sync.RWMutex
	startedRuns   int64
	completedRuns int64
	failedRuns    int64
	cancelledRuns int64
	scoreSum      float64
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event RunEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RunStarted:
		o.startedRuns++
	case RunCompleted:
		o.completedRuns++
		o.scoreSum += event.FinalScore
	case RunFailed:
		o.failedRuns++
	case RunCancelled:
		o.cancelledRuns++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Snapshot returns current counters.
func (o *MetricsObserver) Snapshot() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgScore := 0.0
	if o.completedRuns > 0 {
		avgScore = o.scoreSum / float64(o.completedRuns)
	}
	return map[string]interface{}{
		"started_runs":   o.startedRuns,
		"completed_runs": o.completedRuns,
		"failed_runs":    o.failedRuns,
		"cancelled_runs": o.cancelledRuns,
		"avg_score":      avgScore,
	}
}

// EventPublisher implements Subject.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0)}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer. Delivery is
// asynchronous; a slow or panicking observer never stalls a run.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RunEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling run event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
