// Package bagstream tracks the progress of multi-stage baggage-processing
// tasks and streams live status updates to any number of subscribers
// watching a task. State lives in an in-memory registry; one goroutine per
// task advances it through its stages and a hub fans every transition out
// to the attached subscribers.
package bagstream

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tracker is the entry point: it owns the registry, the subscriber hub
// and the runner goroutines. Construct one with New at process start and
// share it with every transport handler that needs it.
type Tracker struct {
	cfg      *Config
	registry *Registry
	hub      *Hub
	mgr      *Manager
}

func New(cfg Config) (*Tracker, error) {
	// Provide default log functions if the user didn't set them
	if cfg.InfoLog == nil {
		cfg.InfoLog = defaultInfoLog
	}
	if cfg.ErrorLog == nil {
		cfg.ErrorLog = defaultErrorLog
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	registry := NewRegistry(&cfg)
	return &Tracker{
		cfg:      &cfg,
		registry: registry,
		hub:      NewHub(&cfg, registry),
		mgr:      newManager(context.Background(), &cfg),
	}, nil
}

// Submit registers a new task with the given opaque payload and starts
// processing it in the background. The returned snapshot is the task's
// initial state: stage zero, Processing.
func (t *Tracker) Submit(payload map[string]any) (TaskRecord, error) {
	id := uuid.NewString()
	rec, err := t.registry.Create(id, payload)
	if err != nil {
		return TaskRecord{}, err
	}
	t.mgr.launch(&runner{
		id:       id,
		cfg:      t.cfg,
		registry: t.registry,
		hub:      t.hub,
	})
	return rec, nil
}

// Status returns the current snapshot of the task, or ErrNotFound if the
// id is unknown or the record has been evicted.
func (t *Tracker) Status(id string) (TaskRecord, error) {
	return t.registry.Get(id)
}

// Subscribe attaches the subscriber to the task's update stream. It
// succeeds even if the task does not exist yet (or no longer exists); the
// subscriber receives the current snapshot immediately when there is one.
func (t *Tracker) Subscribe(id string, sub Subscriber) {
	t.hub.Attach(id, sub)
}

// Unsubscribe detaches the subscriber. Idempotent.
func (t *Tracker) Unsubscribe(id string, sub Subscriber) {
	t.hub.Detach(id, sub)
}

// Shutdown gracefully stops all runners, waiting up to timeout for them
// to exit. In-flight tasks stop at their next stage delay and keep their
// last recorded state.
func (t *Tracker) Shutdown(timeout time.Duration) {
	t.mgr.Shutdown(timeout)
	t.cfg.logInfo(LogEvent{Message: "Tracker shutdown complete."})
}
