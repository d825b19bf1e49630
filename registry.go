package bagstream

import (
	"fmt"
	"sync"
	"time"
)

// Registry owns the mapping from task id to its current record. It is the
// only holder of task state; records leave it exclusively through timed
// eviction. Safe for concurrent use.
type Registry struct {
	cfg   *Config
	mu    sync.Mutex
	tasks map[string]*TaskRecord
}

func NewRegistry(cfg *Config) *Registry {
	return &Registry{
		cfg:   cfg,
		tasks: make(map[string]*TaskRecord),
	}
}

// Create registers a new task at stage zero and returns its initial
// snapshot. Returns ErrDuplicateTask if the id is already live.
func (r *Registry) Create(id string, payload map[string]any) (TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; ok {
		return TaskRecord{}, fmt.Errorf("create task %s: %w", id, ErrDuplicateTask)
	}

	now := time.Now()
	rec := &TaskRecord{
		ID:                  id,
		StageIndex:          0,
		StageName:           r.cfg.Stages[0],
		Progress:            0,
		Status:              StatusProcessing,
		StartedAt:           now,
		EstimatedCompletion: now.Add(r.cfg.EstimateHorizon),
		Payload:             payload,
	}
	r.tasks[id] = rec
	return *rec, nil
}

// Get returns a snapshot of the task, or ErrNotFound if the id is unknown
// or already evicted.
func (r *Registry) Get(id string) (TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return TaskRecord{}, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	return *rec, nil
}

// Advance moves the task to the given processing stage and recomputes the
// derived display fields. The stage index never moves backwards. Returns
// ErrNotFound if the task was evicted; callers racing eviction treat that
// as a no-op.
func (r *Registry) Advance(id string, stage int) (TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return TaskRecord{}, fmt.Errorf("advance task %s: %w", id, ErrNotFound)
	}
	if stage > rec.StageIndex {
		rec.StageIndex = stage
	}
	rec.StageName = r.cfg.Stages[rec.StageIndex]
	rec.Progress = float64(rec.StageIndex) / float64(r.cfg.terminalStage()) * 100
	return *rec, nil
}

// Complete moves the task into the terminal stage, pins progress to 100
// and records the completion time. Returns ErrNotFound if the task was
// evicted.
func (r *Registry) Complete(id string) (TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return TaskRecord{}, fmt.Errorf("complete task %s: %w", id, ErrNotFound)
	}
	now := time.Now()
	rec.StageIndex = r.cfg.terminalStage()
	rec.StageName = r.cfg.Stages[rec.StageIndex]
	rec.Progress = 100
	rec.Status = StatusCompleted
	rec.CompletedAt = &now
	return *rec, nil
}

// ScheduleEviction removes the record unconditionally once delay elapses.
// Removal takes the registry lock, so an eviction and a stale Advance or
// Complete on the same id are mutually exclusive; an evicted id is never
// resurrected by a late update.
func (r *Registry) ScheduleEviction(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.tasks, id)
		r.mu.Unlock()
	})
}
