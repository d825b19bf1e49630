package bagstream

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// runner drives a single task through its ordered stages. Exactly one
// runner exists per task, so stage transitions for one id are always
// serial and broadcasts go out in stage order.
type runner struct {
	id       string
	cfg      *Config
	registry *Registry
	hub      *Hub
}

// draw picks a simulated stage duration.
func (d DelayRange) draw() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min)
}

// Run walks the task through every processing stage, then completes it
// and schedules eviction after the retention window. Each transition is
// written to the registry and broadcast to subscribers. ErrNotFound from
// the registry means the task was evicted out from under us; the run ends
// silently. Context cancellation stops future transitions at the next
// stage delay.
func (r *runner) Run(ctx context.Context) {
	start := time.Now()
	r.cfg.logInfo(LogEvent{
		Message: fmt.Sprintf("Task %s processing started.", r.id),
		TaskID:  r.id,
	})

	for stage := range r.cfg.StageDelays {
		rec, err := r.registry.Advance(r.id, stage)
		if err != nil {
			return
		}
		r.hub.Broadcast(r.id, rec)

		select {
		case <-ctx.Done():
			r.cfg.logInfo(LogEvent{
				Message: fmt.Sprintf("Task %s runner stopped before completion.", r.id),
				TaskID:  r.id,
				Stage:   &stage,
			})
			return
		case <-time.After(r.cfg.StageDelays[stage].draw()):
		}
	}

	rec, err := r.registry.Complete(r.id)
	if err != nil {
		return
	}
	r.hub.Broadcast(r.id, rec)
	r.registry.ScheduleEviction(r.id, r.cfg.Retention)

	elapsed := time.Since(start)
	stage := rec.StageIndex
	r.cfg.logInfo(LogEvent{
		Message:  fmt.Sprintf("Task %s COMPLETED in %v", r.id, elapsed),
		TaskID:   r.id,
		Stage:    &stage,
		Duration: &elapsed,
	})
}
