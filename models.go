package bagstream

import (
	"time"
)

// TaskStatus enumerates the possible states of a tracked task.
type TaskStatus string

const (
	StatusProcessing TaskStatus = "Processing"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskRecord is the live status of one baggage-processing task. The JSON
// shape is the wire format pushed to subscribers and returned by the
// status endpoint.
type TaskRecord struct {
	ID                  string     `json:"task_id"`
	StageIndex          int        `json:"stage"`
	StageName           string     `json:"stage_name"`
	Progress            float64    `json:"progress"`
	Status              TaskStatus `json:"status"`
	StartedAt           time.Time  `json:"start_time"`
	EstimatedCompletion time.Time  `json:"estimated_completion"`
	CompletedAt         *time.Time `json:"completion_time,omitempty"`

	// Payload carries the descriptive fields attached at submission.
	// It is opaque to the tracker and never mutated after creation.
	Payload map[string]any `json:"baggage_details"`
}
