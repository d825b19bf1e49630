package bagstream

import "errors"

var (
	// ErrNotFound indicates the task id is unknown or already evicted.
	// Expected during normal eviction races; callers treat it as a no-op.
	ErrNotFound = errors.New("task not found")

	// ErrDuplicateTask indicates a create collided with a live task id.
	// Ids come from UUID generation, so hitting this means a broken caller.
	ErrDuplicateTask = errors.New("duplicate task id")
)
