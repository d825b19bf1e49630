package bagstream

import (
	"fmt"
	"sync"
)

// Subscriber is a live observer channel for one task id. Send pushes one
// status snapshot to the observer; a returned error marks the subscriber
// dead and the hub detaches it. Implementations must tolerate Send being
// called from different goroutines.
type Subscriber interface {
	Send(rec TaskRecord) error
}

// Hub owns the per-task subscriber sets and fans status updates out to
// them. Safe for concurrent use; a broadcast never holds the lock while
// sending, so one slow or broken subscriber cannot block attach/detach or
// delivery to the rest.
type Hub struct {
	cfg      *Config
	registry *Registry

	mu   sync.RWMutex
	subs map[string]map[Subscriber]struct{}
}

func NewHub(cfg *Config, registry *Registry) *Hub {
	return &Hub{
		cfg:      cfg,
		registry: registry,
		subs:     make(map[string]map[Subscriber]struct{}),
	}
}

// Attach registers the subscriber under the task id and immediately sends
// it the current snapshot, if the task exists. A missing task is not an
// error; the task may not exist yet or may already be evicted, and the
// subscriber simply waits for the next broadcast.
func (h *Hub) Attach(id string, sub Subscriber) {
	h.mu.Lock()
	set, ok := h.subs[id]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[id] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	rec, err := h.registry.Get(id)
	if err != nil {
		return
	}
	if err := sub.Send(rec); err != nil {
		h.drop(id, sub, err)
	}
}

// Detach removes the subscriber from the set for id, deleting the entry
// itself once the set is empty. Detaching twice, or detaching a
// subscriber that was never attached, is harmless.
func (h *Hub) Detach(id string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[id]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, id)
	}
}

// Broadcast sends rec to every subscriber currently attached to the task
// id. The set is copied first and iterated outside the lock: a failing
// subscriber is dropped without affecting delivery to the others, and a
// subscriber attached mid-broadcast simply catches the next one.
func (h *Hub) Broadcast(id string, rec TaskRecord) {
	h.mu.RLock()
	set := h.subs[id]
	targets := make([]Subscriber, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.Send(rec); err != nil {
			h.drop(id, sub, err)
		}
	}
}

// SubscriberCount returns how many subscribers are attached to the id.
func (h *Hub) SubscriberCount(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

func (h *Hub) drop(id string, sub Subscriber, err error) {
	h.cfg.logError(LogEvent{
		Message: fmt.Sprintf("Dropping subscriber of task %s after failed send", id),
		TaskID:  id,
		Err:     err,
	})
	h.Detach(id, sub)
}
