package bagstream

import (
	"errors"
	"testing"
	"time"
)

// testConfig returns a small three-stage pipeline with zero stage delays,
// a short retention window and silenced logs.
func testConfig() *Config {
	return &Config{
		Stages:          []string{"Received", "Scanning", "Complete"},
		StageDelays:     []DelayRange{{}, {}},
		Retention:       40 * time.Millisecond,
		EstimateHorizon: 2 * time.Minute,
		InfoLog:         func(LogEvent) {},
		ErrorLog:        func(LogEvent) {},
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestRegistryCreateInitialState(t *testing.T) {
	reg := NewRegistry(testConfig())

	payload := map[string]any{"baggage_id": "BAG-12345"}
	rec, err := reg.Create("T1", payload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "T1" {
		t.Errorf("id = %q, want T1", rec.ID)
	}
	if rec.StageIndex != 0 || rec.StageName != "Received" {
		t.Errorf("initial stage = %d (%q), want 0 (Received)", rec.StageIndex, rec.StageName)
	}
	if rec.Status != StatusProcessing {
		t.Errorf("status = %q, want %q", rec.Status, StatusProcessing)
	}
	if rec.Progress != 0 {
		t.Errorf("progress = %v, want 0", rec.Progress)
	}
	if want := rec.StartedAt.Add(2 * time.Minute); !rec.EstimatedCompletion.Equal(want) {
		t.Errorf("estimated completion = %v, want %v", rec.EstimatedCompletion, want)
	}
	if rec.CompletedAt != nil {
		t.Errorf("completion time set before completion: %v", rec.CompletedAt)
	}

	got, err := reg.Get("T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "T1" || got.StageIndex != 0 {
		t.Errorf("get returned %+v", got)
	}
}

func TestRegistryCreateDuplicate(t *testing.T) {
	reg := NewRegistry(testConfig())

	if _, err := reg.Create("T1", nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := reg.Create("T1", nil)
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("second create err = %v, want ErrDuplicateTask", err)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry(testConfig())

	_, err := reg.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistryAdvanceRecomputesDerivedFields(t *testing.T) {
	reg := NewRegistry(testConfig())
	mustCreate(t, reg, "T1")

	rec, err := reg.Advance("T1", 1)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if rec.StageIndex != 1 || rec.StageName != "Scanning" {
		t.Errorf("stage = %d (%q), want 1 (Scanning)", rec.StageIndex, rec.StageName)
	}
	if rec.Progress != 50 {
		t.Errorf("progress = %v, want 50", rec.Progress)
	}
	if rec.Status != StatusProcessing {
		t.Errorf("status = %q, want %q", rec.Status, StatusProcessing)
	}
}

func TestRegistryAdvanceNeverMovesBackwards(t *testing.T) {
	reg := NewRegistry(testConfig())
	mustCreate(t, reg, "T1")

	if _, err := reg.Advance("T1", 1); err != nil {
		t.Fatalf("advance to 1: %v", err)
	}
	rec, err := reg.Advance("T1", 0)
	if err != nil {
		t.Fatalf("stale advance: %v", err)
	}
	if rec.StageIndex != 1 || rec.Progress != 50 {
		t.Errorf("stale advance moved stage backwards: %+v", rec)
	}
}

func TestRegistryComplete(t *testing.T) {
	reg := NewRegistry(testConfig())
	mustCreate(t, reg, "T1")

	rec, err := reg.Complete("T1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", rec.Status, StatusCompleted)
	}
	if rec.Progress != 100 {
		t.Errorf("progress = %v, want 100", rec.Progress)
	}
	if rec.StageIndex != 2 || rec.StageName != "Complete" {
		t.Errorf("terminal stage = %d (%q), want 2 (Complete)", rec.StageIndex, rec.StageName)
	}
	if rec.CompletedAt == nil {
		t.Error("completion time not set")
	}
}

func TestRegistryEvictionRemovesRecord(t *testing.T) {
	reg := NewRegistry(testConfig())
	mustCreate(t, reg, "T1")

	if _, err := reg.Complete("T1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	reg.ScheduleEviction("T1", 30*time.Millisecond)

	// Still queryable inside the retention window.
	if rec, err := reg.Get("T1"); err != nil || rec.Status != StatusCompleted {
		t.Fatalf("get inside retention window: rec=%+v err=%v", rec, err)
	}

	waitFor(t, 2*time.Second, func() bool {
		_, err := reg.Get("T1")
		return errors.Is(err, ErrNotFound)
	})
}

func TestRegistryStaleUpdateAfterEviction(t *testing.T) {
	reg := NewRegistry(testConfig())
	mustCreate(t, reg, "T1")
	reg.ScheduleEviction("T1", 0)

	waitFor(t, 2*time.Second, func() bool {
		_, err := reg.Get("T1")
		return errors.Is(err, ErrNotFound)
	})

	if _, err := reg.Advance("T1", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("advance after eviction err = %v, want ErrNotFound", err)
	}
	if _, err := reg.Complete("T1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete after eviction err = %v, want ErrNotFound", err)
	}
	// The evicted id must stay gone.
	if _, err := reg.Get("T1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after stale updates err = %v, want ErrNotFound", err)
	}
}

func mustCreate(t *testing.T, reg *Registry, id string) TaskRecord {
	t.Helper()
	rec, err := reg.Create(id, nil)
	if err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	return rec
}
