package bagstream

import (
	"fmt"
	"time"
)

// DelayRange bounds the simulated duration of one processing stage.
// A draw picks a uniform duration in [Min, Max].
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// Config holds the settings and resources needed by the tracker.
type Config struct {
	// Stages is the ordered list of stage names. The last entry is the
	// terminal stage; everything before it is a processing stage.
	Stages []string

	// StageDelays gives the simulated duration range of each processing
	// stage. Must hold exactly len(Stages)-1 entries.
	StageDelays []DelayRange

	// Retention is how long a completed record stays queryable before it
	// is evicted. Eviction is unconditional; late subscriber attaches do
	// not reset it.
	Retention time.Duration

	// EstimateHorizon is the gap between a task's start time and its
	// advertised estimated completion time.
	EstimateHorizon time.Duration

	// InfoLog is called for informational or success logs.
	// If nil, defaults to printing to stdout.
	InfoLog func(ev LogEvent)

	// ErrorLog is called for error logs.
	// If nil, defaults to printing to stderr.
	ErrorLog func(ev LogEvent)
}

// DefaultConfig returns the baggage-processing pipeline as shipped: five
// stages, 20-35 second stage delays, a two-minute completion estimate and
// a five-minute retention window.
func DefaultConfig() Config {
	return Config{
		Stages: []string{
			"Baggage Check-in",
			"Security Screening",
			"Baggage Sorting",
			"Loading onto Aircraft",
			"Processing Complete",
		},
		StageDelays: []DelayRange{
			{Min: 20 * time.Second, Max: 30 * time.Second},
			{Min: 25 * time.Second, Max: 35 * time.Second},
			{Min: 20 * time.Second, Max: 30 * time.Second},
			{Min: 25 * time.Second, Max: 35 * time.Second},
		},
		Retention:       5 * time.Minute,
		EstimateHorizon: 2 * time.Minute,
	}
}

func (c *Config) validate() error {
	if len(c.Stages) < 2 {
		return fmt.Errorf("config: need at least one processing stage and one terminal stage, got %d", len(c.Stages))
	}
	if len(c.StageDelays) != len(c.Stages)-1 {
		return fmt.Errorf("config: %d stages require %d delay ranges, got %d",
			len(c.Stages), len(c.Stages)-1, len(c.StageDelays))
	}
	for i, d := range c.StageDelays {
		if d.Min < 0 || d.Max < d.Min {
			return fmt.Errorf("config: invalid delay range %v at stage %d", d, i)
		}
	}
	if c.Retention < 0 {
		return fmt.Errorf("config: negative retention %v", c.Retention)
	}
	return nil
}

// terminalStage is the index of the absorbing "complete" stage.
func (c *Config) terminalStage() int {
	return len(c.Stages) - 1
}
