// Package events provides lifecycle notifications for bench runs.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventRunStarted is emitted when a bench run begins
	EventRunStarted EventType = "run_started"
	// EventPhaseStarted is emitted before a search, sort or baseline phase
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseCompleted is emitted after a phase finishes successfully
	EventPhaseCompleted EventType = "phase_completed"
	// EventRunCompleted is emitted when every iteration of a run finished
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed is emitted when a run aborts with an error
	EventRunFailed EventType = "run_failed"
)

// Phase names a measured step of a bench iteration
type Phase string

const (
	PhaseSearch       Phase = "search"
	PhaseSort         Phase = "sort"
	PhaseBaselineFind Phase = "baseline_search"
	PhaseBaselineSort Phase = "baseline_sort"
)

// Event represents a bench lifecycle event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Name     string `json:"name,omitempty"`
	Phase    Phase  `json:"phase,omitempty"`
	Run      int    `json:"run,omitempty"`
	Duration string `json:"duration,omitempty"`
	Found    *bool  `json:"found,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID, name string) Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      EventData{Name: name},
	}
}

// NewPhaseStartedEvent creates a phase started event. run is 1-based.
func NewPhaseStartedEvent(runID string, phase Phase, run int) Event {
	return Event{
		Type:      EventPhaseStarted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      EventData{Phase: phase, Run: run},
	}
}

// NewPhaseCompletedEvent creates a phase completed event
func NewPhaseCompletedEvent(runID string, phase Phase, run int, d time.Duration) Event {
	return Event{
		Type:      EventPhaseCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      EventData{Phase: phase, Run: run, Duration: d.String()},
	}
}

// NewSearchCompletedEvent creates a phase completed event carrying the search outcome
func NewSearchCompletedEvent(runID string, run int, d time.Duration, found bool) Event {
	e := NewPhaseCompletedEvent(runID, PhaseSearch, run, d)
	e.Data.Found = &found
	return e
}

// NewRunCompletedEvent creates a run completed event
func NewRunCompletedEvent(runID, name string, d time.Duration) Event {
	return Event{
		Type:      EventRunCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data:      EventData{Name: name, Duration: d.String()},
	}
}

// NewRunFailedEvent creates a run failed event
func NewRunFailedEvent(runID string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventRunFailed,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Error: errMsg,
		},
	}
}
