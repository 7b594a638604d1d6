package run

import (
	"time"

	"gocausal/domain/core"
)

// Event types published while a run progresses
const (
	EventStarted   = "run_started"
	EventCompleted = "run_completed"
	EventFailed    = "run_failed"
)

// Event reports progress of one discovery run
type Event struct {
	Dataset   string                 `json:"dataset"`
	EventType string                 `json:"event_type"`
	RunID     core.RunID             `json:"run_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
