package jobscheduler

import "time"

type Kind string

const (
	KindStats       Kind = "stats"
	KindStandings   Kind = "standings"
	KindSearchIndex Kind = "search-index"
)

func ParseKind(value string) (Kind, bool) {
	switch kind := Kind(value); kind {
	case KindStats, KindStandings, KindSearchIndex:
		return kind, true
	default:
		return "", false
	}
}

// Job asks a worker to rebuild derived data for one target. Delivery is
// at-least-once, so every handler must be safe to run twice.
type Job struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	TargetID   string            `json:"target_id"`
	Payload    map[string]string `json:"payload,omitempty"`
	Attempt    int               `json:"attempt"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
	StatusParked    DispatchStatus = "parked"
)

type DispatchEvent struct {
	JobID        string
	Kind         Kind
	TargetID     string
	Status       DispatchStatus
	Attempt      int
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
