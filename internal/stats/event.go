package stats

import "time"

type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskDeleted       EventType = "task_deleted"
	EventReviewRated       EventType = "review_rated"
	EventSessionStarted    EventType = "session_started"
	EventSessionCompleted  EventType = "session_completed"
	EventSessionAbandoned  EventType = "session_abandoned"
	EventPracticeStarted   EventType = "practice_started"
	EventPracticeCompleted EventType = "practice_completed"
	EventPracticeAbandoned EventType = "practice_abandoned"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
