package model

import (
	"time"
)

type TaskID string

// Topic is a prep category. The built-in set below is a convention, not a
// constraint: users may create custom topics, so Topic stays an open string.
type Topic string

const (
	TopicAlgorithms   Topic = "algorithms"
	TopicSystemDesign Topic = "system-design"
	TopicBehavioral   Topic = "behavioral"
	TopicCoding       Topic = "coding"
	TopicDatabases    Topic = "databases"
	TopicNetworking   Topic = "networking"
)

// DefaultTopics lists the built-in topics offered at task creation.
func DefaultTopics() []Topic {
	return []Topic{
		TopicAlgorithms,
		TopicSystemDesign,
		TopicBehavioral,
		TopicCoding,
		TopicDatabases,
		TopicNetworking,
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a single prep item. Scheduling fields follow SM-2: repetitions is
// the number of consecutive successful recalls, interval the days until the
// next review, and ease factor the growth multiplier (floor 1.3).
//
// All calendar fields are ISO dates ("2006-01-02") with no time-of-day
// component; lexicographic comparison on them is chronological comparison.
type Task struct {
	ID           TaskID   `json:"id"`
	Title        string   `json:"title"`
	Notes        string   `json:"notes,omitempty"`
	Topic        Topic    `json:"topic"`
	Status       string   `json:"status"`
	Completed    bool     `json:"completed"`
	Priority     Priority `json:"priority,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CollectionID string   `json:"collectionId,omitempty"`

	Repetitions      int     `json:"repetitions"`
	Interval         int     `json:"interval"`
	EaseFactor       float64 `json:"easeFactor"`
	NextReviewDate   string  `json:"nextReviewDate"`
	LastReviewedDate *string `json:"lastReviewedDate,omitempty"`

	Deadline *string `json:"deadline,omitempty"`

	CreatedAt string    `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ISODate is the layout for all calendar fields.
const ISODate = "2006-01-02"

// Today formats now as an ISO date in local time.
func Today(now time.Time) string {
	return now.Format(ISODate)
}

// ValidDate reports whether s is a well-formed ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(ISODate, s)
	return err == nil
}
