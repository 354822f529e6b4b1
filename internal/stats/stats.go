package stats

import (
	"math"
	"time"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

type TopicStats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Due       int     `json:"due"`
	AvgEase   float64 `json:"avg_ease"`
}

type Stats struct {
	AsOf string `json:"as_of"`

	TotalTasks int `json:"total_tasks"`
	Completed  int `json:"completed"`
	DueToday   int `json:"due_today"`
	Overdue    int `json:"overdue"`

	AvgEaseFactor float64 `json:"avg_ease_factor"`
	AvgInterval   float64 `json:"avg_interval_days"`

	ReviewsToday int `json:"reviews_today"`
	StreakDays   int `json:"streak_days"`

	ByTopic     map[model.Topic]TopicStats `json:"by_topic"`
	EventCounts map[EventType]int          `json:"event_counts"`
}

// Calculate builds a snapshot from the task set and the activity log.
func Calculate(tasks []model.Task, events []Event, now time.Time) Stats {
	s := Stats{
		AsOf:        model.Today(now),
		ByTopic:     make(map[model.Topic]TopicStats),
		EventCounts: make(map[EventType]int),
	}

	due := schedule.SelectDue(tasks, now)
	s.DueToday = len(due.Due)
	s.Overdue = len(due.Overdue)

	dueIDs := make(map[model.TaskID]bool, len(due.Due)+len(due.Overdue))
	for _, t := range due.Due {
		dueIDs[t.ID] = true
	}
	for _, t := range due.Overdue {
		dueIDs[t.ID] = true
	}

	var easeSum, intervalSum float64
	easeByTopic := make(map[model.Topic]float64)

	for _, t := range tasks {
		s.TotalTasks++
		if t.Completed {
			s.Completed++
		}
		easeSum += t.EaseFactor
		intervalSum += float64(t.Interval)

		ts := s.ByTopic[t.Topic]
		ts.Total++
		if t.Completed {
			ts.Completed++
		}
		if dueIDs[t.ID] {
			ts.Due++
		}
		s.ByTopic[t.Topic] = ts
		easeByTopic[t.Topic] += t.EaseFactor
	}

	if s.TotalTasks > 0 {
		s.AvgEaseFactor = round2(easeSum / float64(s.TotalTasks))
		s.AvgInterval = round2(intervalSum / float64(s.TotalTasks))
	}
	for topic, ts := range s.ByTopic {
		if ts.Total > 0 {
			ts.AvgEase = round2(easeByTopic[topic] / float64(ts.Total))
			s.ByTopic[topic] = ts
		}
	}

	today := model.Today(now)
	reviewDays := make(map[string]bool)
	for _, e := range events {
		s.EventCounts[e.Type]++
		if e.Type != EventReviewRated {
			continue
		}
		day := model.Today(e.Timestamp)
		reviewDays[day] = true
		if day == today {
			s.ReviewsToday++
		}
	}
	s.StreakDays = streak(reviewDays, now)

	return s
}

// streak counts consecutive review days ending today, or ending yesterday
// when today has no review yet (an unbroken streak survives until midnight).
func streak(reviewDays map[string]bool, now time.Time) int {
	day := now
	if !reviewDays[model.Today(day)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for reviewDays[model.Today(day)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
