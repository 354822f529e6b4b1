package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.ISODate, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateTaskCounts(t *testing.T) {
	now := day("2026-09-01")
	tasks := []model.Task{
		{ID: "a", Topic: model.TopicAlgorithms, EaseFactor: 2.5, Interval: 6, NextReviewDate: "2026-09-01"},
		{ID: "b", Topic: model.TopicAlgorithms, EaseFactor: 1.3, Interval: 1, NextReviewDate: "2026-08-20"},
		{ID: "c", Topic: model.TopicBehavioral, EaseFactor: 2.2, Interval: 15, NextReviewDate: "2026-10-01", Completed: true},
	}

	s := Calculate(tasks, nil, now)

	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.DueToday)
	assert.Equal(t, 1, s.Overdue)
	assert.InDelta(t, 2.0, s.AvgEaseFactor, 0.001)
	assert.InDelta(t, 7.33, s.AvgInterval, 0.001)

	algo := s.ByTopic[model.TopicAlgorithms]
	assert.Equal(t, 2, algo.Total)
	assert.Equal(t, 2, algo.Due)
	assert.InDelta(t, 1.9, algo.AvgEase, 0.001)
}

func TestCalculateStreak(t *testing.T) {
	now := day("2026-09-01")
	events := []Event{
		{Type: EventReviewRated, Timestamp: day("2026-08-30")},
		{Type: EventReviewRated, Timestamp: day("2026-08-31")},
		{Type: EventReviewRated, Timestamp: day("2026-09-01")},
		{Type: EventReviewRated, Timestamp: day("2026-09-01")},
		{Type: EventSessionCompleted, Timestamp: day("2026-09-01")},
	}

	s := Calculate(nil, events, now)

	assert.Equal(t, 3, s.StreakDays)
	assert.Equal(t, 2, s.ReviewsToday)
	assert.Equal(t, 1, s.EventCounts[EventSessionCompleted])
}

func TestCalculateStreakSurvivesUntilMidnight(t *testing.T) {
	// No review yet today: yesterday's streak still counts.
	now := day("2026-09-01")
	events := []Event{
		{Type: EventReviewRated, Timestamp: day("2026-08-30")},
		{Type: EventReviewRated, Timestamp: day("2026-08-31")},
	}

	s := Calculate(nil, events, now)

	assert.Equal(t, 2, s.StreakDays)
	assert.Equal(t, 0, s.ReviewsToday)
}

func TestCalculateStreakBroken(t *testing.T) {
	now := day("2026-09-01")
	events := []Event{
		{Type: EventReviewRated, Timestamp: day("2026-08-28")},
	}

	s := Calculate(nil, events, now)
	assert.Equal(t, 0, s.StreakDays)
}

func TestMemoryRepositoryFilters(t *testing.T) {
	repo := NewMemoryRepository()
	base := day("2026-09-01")
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}
	i := 0
	repo.now = func() time.Time { t := times[i]; i++; return t }

	require.NoError(t, repo.RecordEvent(EventTaskCreated, EventMetadata{"id": "a"}))
	require.NoError(t, repo.RecordEvent(EventReviewRated, EventMetadata{"quality": 4}))
	require.NoError(t, repo.RecordEvent(EventReviewRated, nil))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rated, err := repo.GetEvents(time.Time{}, []EventType{EventReviewRated})
	require.NoError(t, err)
	assert.Len(t, rated, 2)

	late, err := repo.GetEvents(base.Add(90*time.Minute), nil)
	require.NoError(t, err)
	assert.Len(t, late, 1)

	require.NoError(t, repo.Clear())
	all, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}
