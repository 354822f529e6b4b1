package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

func strptr(s string) *string { return &s }

func TestMemoryRepo_CreateDefaults(t *testing.T) {
	r := NewMemoryRepo()

	created, err := r.Create(model.Task{Title: "Dijkstra", Topic: model.TopicAlgorithms})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusTodo, created.Status)
	assert.Equal(t, schedule.DefaultEaseFactor, created.EaseFactor)
	assert.Equal(t, model.Today(time.Now()), created.NextReviewDate, "new tasks come due immediately")
	assert.Equal(t, model.Today(time.Now()), created.CreatedAt)
	assert.NotNil(t, created.Tags)
}

func TestMemoryRepo_CreateValidation(t *testing.T) {
	r := NewMemoryRepo()

	_, err := r.Create(model.Task{Title: "  "})
	assert.True(t, errors.Is(err, ErrEmptyTitle))

	_, err = r.Create(model.Task{Title: "x", Deadline: strptr("not-a-date")})
	assert.True(t, errors.Is(err, ErrInvalidDate))

	_, err = r.Create(model.Task{Title: "x", NextReviewDate: "2026-13-40"})
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestMemoryRepo_UpdatePatchSemantics(t *testing.T) {
	r := NewMemoryRepo()
	created, err := r.Create(model.Task{Title: "B-trees", Deadline: strptr("2026-10-01")})
	require.NoError(t, err)

	// nil pointers leave fields alone
	got, err := r.Update(created.ID, Patch{Notes: strptr("read the paper")})
	require.NoError(t, err)
	assert.Equal(t, "B-trees", got.Title)
	assert.Equal(t, "read the paper", got.Notes)
	require.NotNil(t, got.Deadline)

	// empty string clears the deadline
	got, err = r.Update(created.ID, Patch{Deadline: strptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Deadline)

	// malformed date rejected, not coerced
	_, err = r.Update(created.ID, Patch{Deadline: strptr("tomorrow")})
	assert.True(t, errors.Is(err, ErrInvalidDate))

	_, err = r.Update("missing", Patch{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryRepo_ListDueFilters(t *testing.T) {
	r := NewMemoryRepo()
	today := model.Today(time.Now())
	past := model.Today(time.Now().AddDate(0, 0, -3))
	future := model.Today(time.Now().AddDate(0, 0, 3))

	mk := func(title, nrd string, completed bool) model.Task {
		created, err := r.Create(model.Task{Title: title, NextReviewDate: nrd})
		require.NoError(t, err)
		if completed {
			done := true
			created, err = r.Update(created.ID, Patch{Completed: &done})
			require.NoError(t, err)
		}
		return created
	}
	mk("overdue", past, false)
	mk("today", today, false)
	mk("future", future, false)
	mk("finished", past, true)

	titles := func(f ListFilter) []string {
		list, err := r.List(f)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, task := range list {
			out = append(out, task.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"overdue", "today", "future", "finished"}, titles(ListFilter{}))
	assert.ElementsMatch(t, []string{"overdue", "today"}, titles(ListFilter{Due: "due"}))
	assert.ElementsMatch(t, []string{"overdue"}, titles(ListFilter{Due: "overdue"}))
	assert.ElementsMatch(t, []string{"finished"}, titles(ListFilter{Due: "done"}))
	assert.ElementsMatch(t, []string{"overdue", "today", "future"}, titles(ListFilter{Due: "pending"}))
}

func TestMemoryRepo_ListOrderIsStable(t *testing.T) {
	r := NewMemoryRepo()
	for _, title := range []string{"a", "b", "c", "d"} {
		_, err := r.Create(model.Task{Title: title})
		require.NoError(t, err)
	}

	first, err := r.List(ListFilter{})
	require.NoError(t, err)
	second, err := r.List(ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemoryRepo_SetSchedule(t *testing.T) {
	r := NewMemoryRepo()
	created, err := r.Create(model.Task{Title: "Raft"})
	require.NoError(t, err)

	reviewedAt := time.Now()
	u := schedule.Update{
		State:          schedule.State{Repetitions: 1, Interval: 1, EaseFactor: 2.5},
		NextReviewDate: model.Today(reviewedAt.AddDate(0, 0, 1)),
	}
	got, err := r.SetSchedule(created.ID, u, reviewedAt)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Repetitions)
	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, u.NextReviewDate, got.NextReviewDate)
	require.NotNil(t, got.LastReviewedDate)
	assert.Equal(t, model.Today(reviewedAt), *got.LastReviewedDate)
}

func TestMemoryRepo_SetStatus(t *testing.T) {
	r := NewMemoryRepo()
	created, err := r.Create(model.Task{Title: "Mock interview"})
	require.NoError(t, err)

	got, err := r.SetStatus(created.ID, model.StatusInProgress, model.StatusDone)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	got, err = r.SetStatus(created.ID, model.StatusDone, model.StatusDone)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	// moving back out keeps the completed flag
	got, err = r.SetStatus(created.ID, model.StatusTodo, model.StatusDone)
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestMemoryRepo_Delete(t *testing.T) {
	r := NewMemoryRepo()
	created, err := r.Create(model.Task{Title: "gone"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(created.ID))
	_, err = r.Get(created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(r.Delete(created.ID), ErrNotFound))
}
