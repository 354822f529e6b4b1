// Package schedule implements the SM-2 spaced-repetition algorithm and the
// due-task selection built on its output.
package schedule

import (
	"math"
	"time"

	"github.com/crgeee/reps/internal/model"
)

// MinEaseFactor is the SM-2 floor; the ease factor never drops below it no
// matter how many consecutive failures occur.
const MinEaseFactor = 1.3

// DefaultEaseFactor seeds never-reviewed tasks.
const DefaultEaseFactor = 2.5

// State is the scheduling state carried by a task.
type State struct {
	Repetitions int     `json:"repetitions"`
	Interval    int     `json:"interval"`
	EaseFactor  float64 `json:"easeFactor"`
}

// Update is the result of advancing a schedule: the new state plus the
// computed next review date (ISO date).
type Update struct {
	State
	NextReviewDate string `json:"nextReviewDate"`
}

// StateOf extracts the schedule state from a task.
func StateOf(t model.Task) State {
	return State{
		Repetitions: t.Repetitions,
		Interval:    t.Interval,
		EaseFactor:  t.EaseFactor,
	}
}

// Advance applies one SM-2 review to state and returns the updated schedule.
// Pure: no clocks, no I/O; "today" is the caller's date anchor.
//
// A passing quality (>=3) grows the interval (1 day on the first success,
// 6 on the second, interval*ease rounded thereafter) and increments the
// repetition count. A failing quality resets repetitions to zero and the
// interval to a single day. The ease factor is adjusted on every review,
// clamped to MinEaseFactor before rounding to two decimals.
func Advance(state State, quality Quality, today time.Time) (Update, error) {
	if !quality.IsValid() {
		return Update{}, ErrInvalidQuality
	}

	next := state
	if quality.Passing() {
		switch state.Repetitions {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(state.Interval) * state.EaseFactor))
		}
		next.Repetitions = state.Repetitions + 1
	} else {
		next.Repetitions = 0
		next.Interval = 1
	}

	q := float64(quality)
	ef := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	next.EaseFactor = math.Round(ef*100) / 100

	// Calendar arithmetic, not elapsed seconds: AddDate rolls month and year
	// boundaries correctly.
	due := today.AddDate(0, 0, next.Interval)

	return Update{
		State:          next,
		NextReviewDate: model.Today(due),
	}, nil
}

// ApplyUpdate writes an Update back onto a task and stamps the review date.
func ApplyUpdate(t *model.Task, u Update, today time.Time) {
	t.Repetitions = u.Repetitions
	t.Interval = u.Interval
	t.EaseFactor = u.EaseFactor
	t.NextReviewDate = u.NextReviewDate
	reviewed := model.Today(today)
	t.LastReviewedDate = &reviewed
}
