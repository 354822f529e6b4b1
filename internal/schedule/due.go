package schedule

import (
	"time"

	"github.com/crgeee/reps/internal/model"
)

// Due buckets a collection of tasks by review urgency. Overdue is always a
// subset of Due.
type Due struct {
	Due     []model.Task `json:"due"`
	Overdue []model.Task `json:"overdue"`
}

// SelectDue classifies tasks against asOf (date precision only). A task is
// due when it is not completed and its next review date is on or before
// asOf; it is additionally overdue when the date is strictly before asOf.
// Input order is preserved; callers wanting a different order sort the
// result themselves.
func SelectDue(tasks []model.Task, asOf time.Time) Due {
	today := model.Today(asOf)

	var out Due
	for _, t := range tasks {
		if t.Completed || t.NextReviewDate == "" {
			continue
		}
		if t.NextReviewDate <= today {
			out.Due = append(out.Due, t)
			if t.NextReviewDate < today {
				out.Overdue = append(out.Overdue, t)
			}
		}
	}
	return out
}
