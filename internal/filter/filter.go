// Package filter projects a task collection into the list, board, and
// calendar views: a fixed filter pipeline, a stable sort, and optional
// grouping.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/crgeee/reps/internal/model"
)

const All = "all"

type DueBucket string

const (
	DueAll        DueBucket = "all"
	DueOverdue    DueBucket = "overdue"
	DueToday      DueBucket = "today"
	DueThisWeek   DueBucket = "this-week"
	DueNoDeadline DueBucket = "no-deadline"
)

type SortField string

const (
	SortCreated    SortField = "created"
	SortNextReview SortField = "next-review"
	SortDeadline   SortField = "deadline"
	SortEaseFactor SortField = "ease-factor"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

type GroupBy string

const (
	GroupNone   GroupBy = "none"
	GroupStatus GroupBy = "status"
	GroupTopic  GroupBy = "topic"
)

// Spec describes one projection of the task collection. Zero-ish values mean
// "no narrowing"; DefaultSpec returns the view users start from.
type Spec struct {
	Topic         string    `json:"topic"`
	Status        string    `json:"status"`
	Due           DueBucket `json:"due"`
	Search        string    `json:"search"`
	SortField     SortField `json:"sortField"`
	SortDir       SortDir   `json:"sortDir"`
	HideCompleted bool      `json:"hideCompleted"`
	GroupBy       GroupBy   `json:"groupBy"`
}

func DefaultSpec() Spec {
	return Spec{
		Topic:     All,
		Status:    All,
		Due:       DueAll,
		SortField: SortCreated,
		SortDir:   Asc,
		GroupBy:   GroupNone,
	}
}

// Group is one bucket of the grouped view, ordered by first occurrence in
// the filtered-and-sorted list.
type Group struct {
	Key   string       `json:"key"`
	Tasks []model.Task `json:"tasks"`
}

type Result struct {
	Filtered []model.Task `json:"filtered"`
	Groups   []Group      `json:"groups,omitempty"`
}

// deadline sentinel: absent deadlines sort after every real date.
const noDeadline = "9999-12-31"

// Apply runs the pipeline over a snapshot of tasks. The input slice is never
// mutated, and equal inputs always produce the same output order (the sort
// is stable, ties keep pre-sort relative order).
//
// Stage order is fixed: hideCompleted, topic, status, due bucket, title
// search, sort, group.
func Apply(tasks []model.Task, spec Spec, now time.Time) Result {
	today := model.Today(now)
	weekEnd := endOfWeek(now)
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	filtered := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if spec.HideCompleted && t.Completed {
			continue
		}
		if spec.Topic != "" && spec.Topic != All && string(t.Topic) != spec.Topic {
			continue
		}
		if spec.Status != "" && spec.Status != All && t.Status != spec.Status {
			continue
		}
		if !matchesDue(t, spec.Due, today, weekEnd) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		c := compare(filtered[i], filtered[j], spec.SortField)
		if spec.SortDir == Desc {
			return c > 0
		}
		return c < 0
	})

	res := Result{Filtered: filtered}
	if spec.GroupBy != GroupNone && spec.GroupBy != "" {
		res.Groups = group(filtered, spec.GroupBy)
	}
	return res
}

func matchesDue(t model.Task, bucket DueBucket, today, weekEnd string) bool {
	switch bucket {
	case "", DueAll:
		return true
	case DueOverdue:
		return !t.Completed && t.NextReviewDate != "" && t.NextReviewDate < today
	case DueToday:
		return t.NextReviewDate == today
	case DueThisWeek:
		return t.NextReviewDate >= today && t.NextReviewDate <= weekEnd
	case DueNoDeadline:
		return t.Deadline == nil
	default:
		return true
	}
}

// endOfWeek returns the upcoming Saturday (inclusive), week running Sunday
// through Saturday. Today itself when today is Saturday.
func endOfWeek(now time.Time) string {
	days := int(time.Saturday - now.Weekday())
	return model.Today(now.AddDate(0, 0, days))
}

// compare returns <0, 0, >0 in ascending field order. Date fields compare as
// ISO strings, which is chronological comparison.
func compare(a, b model.Task, field SortField) int {
	switch field {
	case SortNextReview:
		return strings.Compare(a.NextReviewDate, b.NextReviewDate)
	case SortDeadline:
		return strings.Compare(deadlineKey(a), deadlineKey(b))
	case SortEaseFactor:
		switch {
		case a.EaseFactor < b.EaseFactor:
			return -1
		case a.EaseFactor > b.EaseFactor:
			return 1
		default:
			return 0
		}
	default: // SortCreated
		return strings.Compare(a.CreatedAt, b.CreatedAt)
	}
}

func deadlineKey(t model.Task) string {
	if t.Deadline == nil || *t.Deadline == "" {
		return noDeadline
	}
	return *t.Deadline
}

func group(tasks []model.Task, by GroupBy) []Group {
	keyOf := func(t model.Task) string {
		if by == GroupTopic {
			return string(t.Topic)
		}
		return t.Status
	}

	index := map[string]int{}
	groups := []Group{}
	for _, t := range tasks {
		k := keyOf(t)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}
