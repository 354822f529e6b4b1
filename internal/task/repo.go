package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidDate = errors.New("invalid calendar date")
	ErrEmptyTitle  = errors.New("task title is required")
)

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for Deadline => clear (set to nil)
type Patch struct {
	Title     *string         `json:"title,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
	Topic     *model.Topic    `json:"topic,omitempty"`
	Status    *string         `json:"status,omitempty"`
	Completed *bool           `json:"completed,omitempty"`
	Priority  *model.Priority `json:"priority,omitempty"`
	Tags      *[]string       `json:"tags,omitempty"`
	Deadline  *string         `json:"deadline,omitempty"`
}

type ListFilter struct {
	// Due:
	//   "" | "all" | "due" | "overdue" | "pending" | "done"
	Due string

	// Topic: "" | "all" | "<exact topic>"
	Topic string
}

type Repo interface {
	Create(t model.Task) (model.Task, error)
	Get(id model.TaskID) (model.Task, error)
	Update(id model.TaskID, patch Patch) (model.Task, error)
	Delete(id model.TaskID) error
	List(filter ListFilter) ([]model.Task, error)

	// SetSchedule writes the schedule state computed by a rating back to the
	// task and stamps the review date.
	SetSchedule(id model.TaskID, u schedule.Update, reviewedAt time.Time) (model.Task, error)

	// SetStatus applies a board move. Moving into doneStatus also marks the
	// task completed; moving out does not clear the flag.
	SetStatus(id model.TaskID, status, doneStatus string) (model.Task, error)
}

type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[model.TaskID]model.Task{}}
}

// newID returns a ULID; ids sort lexicographically in creation order, which
// keeps id order and createdAt order consistent.
func newID() model.TaskID {
	return model.TaskID(strings.ToLower(ulid.Make().String()))
}

func normalizeTask(t *model.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.EaseFactor == 0 {
		t.EaseFactor = schedule.DefaultEaseFactor
	}
}

func validateNew(t *model.Task, now time.Time) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Deadline != nil && !model.ValidDate(*t.Deadline) {
		return fmt.Errorf("%w: deadline %q", ErrInvalidDate, *t.Deadline)
	}
	if t.NextReviewDate == "" {
		// Never-reviewed tasks come due immediately.
		t.NextReviewDate = model.Today(now)
	} else if !model.ValidDate(t.NextReviewDate) {
		return fmt.Errorf("%w: nextReviewDate %q", ErrInvalidDate, t.NextReviewDate)
	}
	return nil
}

func applyPatch(t *model.Task, p Patch) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return ErrEmptyTitle
		}
		t.Title = *p.Title
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Topic != nil {
		t.Topic = *p.Topic
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}

	if p.Tags != nil {
		// treat nil slice as empty slice
		if *p.Tags == nil {
			t.Tags = []string{}
		} else {
			t.Tags = *p.Tags
		}
	}

	// pointer string field with "empty clears" semantics
	if p.Deadline != nil {
		if *p.Deadline == "" {
			t.Deadline = nil
		} else {
			if !model.ValidDate(*p.Deadline) {
				return fmt.Errorf("%w: deadline %q", ErrInvalidDate, *p.Deadline)
			}
			t.Deadline = p.Deadline
		}
	}

	return nil
}

func (r *MemoryRepo) Create(t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if err := validateNew(&t, now); err != nil {
		return model.Task{}, err
	}
	t.ID = newID()
	t.CreatedAt = model.Today(now)
	t.UpdatedAt = now
	normalizeTask(&t)

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MemoryRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}

	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}

	t.UpdatedAt = time.Now()
	normalizeTask(&t)

	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) Delete(id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepo) List(filter ListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := model.Today(time.Now())

	matches := func(t model.Task) bool {
		topic := strings.TrimSpace(filter.Topic)
		if topic != "" && topic != "all" && string(t.Topic) != topic {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(filter.Due)) {
		case "", "all":
			return true
		case "due":
			return !t.Completed && t.NextReviewDate != "" && t.NextReviewDate <= today
		case "overdue":
			return !t.Completed && t.NextReviewDate != "" && t.NextReviewDate < today
		case "pending":
			return !t.Completed
		case "done":
			return t.Completed
		default:
			return true
		}
	}

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		normalizeTask(&t)
		if matches(t) {
			out = append(out, t)
		}
	}

	// Stable listing order: creation date, id as tiebreak (ULIDs sort in
	// creation order).
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *MemoryRepo) SetSchedule(id model.TaskID, u schedule.Update, reviewedAt time.Time) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}

	schedule.ApplyUpdate(&t, u, reviewedAt)
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) SetStatus(id model.TaskID, status, doneStatus string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}

	t.Status = status
	if status == doneStatus {
		t.Completed = true
	}
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return t, nil
}
