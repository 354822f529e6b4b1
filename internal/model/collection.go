package model

import "slices"

// Collection groups tasks and owns the workflow status list. Statuses are
// opaque strings; the board and filter engine compare them structurally and
// never assume the default four names exist.
type Collection struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Statuses []string `json:"statuses"`
}

const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// DefaultStatuses is the workflow for collections without a custom list.
func DefaultStatuses() []string {
	return []string{StatusTodo, StatusInProgress, StatusReview, StatusDone}
}

// StatusList returns the collection's ordered statuses, falling back to the
// default workflow when none are configured.
func (c *Collection) StatusList() []string {
	if c == nil || len(c.Statuses) == 0 {
		return DefaultStatuses()
	}
	return c.Statuses
}

// TerminalStatus is the last status in the workflow; moving a task into it
// implies completion.
func (c *Collection) TerminalStatus() string {
	list := c.StatusList()
	return list[len(list)-1]
}

// HasStatus reports whether name is a valid status for this collection.
func (c *Collection) HasStatus(name string) bool {
	return slices.Contains(c.StatusList(), name)
}
