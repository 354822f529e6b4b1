package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/crgeee/reps/internal/model"
)

var ErrUnknownTask = errors.New("board: unknown task")

// StatusStore persists a status change to the external source of truth.
type StatusStore interface {
	PersistStatusUpdate(ctx context.Context, id model.TaskID, status string) error
}

// Refresher reloads the board's tasks from the source of truth. quiet marks
// a background reconcile after a successful move; a non-quiet refresh is the
// full resynchronization after a failed one.
type Refresher interface {
	Refresh(ctx context.Context, quiet bool) ([]model.Task, error)
}

// Mover owns the board's local task view and applies the optimistic move
// protocol: update locally first, persist, then reconcile. On persistence
// failure the single affected task is reverted precisely (other tasks'
// optimistic state untouched) before the full refresh replaces the view.
type Mover struct {
	mu       sync.Mutex
	local    map[model.TaskID]model.Task
	terminal string

	store   StatusStore
	refresh Refresher
}

func NewMover(tasks []model.Task, terminal string, store StatusStore, refresh Refresher) *Mover {
	local := make(map[model.TaskID]model.Task, len(tasks))
	for _, t := range tasks {
		local[t.ID] = t
	}
	return &Mover{local: local, terminal: terminal, store: store, refresh: refresh}
}

// Task returns the current (possibly optimistic) view of one task.
func (m *Mover) Task(id model.TaskID) (model.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.local[id]
	return t, ok
}

// Reload refreshes the local view from the source of truth. Used when
// serving the board after mutations that happened outside the mover.
func (m *Mover) Reload(ctx context.Context) {
	m.reload(ctx, true)
}

// Tasks returns the current local view, ordered by creation.
func (m *Mover) Tasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Task, 0, len(m.local))
	for _, t := range m.local {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Move resolves the drop and runs the protocol. Returns false with no error
// for no-ops: an unresolvable drop, or a target equal to the task's current
// status.
func (m *Mover) Move(ctx context.Context, id model.TaskID, drop DropTarget, columns []Column) (bool, error) {
	target, ok := ResolveTarget(drop, columns)
	if !ok {
		return false, nil
	}

	m.mu.Lock()
	prev, exists := m.local[id]
	if !exists {
		m.mu.Unlock()
		return false, ErrUnknownTask
	}
	if prev.Status == target {
		m.mu.Unlock()
		return false, nil
	}

	// Optimistic update. Entering the terminal status implies completion;
	// leaving it intentionally does not clear the flag (matches the
	// long-standing store behavior).
	next := prev
	next.Status = target
	if target == m.terminal {
		next.Completed = true
	}
	m.local[id] = next
	m.mu.Unlock()

	if err := m.store.PersistStatusUpdate(ctx, id, target); err != nil {
		m.mu.Lock()
		// Revert only our own optimistic write; a concurrent move may have
		// superseded it.
		if cur, ok := m.local[id]; ok && cur.Status == target {
			m.local[id] = prev
		}
		m.mu.Unlock()
		m.reload(ctx, false)
		return false, fmt.Errorf("persist status update: %w", err)
	}

	m.reload(ctx, true)
	return true, nil
}

// reload replaces the local view with the source of truth. Refresh failures
// are swallowed: the optimistic view is already consistent enough, and the
// next successful reload converges.
func (m *Mover) reload(ctx context.Context, quiet bool) {
	if m.refresh == nil {
		return
	}
	tasks, err := m.refresh.Refresh(ctx, quiet)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.local = make(map[model.TaskID]model.Task, len(tasks))
	for _, t := range tasks {
		m.local[t.ID] = t
	}
}
