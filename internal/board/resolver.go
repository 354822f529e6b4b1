// Package board resolves kanban drop gestures to target statuses and applies
// optimistic status moves with revert on failure. Pointer capture and drag
// mechanics live in the client; this package starts at the drop descriptor.
package board

import (
	"slices"

	"github.com/crgeee/reps/internal/model"
)

type TargetKind string

const (
	TargetColumn TargetKind = "column"
	TargetCard   TargetKind = "card"
	TargetNone   TargetKind = "none"
)

// DropTarget describes where a drag gesture landed: a column (ID is the
// column's status name), a card (ID is the card's task id), or nothing.
type DropTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// Column is one status container and the cards it currently holds, in
// display order.
type Column struct {
	Status string         `json:"status"`
	Cards  []model.TaskID `json:"cards"`
}

// ResolveTarget maps a drop to the status it lands in. A card drop resolves
// to the owning column's status, never the card's own id. Drops outside any
// column, on unknown cards, or on statuses not present in the column list
// resolve to not-ok.
func ResolveTarget(drop DropTarget, columns []Column) (string, bool) {
	switch drop.Kind {
	case TargetColumn:
		for _, col := range columns {
			if col.Status == drop.ID {
				return col.Status, true
			}
		}
		return "", false
	case TargetCard:
		id := model.TaskID(drop.ID)
		for _, col := range columns {
			if slices.Contains(col.Cards, id) {
				return col.Status, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// Columns projects tasks onto an ordered status list, preserving task order
// within each column. Tasks with a status outside the list are dropped;
// statuses are compared structurally, so custom workflows work unchanged.
func Columns(tasks []model.Task, statuses []string) []Column {
	cols := make([]Column, len(statuses))
	index := make(map[string]int, len(statuses))
	for i, s := range statuses {
		cols[i] = Column{Status: s}
		index[s] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			cols[i].Cards = append(cols[i].Cards, t.ID)
		}
	}
	return cols
}
