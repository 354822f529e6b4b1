package board

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crgeee/reps/internal/model"
)

type Handler struct {
	mover    *Mover
	statuses func() []string
}

func NewHandler(mover *Mover, statuses func() []string) *Handler {
	return &Handler{mover: mover, statuses: statuses}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type boardView struct {
	Columns []Column              `json:"columns"`
	Tasks   map[string]model.Task `json:"tasks"`
}

// Board handles /api/board: the column projection plus the tasks backing
// the cards, so the client renders from one response.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.mover.Reload(r.Context())
	tasks := h.mover.Tasks()
	view := boardView{
		Columns: Columns(tasks, h.statuses()),
		Tasks:   make(map[string]model.Task, len(tasks)),
	}
	for _, t := range tasks {
		view.Tasks[string(t.ID)] = t
	}
	writeJSON(w, http.StatusOK, view)
}

// Move handles /api/board/move: apply a drop gesture to a task.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		TaskID model.TaskID `json:"taskId"`
		Drop   DropTarget   `json:"drop"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Pick up tasks created or edited outside the board before resolving.
	h.mover.Reload(r.Context())
	columns := Columns(h.mover.Tasks(), h.statuses())
	moved, err := h.mover.Move(r.Context(), body.TaskID, body.Drop, columns)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, ErrUnknownTask) {
			code = http.StatusNotFound
		}
		writeErr(w, code, err.Error())
		return
	}

	task, _ := h.mover.Task(body.TaskID)
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "task": task})
}
