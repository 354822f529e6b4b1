package stats

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/crgeee/reps/internal/model"
)

type Handler struct {
	tasks  func() ([]model.Task, error)
	events Repository
	now    func() time.Time
}

func NewHandler(tasks func() ([]model.Task, error), events Repository) *Handler {
	return &Handler{tasks: tasks, events: events, now: time.Now}
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "method not allowed"})
		return
	}

	tasks, err := h.tasks()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	events, err := h.events.GetEvents(time.Time{}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Calculate(tasks, events, h.now()))
}
