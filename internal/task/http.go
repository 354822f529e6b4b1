package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crgeee/reps/internal/filter"
	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

type Handler struct {
	repo     Repo
	prefs    *filter.PrefStore
	statuses []string
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo, statuses: model.DefaultStatuses()}
}

// SetPrefStore wires the persisted filter preferences folded into list
// queries that do not specify hideCompleted/groupBy themselves.
func (h *Handler) SetPrefStore(store *filter.PrefStore) {
	h.prefs = store
}

// SetStatuses installs a custom workflow status list.
func (h *Handler) SetStatuses(statuses []string) {
	if len(statuses) > 0 {
		h.statuses = statuses
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// TasksRoot handles /api/tasks: list (filtered through the view engine) and
// create.
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.repo.List(ListFilter{})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	spec := h.specFromQuery(r)
	res := filter.Apply(tasks, spec, time.Now())
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) specFromQuery(r *http.Request) filter.Spec {
	spec := filter.DefaultSpec()
	if h.prefs != nil {
		if p, err := h.prefs.Load(); err == nil {
			spec = p.ApplyTo(spec)
		}
	}

	q := r.URL.Query()
	if v := q.Get("topic"); v != "" {
		spec.Topic = v
	}
	if v := q.Get("status"); v != "" {
		spec.Status = v
	}
	if v := q.Get("due"); v != "" {
		spec.Due = filter.DueBucket(v)
	}
	spec.Search = q.Get("search")
	if v := q.Get("sort"); v != "" {
		spec.SortField = filter.SortField(v)
	}
	if v := q.Get("dir"); v != "" {
		spec.SortDir = filter.SortDir(v)
	}
	if v := q.Get("hideCompleted"); v != "" {
		spec.HideCompleted = v == "1" || strings.EqualFold(v, "true")
	}
	if v := q.Get("groupBy"); v != "" {
		spec.GroupBy = filter.GroupBy(v)
	}
	return spec
}

type createRequest struct {
	Title    string      `json:"title"`
	Notes    string      `json:"notes"`
	Topic    model.Topic `json:"topic"`
	Status   string      `json:"status"`
	Priority string      `json:"priority"`
	Tags     []string    `json:"tags"`
	Deadline *string     `json:"deadline"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t := model.Task{
		Title:    req.Title,
		Notes:    req.Notes,
		Topic:    req.Topic,
		Status:   req.Status,
		Priority: model.Priority(req.Priority),
		Tags:     req.Tags,
		Deadline: req.Deadline,
	}
	created, err := h.repo.Create(t)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// TasksSub handles /api/tasks/{id} and /api/tasks/{id}/calendar.ics.
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	parts := strings.SplitN(rest, "/", 2)
	id := model.TaskID(strings.TrimSpace(parts[0]))
	if id == "" {
		writeErr(w, http.StatusNotFound, "task id required")
		return
	}

	if len(parts) == 2 {
		if parts[1] == "calendar.ics" && r.Method == http.MethodGet {
			h.calendar(w, id)
			return
		}
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.repo.Get(id)
		if err != nil {
			writeErr(w, statusForErr(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPatch:
		var p Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		t, err := h.repo.Update(id, p)
		if err != nil {
			writeErr(w, statusForErr(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := h.repo.Delete(id); err != nil {
			writeErr(w, statusForErr(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) calendar(w http.ResponseWriter, id model.TaskID) {
	t, err := h.repo.Get(id)
	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	ics, err := BuildReviewICS(t, time.Now())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="review.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

// TasksDue handles /api/tasks/due: the due/overdue buckets that seed a
// review session.
func (h *Handler) TasksDue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tasks, err := h.repo.List(ListFilter{})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, schedule.SelectDue(tasks, time.Now()))
}

// Preferences handles /api/preferences: the persisted slice of the filter
// spec (hideCompleted, groupBy).
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	if h.prefs == nil {
		writeErr(w, http.StatusNotFound, "preferences not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := h.prefs.Load()
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var p filter.Preferences
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := h.prefs.Save(p); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func statusForErr(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrEmptyTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
