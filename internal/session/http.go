package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

// Manager tracks the in-memory sessions behind the HTTP surface. Sessions
// are transient: they vanish on restart and when abandoned.
type Manager struct {
	mu        sync.Mutex
	reviews   map[string]*Review
	practices map[string]*Practice

	deps        ReviewDeps
	interviewer Interviewer
	loadDue     func() ([]model.Task, error)

	// OnEvent, when set, receives session lifecycle notifications for the
	// activity log. Failures there never affect the session.
	OnEvent func(name string, meta map[string]any)
}

func (m *Manager) emit(name string, meta map[string]any) {
	if m.OnEvent != nil {
		m.OnEvent(name, meta)
	}
}

func NewManager(deps ReviewDeps, interviewer Interviewer, loadDue func() ([]model.Task, error)) *Manager {
	return &Manager{
		reviews:     map[string]*Review{},
		practices:   map[string]*Practice{},
		deps:        deps,
		interviewer: interviewer,
		loadDue:     loadDue,
	}
}

type Handler struct {
	m *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{m: m}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type reviewView struct {
	ID         string      `json:"id"`
	Step       Step        `json:"step"`
	Position   int         `json:"position"`
	QueueLen   int         `json:"queueLength"`
	Reviewed   int         `json:"reviewed"`
	Task       *model.Task `json:"task,omitempty"`
	Question   string      `json:"question,omitempty"`
	Answer     string      `json:"answer,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

func viewOf(s *Review) reviewView {
	v := reviewView{
		ID:       s.ID(),
		Step:     s.Step(),
		Position: s.Position(),
		QueueLen: s.QueueLen(),
		Reviewed: s.Reviewed(),
	}
	if cur, ok := s.Current(); ok {
		v.Task = &cur
	}
	v.Question, v.Answer, v.Evaluation = s.Scratch()
	return v
}

// ReviewRoot handles /api/review/sessions: create a session over the
// current due queue.
func (h *Handler) ReviewRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tasks, err := h.m.loadDue()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	s := NewReview(tasks, h.m.deps)
	h.m.mu.Lock()
	h.m.reviews[s.ID()] = s
	h.m.mu.Unlock()
	h.m.emit("session_started", map[string]any{"session": s.ID(), "queue": s.QueueLen()})

	writeJSON(w, http.StatusCreated, viewOf(s))
}

// ReviewSub handles /api/review/sessions/{id}[/{action}].
func (h *Handler) ReviewSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/review/sessions/")
	parts := strings.SplitN(rest, "/", 2)

	h.m.mu.Lock()
	s, ok := h.m.reviews[parts[0]]
	h.m.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "session not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, viewOf(s))
		case http.MethodDelete:
			if err := s.Abandon(); err != nil {
				writeErr(w, statusForErr(err), err.Error())
				return
			}
			h.m.mu.Lock()
			delete(h.m.reviews, s.ID())
			h.m.mu.Unlock()
			h.m.emit("session_abandoned", map[string]any{"session": s.ID(), "reviewed": s.Reviewed()})
			writeJSON(w, http.StatusOK, map[string]any{"abandoned": s.ID()})
		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var err error
	switch parts[1] {
	case "question":
		_, err = s.LoadQuestion(r.Context())
	case "answer":
		err = s.BeginAnswer()
	case "evaluate":
		var body struct {
			Answer string `json:"answer"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		_, err = s.SubmitAnswer(r.Context(), body.Answer)
	case "skip":
		err = s.SkipToRating()
	case "proceed":
		err = s.ProceedToRating()
	case "rate":
		var body struct {
			Quality schedule.Quality `json:"quality"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			writeErr(w, http.StatusBadRequest, "invalid rating body")
			return
		}
		err = s.SubmitRating(r.Context(), body.Quality)
		if err == nil && s.Done() {
			h.m.emit("session_completed", map[string]any{"session": s.ID(), "reviewed": s.Reviewed()})
		}
	default:
		writeErr(w, http.StatusNotFound, "unknown action")
		return
	}

	if err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

type practiceView struct {
	ID       string `json:"id"`
	Step     Step   `json:"step"`
	Question string `json:"question,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

func practiceViewOf(p *Practice) practiceView {
	v := practiceView{ID: p.ID(), Step: p.Step(), Question: p.Question()}
	if score, ok := p.Score(); ok {
		v.Score = &score
	}
	return v
}

// PracticeRoot handles /api/practice/sessions: create and start a practice
// interview.
func (h *Handler) PracticeRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.m.interviewer == nil {
		writeErr(w, http.StatusServiceUnavailable, "mock interviews require an AI backend")
		return
	}

	var body struct {
		Topic      model.Topic `json:"topic"`
		Difficulty string      `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p := NewPractice(body.Topic, body.Difficulty, h.m.interviewer)
	if _, err := p.Start(r.Context()); err != nil {
		writeErr(w, statusForErr(err), err.Error())
		return
	}

	h.m.mu.Lock()
	h.m.practices[p.ID()] = p
	h.m.mu.Unlock()
	h.m.emit("practice_started", map[string]any{"session": p.ID(), "topic": string(body.Topic)})

	writeJSON(w, http.StatusCreated, practiceViewOf(p))
}

// PracticeSub handles /api/practice/sessions/{id}[/{action}].
func (h *Handler) PracticeSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/practice/sessions/")
	parts := strings.SplitN(rest, "/", 2)

	h.m.mu.Lock()
	p, ok := h.m.practices[parts[0]]
	h.m.mu.Unlock()
	if !ok {
		writeErr(w, http.StatusNotFound, "session not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, practiceViewOf(p))
		case http.MethodDelete:
			p.Reset()
			h.m.mu.Lock()
			delete(h.m.practices, p.ID())
			h.m.mu.Unlock()
			h.m.emit("practice_abandoned", map[string]any{"session": p.ID()})
			writeJSON(w, http.StatusOK, map[string]any{"abandoned": p.ID()})
		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch parts[1] {
	case "answer":
		if err := p.BeginAnswer(); err != nil {
			writeErr(w, statusForErr(err), err.Error())
			return
		}
	case "respond":
		var body struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		turn, err := p.SubmitAnswer(r.Context(), body.Answer)
		if err != nil {
			writeErr(w, statusForErr(err), err.Error())
			return
		}
		if turn.Done {
			h.m.emit("practice_completed", map[string]any{"session": p.ID(), "score": turn.Score})
		}
	case "reset":
		p.Reset()
	default:
		writeErr(w, http.StatusNotFound, "unknown action")
		return
	}
	writeJSON(w, http.StatusOK, practiceViewOf(p))
}

func statusForErr(err error) int {
	switch {
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrCommitInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrSessionDone):
		return http.StatusGone
	case errors.Is(err, ErrNoQuestion), errors.Is(err, schedule.ErrInvalidQuality):
		return http.StatusBadRequest
	default:
		// External collaborator failures: recoverable, retry or skip.
		return http.StatusBadGateway
	}
}
