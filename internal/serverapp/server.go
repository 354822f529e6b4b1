// Package serverapp assembles the HTTP application: storage, handlers,
// session manager, board mover, and the middleware chain.
package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	"github.com/crgeee/reps/internal/ai"
	"github.com/crgeee/reps/internal/board"
	"github.com/crgeee/reps/internal/config"
	"github.com/crgeee/reps/internal/filter"
	"github.com/crgeee/reps/internal/httpmw"
	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
	"github.com/crgeee/reps/internal/session"
	"github.com/crgeee/reps/internal/stats"
	"github.com/crgeee/reps/internal/task"
	staticfiles "github.com/crgeee/reps/static"
	"github.com/crgeee/reps/ui/page"
)

type Options struct {
	Config        *config.Config
	DataDir       string
	StaticDir     string
	UseDiskStatic bool
	Logger        *log.Logger

	// FS overrides the backing filesystem. Tests use afero.NewMemMapFs.
	FS afero.Fs
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if len(cfg.Board.Statuses) == 0 {
		cfg.Board.Statuses = model.DefaultStatuses()
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = cfg.Data.Dir
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = "static"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "reps",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	repo, err := task.NewFileRepo(fsys, opts.DataDir)
	if err != nil {
		return nil, err
	}
	events := stats.NewMemoryRepository()
	store := &recordingRepo{Repo: repo, events: events}
	prefStore := filter.NewPrefStore(fsys, filepath.Join(opts.DataDir, "prefs.json"))

	taskHandler := task.NewHandler(store)
	taskHandler.SetPrefStore(prefStore)
	taskHandler.SetStatuses(cfg.Board.Statuses)
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)
	mux.HandleFunc("/api/tasks/due", taskHandler.TasksDue)
	mux.HandleFunc("/api/preferences", taskHandler.Preferences)

	var aiClient *ai.Client
	if cfg.AI.APIKey != "" || cfg.AI.BaseURL != "" {
		aiClient = ai.NewClient(ai.Config{
			BaseURL:   cfg.AI.BaseURL,
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			TimeoutMS: cfg.AI.TimeoutSeconds * 1000,
		})
	} else {
		opts.Logger.Printf("ai backend not configured; review runs on skip paths, practice disabled")
	}

	deps := session.ReviewDeps{Store: scheduleStore{repo: store, events: events}}
	var interviewer session.Interviewer
	if aiClient != nil {
		deps.Generator = aiClient
		deps.Evaluator = aiClient
		interviewer = aiClient
	}
	manager := session.NewManager(deps, interviewer, func() ([]model.Task, error) {
		return repo.List(task.ListFilter{Due: "due"})
	})
	manager.OnEvent = func(name string, meta map[string]any) {
		_ = events.RecordEvent(stats.EventType(name), stats.EventMetadata(meta))
	}
	sessionHandler := session.NewHandler(manager)
	mux.HandleFunc("/api/review/sessions", sessionHandler.ReviewRoot)
	mux.HandleFunc("/api/review/sessions/", sessionHandler.ReviewSub)
	mux.HandleFunc("/api/practice/sessions", sessionHandler.PracticeRoot)
	mux.HandleFunc("/api/practice/sessions/", sessionHandler.PracticeSub)

	initial, err := repo.List(task.ListFilter{})
	if err != nil {
		return nil, err
	}
	terminal := cfg.Board.Statuses[len(cfg.Board.Statuses)-1]
	mover := board.NewMover(initial, terminal,
		repoStatusStore{repo: store, done: terminal},
		repoRefresher{repo: repo},
	)
	boardHandler := board.NewHandler(mover, func() []string { return cfg.Board.Statuses })
	mux.HandleFunc("/api/board", boardHandler.Board)
	mux.HandleFunc("/api/board/move", boardHandler.Move)

	statsHandler := stats.NewHandler(func() ([]model.Task, error) {
		return repo.List(task.ListFilter{})
	}, events)
	mux.HandleFunc("/api/stats", statsHandler.Stats)

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		view := *cfg
		view.AI.APIKey = "" // never leak the key
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := repo.List(task.ListFilter{}); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "reps",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.Handle("/", templ.Handler(page.Index()))

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func UseDiskStaticByEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("REPS_DEV_STATIC"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// recordingRepo mirrors mutations into the activity log. Log failures never
// fail the mutation.
type recordingRepo struct {
	task.Repo
	events stats.Repository
}

func (r *recordingRepo) Create(t model.Task) (model.Task, error) {
	created, err := r.Repo.Create(t)
	if err == nil {
		_ = r.events.RecordEvent(stats.EventTaskCreated, stats.EventMetadata{
			"id":    string(created.ID),
			"topic": string(created.Topic),
		})
	}
	return created, err
}

func (r *recordingRepo) Delete(id model.TaskID) error {
	err := r.Repo.Delete(id)
	if err == nil {
		_ = r.events.RecordEvent(stats.EventTaskDeleted, stats.EventMetadata{"id": string(id)})
	}
	return err
}

// scheduleStore adapts the task repository to the review session's
// persistence port, recording each committed rating.
type scheduleStore struct {
	repo   task.Repo
	events stats.Repository
}

func (s scheduleStore) PersistScheduleUpdate(ctx context.Context, id model.TaskID, u schedule.Update, reviewedAt time.Time) error {
	if _, err := s.repo.SetSchedule(id, u, reviewedAt); err != nil {
		return err
	}
	_ = s.events.RecordEvent(stats.EventReviewRated, stats.EventMetadata{"task": string(id)})
	return nil
}

type repoStatusStore struct {
	repo task.Repo
	done string
}

func (s repoStatusStore) PersistStatusUpdate(ctx context.Context, id model.TaskID, status string) error {
	_, err := s.repo.SetStatus(id, status, s.done)
	return err
}

type repoRefresher struct {
	repo task.Repo
}

func (r repoRefresher) Refresh(ctx context.Context, quiet bool) ([]model.Task, error) {
	return r.repo.List(task.ListFilter{})
}
