package task

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/crgeee/reps/internal/model"
	"github.com/crgeee/reps/internal/schedule"
)

type fileState struct {
	Tasks map[model.TaskID]model.Task `json:"tasks"`
}

// FileRepo is a persistent task repository: one JSON snapshot file, loaded
// at startup and rewritten on every mutation. The filesystem is abstracted
// so tests run against an in-memory fs.
type FileRepo struct {
	mem  *MemoryRepo
	fs   afero.Fs
	path string
}

func NewFileRepo(fs afero.Fs, dataDir string) (*FileRepo, error) {
	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		mem:  NewMemoryRepo(),
		fs:   fs,
		path: filepath.Join(dataDir, "tasks.json"),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	b, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}

	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	for id, t := range loaded.Tasks {
		normalizeTask(&t)
		r.mem.tasks[id] = t
	}
	return nil
}

func (r *FileRepo) save() error {
	r.mem.mu.RLock()
	state := fileState{Tasks: make(map[model.TaskID]model.Task, len(r.mem.tasks))}
	for id, t := range r.mem.tasks {
		state.Tasks[id] = t
	}
	r.mem.mu.RUnlock()

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(r.fs, r.path, b, 0o644)
}

func (r *FileRepo) Create(t model.Task) (model.Task, error) {
	out, err := r.mem.Create(t)
	if err != nil {
		return model.Task{}, err
	}
	return out, r.save()
}

func (r *FileRepo) Get(id model.TaskID) (model.Task, error) {
	return r.mem.Get(id)
}

func (r *FileRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	out, err := r.mem.Update(id, p)
	if err != nil {
		return model.Task{}, err
	}
	return out, r.save()
}

func (r *FileRepo) Delete(id model.TaskID) error {
	if err := r.mem.Delete(id); err != nil {
		return err
	}
	return r.save()
}

func (r *FileRepo) List(filter ListFilter) ([]model.Task, error) {
	return r.mem.List(filter)
}

func (r *FileRepo) SetSchedule(id model.TaskID, u schedule.Update, reviewedAt time.Time) (model.Task, error) {
	out, err := r.mem.SetSchedule(id, u, reviewedAt)
	if err != nil {
		return model.Task{}, err
	}
	return out, r.save()
}

func (r *FileRepo) SetStatus(id model.TaskID, status, doneStatus string) (model.Task, error) {
	out, err := r.mem.SetStatus(id, status, doneStatus)
	if err != nil {
		return model.Task{}, err
	}
	return out, r.save()
}
