package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crgeee/reps/internal/filter"
	"github.com/crgeee/reps/internal/model"
)

// taskFile mirrors the snapshot the task file repository writes: a single
// object with tasks keyed by id.
type taskFile struct {
	Tasks map[model.TaskID]model.Task `json:"tasks"`
}

// Report summarizes what a restored data directory contains.
type Report struct {
	Tasks    int  `json:"tasks"`
	HasPrefs bool `json:"has_prefs"`
}

// VerifyDataDir checks that a data directory (typically a fresh restore)
// holds decodable state: tasks.json parses into the task snapshot with valid
// review dates, and prefs.json, if present, parses too. A missing tasks.json
// is fine; an empty store backs up to an empty archive.
func VerifyDataDir(dir string) (Report, error) {
	var rep Report

	b, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return rep, nil
		}
		return rep, err
	}

	var state taskFile
	if err := json.Unmarshal(b, &state); err != nil {
		return rep, fmt.Errorf("tasks.json: %w", err)
	}
	for id, t := range state.Tasks {
		if id == "" || t.ID == "" {
			return rep, fmt.Errorf("tasks.json: task with empty id")
		}
		if t.ID != id {
			return rep, fmt.Errorf("tasks.json: entry %s holds task %s", id, t.ID)
		}
		if t.NextReviewDate != "" && !model.ValidDate(t.NextReviewDate) {
			return rep, fmt.Errorf("tasks.json: task %s: bad next review date %q", t.ID, t.NextReviewDate)
		}
	}
	rep.Tasks = len(state.Tasks)

	pb, err := os.ReadFile(filepath.Join(dir, "prefs.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return rep, nil
		}
		return rep, err
	}
	var prefs filter.Preferences
	if err := json.Unmarshal(pb, &prefs); err != nil {
		return rep, fmt.Errorf("prefs.json: %w", err)
	}
	rep.HasPrefs = true

	return rep, nil
}
