package task

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crgeee/reps/internal/model"
)

func TestFileRepo_PersistsAcrossReopen(t *testing.T) {
	fs := afero.NewMemMapFs()

	r, err := NewFileRepo(fs, "data")
	require.NoError(t, err)
	created, err := r.Create(model.Task{Title: "CAP theorem", Topic: model.TopicSystemDesign})
	require.NoError(t, err)

	done := true
	_, err = r.Update(created.ID, Patch{Completed: &done})
	require.NoError(t, err)

	reopened, err := NewFileRepo(fs, "data")
	require.NoError(t, err)
	got, err := reopened.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAP theorem", got.Title)
	assert.True(t, got.Completed)
}

func TestFileRepo_DeleteRemovesFromDisk(t *testing.T) {
	fs := afero.NewMemMapFs()

	r, err := NewFileRepo(fs, "data")
	require.NoError(t, err)
	created, err := r.Create(model.Task{Title: "temp"})
	require.NoError(t, err)
	require.NoError(t, r.Delete(created.ID))

	reopened, err := NewFileRepo(fs, "data")
	require.NoError(t, err)
	list, err := reopened.List(ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileRepo_RejectsCorruptState(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/tasks.json", []byte("{broken"), 0o644))

	_, err := NewFileRepo(fs, "data")
	assert.Error(t, err)
}
