package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	first := Task{ID: "a", Title: "water plants", Due: 1000, Reminder: 100}
	second := Task{ID: "b", Title: "buy milk", Author: "ada", Done: true}
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	tasks, err := store.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first, tasks[0])
	assert.Equal(t, second, tasks[1])

	// Saving again overwrites in place
	first.Title = "water all plants"
	require.NoError(t, store.Save(first))
	tasks, err = store.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "water all plants", tasks[0].Title)
}

func TestStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tasks")
	store := NewStore(dir, zerolog.Nop())

	require.NoError(t, store.Save(Task{ID: "a"}))
	_, err := os.Stat(filepath.Join(dir, "a.json"))
	assert.NoError(t, err)
}

func TestStoreLoadMissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"), zerolog.Nop())

	tasks, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStoreLoadSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())
	require.NoError(t, store.Save(Task{ID: "good", Title: "keep me"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anonymous.json"), []byte(`{"title":"no id"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	tasks, err := store.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "good", tasks[0].ID)
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())
	require.NoError(t, store.Save(Task{ID: "a"}))

	require.NoError(t, store.Delete("a"))
	_, err := os.Stat(filepath.Join(dir, "a.json"))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is fine
	assert.NoError(t, store.Delete("a"))
}

func TestStoreWithoutDirectory(t *testing.T) {
	store := NewStore("", zerolog.Nop())

	require.ErrorIs(t, store.Save(Task{ID: "a"}), ErrNoTaskDir)

	tasks, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.NoError(t, store.Delete("a"))
}
