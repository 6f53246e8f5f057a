package task

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ErrNoTaskDir indicates a store without a configured directory;
// tasks then live in memory only.
var ErrNoTaskDir = errors.New("no task directory configured")

// Store persists each task as <dir>/<id>.json.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates a task store rooted at dir. An empty dir disables
// persistence.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Save writes one task, creating the directory on first use.
func (s *Store) Save(t Task) error {
	if s.dir == "" {
		return ErrNoTaskDir
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.taskPath(t.ID), data, 0644)
}

// Load reads every task in the directory, skipping files that do not
// parse as a task. A missing directory is an empty store.
func (s *Store) Load() ([]Task, error) {
	if s.dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().
				Str("component", "task").
				Str("file", path).
				Err(err).
				Msg("task file not readable")
			continue
		}

		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			s.logger.Warn().
				Str("component", "task").
				Str("file", path).
				Err(err).
				Msg("task file not parseable")
			continue
		}
		if t.ID == "" {
			s.logger.Warn().
				Str("component", "task").
				Str("file", path).
				Msg("task file without id")
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Delete removes a task file. A missing file is fine.
func (s *Store) Delete(id string) error {
	if s.dir == "" {
		return nil
	}

	err := os.Remove(s.taskPath(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) taskPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}
